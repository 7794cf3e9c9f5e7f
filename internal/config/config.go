package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		LogFormat string `yaml:"log_format"` // console or json
		LogLevel  string `yaml:"log_level"`
	} `yaml:"app"`

	LLM struct {
		Model          string  `yaml:"model"`
		Temperature    float64 `yaml:"temperature"`
		MaxTokens      int     `yaml:"max_tokens"`
		DailyBudgetUSD float64 `yaml:"daily_budget_usd"` // 0 disables the gate
	} `yaml:"llm"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		From     string `yaml:"from"`
		SSL      bool   `yaml:"ssl"` // implicit TLS (465) vs STARTTLS
	} `yaml:"smtp"`

	Resume struct {
		Path string `yaml:"path"`
	} `yaml:"resume"`

	Profile struct {
		Name     string   `yaml:"name"`
		Headline string   `yaml:"headline"`
		Skills   []string `yaml:"skills"`
		Searches []string `yaml:"searches"` // one discovery call per entry
	} `yaml:"profile"`

	Schedule struct {
		CronSpecs []string `yaml:"cron_specs"`
	} `yaml:"schedule"`

	Send struct {
		BatchSize       int `yaml:"batch_size"`
		IntervalSeconds int `yaml:"interval_seconds"`
		MaxAttempts     int `yaml:"max_attempts"`
	} `yaml:"send"`

	Inbox struct {
		Enabled     bool   `yaml:"enabled"`
		IMAPHost    string `yaml:"imap_host"`
		IMAPPort    int    `yaml:"imap_port"`
		Username    string `yaml:"username"`
		Mailbox     string `yaml:"mailbox"`
		PollSeconds int    `yaml:"poll_seconds"`
	} `yaml:"inbox"`
}

// Default returns the config written on first run.
func Default() Config {
	var cfg Config
	cfg.App.LogFormat = "console"
	cfg.App.LogLevel = "info"

	cfg.LLM.Model = "perplexity/sonar"
	cfg.LLM.Temperature = 0.3
	cfg.LLM.MaxTokens = 4000
	cfg.LLM.DailyBudgetUSD = 2.0

	cfg.SMTP.Port = 465
	cfg.SMTP.SSL = true

	cfg.Resume.Path = "resume.pdf"

	// 09:00 and 18:00 every day
	cfg.Schedule.CronSpecs = []string{"0 9 * * *", "0 18 * * *"}

	cfg.Send.BatchSize = 12
	cfg.Send.IntervalSeconds = 300 // 12 sends/hour ceiling
	cfg.Send.MaxAttempts = 5

	cfg.Inbox.Mailbox = "INBOX"
	cfg.Inbox.PollSeconds = 900

	return cfg
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// SendInterval is the inter-email spacing for the dispatch throttle.
func (c Config) SendInterval() time.Duration {
	return time.Duration(c.Send.IntervalSeconds) * time.Second
}

func (c Config) InboxPollInterval() time.Duration {
	return time.Duration(c.Inbox.PollSeconds) * time.Second
}
