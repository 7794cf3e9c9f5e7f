package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Default()
	cfg.SMTP.Host = "smtp.example.com"
	cfg.SMTP.Username = "me@example.com"
	cfg.SMTP.From = "me@example.com"
	cfg.Profile.Searches = []string{"golang backend jobs"}
	return cfg
}

func TestDefaultIsAlmostValid(t *testing.T) {
	// Default lacks only the account-specific fields.
	err := Validate(Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.host")
	assert.Contains(t, err.Error(), "profile.searches")
	assert.NotContains(t, err.Error(), "cron")
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "bad cron spec",
			mutate:  func(c *Config) { c.Schedule.CronSpecs = []string{"not a cron"} },
			wantMsg: "cron",
		},
		{
			name:    "no cron specs",
			mutate:  func(c *Config) { c.Schedule.CronSpecs = nil },
			wantMsg: "schedule.cron_specs",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Send.BatchSize = 0 },
			wantMsg: "send.batch_size",
		},
		{
			name:    "zero max attempts",
			mutate:  func(c *Config) { c.Send.MaxAttempts = 0 },
			wantMsg: "send.max_attempts",
		},
		{
			name:    "negative budget",
			mutate:  func(c *Config) { c.LLM.DailyBudgetUSD = -1 },
			wantMsg: "daily_budget_usd",
		},
		{
			name:    "blank search entry",
			mutate:  func(c *Config) { c.Profile.Searches = []string{"ok", "  "} },
			wantMsg: "profile.searches[1]",
		},
		{
			name: "inbox enabled without host",
			mutate: func(c *Config) {
				c.Inbox.Enabled = true
				c.Inbox.Username = "me@example.com"
				c.Inbox.IMAPPort = 993
			},
			wantMsg: "inbox.imap_host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestEnsureConfigWritesDefaultOnce(t *testing.T) {
	dir := t.TempDir()

	path, err := EnsureConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yml"), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().LLM.Model, cfg.LLM.Model)
	assert.Equal(t, 12, cfg.Send.BatchSize)

	// Edit, then make sure EnsureConfig does not overwrite.
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(b, []byte("\n# edited\n")...), 0o644))

	_, err = EnsureConfig(dir)
	require.NoError(t, err)
	b2, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b2), "# edited")
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	raw := `
app:
  log_format: json
  log_level: debug
smtp:
  host: smtp.example.com
  port: 587
  username: me@example.com
  from: me@example.com
  ssl: false
send:
  batch_size: 6
  interval_seconds: 120
  max_attempts: 2
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.App.LogFormat)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.SMTP.SSL)
	assert.Equal(t, 2, cfg.Send.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.SendInterval())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
