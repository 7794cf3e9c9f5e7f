package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

func Validate(cfg Config) error {
	var errs []string

	if strings.TrimSpace(cfg.SMTP.Host) == "" {
		errs = append(errs, "smtp.host is required")
	}
	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		errs = append(errs, "smtp.port must be 1..65535")
	}
	if strings.TrimSpace(cfg.SMTP.Username) == "" {
		errs = append(errs, "smtp.username is required")
	}
	if strings.TrimSpace(cfg.SMTP.From) == "" {
		errs = append(errs, "smtp.from is required")
	}

	if strings.TrimSpace(cfg.Resume.Path) == "" {
		errs = append(errs, "resume.path is required")
	}

	if len(cfg.Profile.Searches) == 0 {
		errs = append(errs, "profile.searches must have at least 1 entry")
	}
	for i, s := range cfg.Profile.Searches {
		if strings.TrimSpace(s) == "" {
			errs = append(errs, fmt.Sprintf("profile.searches[%d] cannot be empty", i))
		}
	}

	if len(cfg.Schedule.CronSpecs) == 0 {
		errs = append(errs, "schedule.cron_specs must have at least 1 entry")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for i, spec := range cfg.Schedule.CronSpecs {
		if _, err := parser.Parse(spec); err != nil {
			errs = append(errs, fmt.Sprintf("schedule.cron_specs[%d] is not a valid cron expression: %v", i, err))
		}
	}

	if cfg.Send.BatchSize <= 0 {
		errs = append(errs, "send.batch_size must be > 0")
	}
	if cfg.Send.IntervalSeconds < 0 {
		errs = append(errs, "send.interval_seconds must be >= 0")
	}
	if cfg.Send.MaxAttempts <= 0 {
		errs = append(errs, "send.max_attempts must be > 0")
	}

	if cfg.LLM.DailyBudgetUSD < 0 {
		errs = append(errs, "llm.daily_budget_usd must be >= 0")
	}

	if cfg.Inbox.Enabled {
		if strings.TrimSpace(cfg.Inbox.IMAPHost) == "" {
			errs = append(errs, "inbox.imap_host is required when inbox.enabled=true")
		}
		if cfg.Inbox.IMAPPort == 0 {
			errs = append(errs, "inbox.imap_port is required when inbox.enabled=true")
		}
		if strings.TrimSpace(cfg.Inbox.Username) == "" {
			errs = append(errs, "inbox.username is required when inbox.enabled=true")
		}
		if strings.TrimSpace(cfg.Inbox.Mailbox) == "" {
			errs = append(errs, "inbox.mailbox is required when inbox.enabled=true")
		}
		if cfg.Inbox.PollSeconds <= 0 {
			errs = append(errs, "inbox.poll_seconds must be > 0 when inbox.enabled=true")
		}
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}
