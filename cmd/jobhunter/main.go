package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AnkanSaha/auto-jobhunter/internal/config"
	"github.com/AnkanSaha/auto-jobhunter/internal/cycle"
	"github.com/AnkanSaha/auto-jobhunter/internal/discovery"
	"github.com/AnkanSaha/auto-jobhunter/internal/inbox"
	"github.com/AnkanSaha/auto-jobhunter/internal/llm"
	"github.com/AnkanSaha/auto-jobhunter/internal/logging"
	"github.com/AnkanSaha/auto-jobhunter/internal/mailer"
	"github.com/AnkanSaha/auto-jobhunter/internal/profile"
	"github.com/AnkanSaha/auto-jobhunter/internal/queue"
	"github.com/AnkanSaha/auto-jobhunter/internal/rank"
	"github.com/AnkanSaha/auto-jobhunter/internal/scheduler"
	"github.com/AnkanSaha/auto-jobhunter/internal/secrets"
	"github.com/AnkanSaha/auto-jobhunter/internal/store"
	"github.com/AnkanSaha/auto-jobhunter/internal/usage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	dataDir := os.Getenv("JOBHUNTER_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	cfgPath, err := config.EnsureConfig(dataDir)
	if err != nil {
		return fmt.Errorf("config bootstrap: %w", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load (%s): %w", cfgPath, err)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger, err := logging.New(cfg.App.LogFormat, cfg.App.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	apiKey, err := secrets.APIKey()
	if err != nil {
		return err
	}
	smtpPassword, err := secrets.SMTPPassword(cfg.SMTP.Username, cfg.SMTP.Host)
	if err != nil {
		return err
	}

	st, err := store.Open(dataDir)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	if err := st.Init(); err != nil {
		return err
	}

	tracker, err := usage.Open(filepath.Join(dataDir, "usage.db"), logger)
	if err != nil {
		return err
	}
	defer func() { _ = tracker.Close() }()

	// Unreadable resume means no cycle can ever succeed; die now.
	resumeText, err := profile.ExtractText(cfg.Resume.Path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender := mailer.NewSMTPSender(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: smtpPassword,
		From:     cfg.SMTP.From,
		SSL:      cfg.SMTP.SSL,
	}, logger)

	verifyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = sender.Verify(verifyCtx)
	cancel()
	if err != nil {
		return err
	}
	logger.Infow("smtp transport verified", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port)

	client := llm.NewClient(llm.Config{
		APIKey:      apiKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Logger:      logger,
	})

	finder := discovery.NewLLMFinder(client, cfg.LLM.Model, discovery.Profile{
		Name:       cfg.Profile.Name,
		Headline:   cfg.Profile.Headline,
		Skills:     cfg.Profile.Skills,
		ResumeText: resumeText,
		Searches:   cfg.Profile.Searches,
	}, tracker, &usage.Gate{Tracker: tracker, DailyBudgetUSD: cfg.LLM.DailyBudgetUSD}, logger)

	processor := queue.NewProcessor(st, sender, cfg.SendInterval(), cfg.Resume.Path, cfg.Send.MaxAttempts, logger)
	scorer := rank.WeightScorer{Skills: cfg.Profile.Skills}
	orch := cycle.New(st, finder, processor, scorer, cfg.Send.BatchSize, logger)

	// Startup run: clear backlog from any unclean shutdown, then front-load
	// the first discovery batch.
	logger.Infow("running startup cycle")
	if err := orch.RunStartup(ctx); err != nil {
		logger.Errorw("startup cycle failed", "error", err)
	}

	cr, err := scheduler.StartCron(ctx, cfg.Schedule.CronSpecs, "outreach-cycle", orch.RunScheduled, logger)
	if err != nil {
		return err
	}
	defer cr.Stop()

	if cfg.Inbox.Enabled {
		imapPassword, err := secrets.IMAPPassword(cfg.Inbox.Username, cfg.Inbox.IMAPHost)
		if err != nil {
			return err
		}
		monitor := inbox.NewMonitor(inbox.Config{
			Host:     cfg.Inbox.IMAPHost,
			Port:     cfg.Inbox.IMAPPort,
			Username: cfg.Inbox.Username,
			Password: imapPassword,
			Mailbox:  cfg.Inbox.Mailbox,
		}, st, logger)
		go scheduler.Every(ctx, cfg.InboxPollInterval(), "inbox-monitor", monitor.PollOnce, logger)
	}

	logger.Infow("jobhunter resident", "data_dir", dataDir, "triggers", cfg.Schedule.CronSpecs)
	<-ctx.Done()
	logger.Infow("shutting down")
	return nil
}
