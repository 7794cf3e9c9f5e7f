// Package usage keeps a SQLite ledger of LLM token usage and cost, and
// gates discovery behind a daily spend budget.
package usage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/AnkanSaha/auto-jobhunter/internal/llm"

	_ "modernc.org/sqlite"
)

type Tracker struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Open opens (and migrates) the usage database.
func Open(path string, logger *zap.SugaredLogger) (*Tracker, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open usage db")
	}
	db.SetMaxOpenConns(1) // sqlite wants one writer
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping usage db")
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Tracker{db: db, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS llm_usage (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  model TEXT NOT NULL,
  prompt_tokens INTEGER NOT NULL DEFAULT 0,
  completion_tokens INTEGER NOT NULL DEFAULT 0,
  cost_usd REAL NOT NULL DEFAULT 0,
  success INTEGER NOT NULL DEFAULT 1,
  error TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_llm_usage_created_at ON llm_usage(created_at);
`)
	return errors.Wrap(err, "migrate usage db")
}

func (t *Tracker) Close() error {
	if t == nil || t.db == nil {
		return nil
	}
	return t.db.Close()
}

// Record satisfies discovery.UsageRecorder. Tracking failures are logged,
// never propagated; the budget gate relies on this data but a miss must not
// break a cycle.
func (t *Tracker) Record(model string, u llm.Usage, success bool, errMsg string) {
	cost := EstimateCost(model, u.PromptTokens, u.CompletionTokens)

	_, err := t.db.Exec(`
INSERT INTO llm_usage(model, prompt_tokens, completion_tokens, cost_usd, success, error, created_at)
VALUES(?,?,?,?,?,?,?);`,
		model, u.PromptTokens, u.CompletionTokens, cost, boolToInt(success), errMsg,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.logger.Warnw("failed to record LLM usage", "model", model, "error", err)
	}
}

// SpendSince sums the cost of calls made at or after the cutoff.
func (t *Tracker) SpendSince(cutoff time.Time) (float64, error) {
	var spend float64
	err := t.db.QueryRow(`
SELECT COALESCE(SUM(cost_usd), 0) FROM llm_usage WHERE created_at >= ?;`,
		cutoff.UTC().Format(time.RFC3339),
	).Scan(&spend)
	if err != nil {
		return 0, errors.Wrap(err, "query spend")
	}
	return spend, nil
}

// DailySpend is today's spend (UTC midnight cutoff).
func (t *Tracker) DailySpend() (float64, error) {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return t.SpendSince(midnight)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Per-million-token prices. Unknown models fall back to a conservative rate
// so the budget gate errs toward skipping.
var modelPrices = map[string]struct{ prompt, completion float64 }{
	"perplexity/sonar":     {1.0, 1.0},
	"perplexity/sonar-pro": {3.0, 15.0},
	"openai/gpt-4o-mini":   {0.15, 0.60},
}

const fallbackPricePerM = 5.0

// EstimateCost converts token counts into USD for the given model.
func EstimateCost(model string, promptTokens, completionTokens int) float64 {
	price, ok := modelPrices[strings.ToLower(model)]
	if !ok {
		price = struct{ prompt, completion float64 }{fallbackPricePerM, fallbackPricePerM}
	}
	return float64(promptTokens)/1e6*price.prompt + float64(completionTokens)/1e6*price.completion
}
