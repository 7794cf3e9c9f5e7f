// Package discovery turns candidate-profile searches into scored job
// listings by querying a search-capable LLM.
package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AnkanSaha/auto-jobhunter/internal/domain"
	"github.com/AnkanSaha/auto-jobhunter/internal/llm"
)

// Finder is what the orchestrator consumes. Empty results are a valid,
// non-error outcome.
type Finder interface {
	Find(ctx context.Context, excludedCompanies []string) ([]domain.Listing, error)
}

// ChatClient is the slice of llm.Client discovery needs.
type ChatClient interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// UsageRecorder receives token usage after every call. Optional.
type UsageRecorder interface {
	Record(model string, usage llm.Usage, success bool, errMsg string)
}

// BudgetGate can veto discovery before any call is made. Optional.
type BudgetGate interface {
	Allow() (bool, string)
}

// Profile is the candidate context baked into every search prompt.
type Profile struct {
	Name       string
	Headline   string
	Skills     []string
	ResumeText string
	Searches   []string
}

type LLMFinder struct {
	client   ChatClient
	model    string
	profile  Profile
	recorder UsageRecorder
	gate     BudgetGate
	logger   *zap.SugaredLogger
}

func NewLLMFinder(client ChatClient, model string, profile Profile, recorder UsageRecorder, gate BudgetGate, logger *zap.SugaredLogger) *LLMFinder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LLMFinder{
		client:   client,
		model:    model,
		profile:  profile,
		recorder: recorder,
		gate:     gate,
		logger:   logger,
	}
}

// Find fans out one LLM call per configured search. A failing search logs and
// contributes nothing; partial results are fine.
func (f *LLMFinder) Find(ctx context.Context, excludedCompanies []string) ([]domain.Listing, error) {
	if f.gate != nil {
		if ok, reason := f.gate.Allow(); !ok {
			f.logger.Warnw("discovery skipped", "reason", reason)
			return nil, nil
		}
	}

	var mu sync.Mutex
	var all []domain.Listing

	var g errgroup.Group
	for _, search := range f.profile.Searches {
		search := search
		g.Go(func() error {
			listings, err := f.findOne(ctx, search, excludedCompanies)
			if err != nil {
				f.logger.Warnw("search failed", "search", search, "error", err)
				return nil // best effort, never fail the cycle
			}
			mu.Lock()
			all = append(all, listings...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// One listing per company within a single discovery pass.
	all = dedupeByCompany(all)

	now := time.Now()
	for i := range all {
		all[i].ID = uuid.NewString()
		all[i].DiscoveredAt = now
	}

	f.logger.Infow("discovery finished", "searches", len(f.profile.Searches), "listings", len(all))
	return all, nil
}

func (f *LLMFinder) findOne(ctx context.Context, search string, excludedCompanies []string) ([]domain.Listing, error) {
	req := llm.ChatRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildUserPrompt(f.profile, search, excludedCompanies),
	}

	resp, err := f.client.Chat(ctx, req)
	if err != nil {
		if f.recorder != nil {
			f.recorder.Record(f.model, llm.Usage{}, false, err.Error())
		}
		return nil, err
	}
	if f.recorder != nil {
		f.recorder.Record(f.model, resp.Usage, true, "")
	}

	return ParseListings(resp.Content)
}

func dedupeByCompany(in []domain.Listing) []domain.Listing {
	seen := map[string]bool{}
	out := make([]domain.Listing, 0, len(in))
	for _, l := range in {
		key := normalizeCompany(l.Company)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}
