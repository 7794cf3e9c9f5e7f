// Package cycle composes discovery, dedup, ranking and the queue processor
// into the scheduled and startup runs.
package cycle

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/AnkanSaha/auto-jobhunter/internal/dedup"
	"github.com/AnkanSaha/auto-jobhunter/internal/discovery"
	"github.com/AnkanSaha/auto-jobhunter/internal/queue"
	"github.com/AnkanSaha/auto-jobhunter/internal/rank"
	"github.com/AnkanSaha/auto-jobhunter/internal/store"
)

type Orchestrator struct {
	store     *store.Store
	finder    discovery.Finder
	processor *queue.Processor
	scorer    rank.Scorer
	batchSize int
	logger    *zap.SugaredLogger

	// One cycle at a time. An overlapping trigger skips instead of racing
	// the documents.
	mu sync.Mutex
}

func New(s *store.Store, finder discovery.Finder, processor *queue.Processor, scorer rank.Scorer, batchSize int, logger *zap.SugaredLogger) *Orchestrator {
	if batchSize <= 0 {
		batchSize = queue.DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		store:     s,
		finder:    finder,
		processor: processor,
		scorer:    scorer,
		batchSize: batchSize,
		logger:    logger,
	}
}

// RunScheduled is one rate-limited cycle: drain a batch of backlog first and
// only discover new listings when the backlog did not fill the batch.
func (o *Orchestrator) RunScheduled(ctx context.Context) error {
	if !o.mu.TryLock() {
		o.logger.Warnw("cycle already running, skipping trigger")
		return nil
	}
	defer o.mu.Unlock()

	return o.recovered(func() error {
		size, err := o.store.QueueSize()
		if err != nil {
			return err
		}

		if size > 0 {
			res, err := o.processor.Process(ctx, queue.Bounded(o.batchSize))
			if err != nil {
				return err
			}
			if res.Attempted >= o.batchSize {
				// The backlog ate the whole batch; no room for new
				// discoveries this cycle.
				o.logger.Infow("batch exhausted by backlog", "sent", res.Sent, "failed", res.Failed)
				return nil
			}
		}

		o.discoverAndEnqueue(ctx)

		_, err = o.processor.Process(ctx, queue.Bounded(o.batchSize))
		return err
	})
}

// RunStartup clears any backlog left over from an unclean shutdown, then
// discovers and drains a fresh batch. No item cap at startup.
func (o *Orchestrator) RunStartup(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.recovered(func() error {
		if _, err := o.processor.Process(ctx, queue.Unbounded()); err != nil {
			return err
		}

		o.discoverAndEnqueue(ctx)

		_, err := o.processor.Process(ctx, queue.Unbounded())
		return err
	})
}

// discoverAndEnqueue runs discovery, drops already-contacted targets, scores
// and appends the survivors. Discovery failures degrade to an empty result;
// they never kill the cycle.
func (o *Orchestrator) discoverAndEnqueue(ctx context.Context) {
	history, err := o.store.LoadHistory()
	if err != nil {
		o.logger.Errorw("load history for discovery", "error", err)
		return
	}
	index := dedup.NewIndex(history)

	listings, err := o.finder.Find(ctx, index.Companies())
	if err != nil {
		o.logger.Warnw("discovery failed, skipping this cycle", "error", err)
		return
	}
	if len(listings) == 0 {
		o.logger.Infow("discovery returned no listings")
		return
	}

	fresh := index.FilterNew(listings)
	if dropped := len(listings) - len(fresh); dropped > 0 {
		o.logger.Infow("dedup filtered listings", "dropped", dropped)
	}
	if len(fresh) == 0 {
		return
	}

	fresh = rank.ScoreAndSort(o.scorer, fresh)
	if err := o.store.AppendQueue(fresh); err != nil {
		o.logger.Errorw("enqueue discovered listings", "error", err)
		return
	}
	o.logger.Infow("listings enqueued", "count", len(fresh), "top_company", fresh[0].Company, "top_score", fresh[0].Score)
}

// recovered runs fn and converts a panic anywhere in the cycle into an
// error, so a scheduled trigger can never take the process down.
func (o *Orchestrator) recovered(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("cycle panic: %v", r)
		}
	}()
	return fn()
}
