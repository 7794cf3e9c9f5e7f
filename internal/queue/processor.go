// Package queue drains the pending listings under the outbound rate limit.
// This is the state machine at the center of the system: per item,
// Pending -> Sending -> Sent | Failed(requeued) | Abandoned.
package queue

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/AnkanSaha/auto-jobhunter/internal/domain"
	"github.com/AnkanSaha/auto-jobhunter/internal/mailer"
	"github.com/AnkanSaha/auto-jobhunter/internal/store"
)

// DefaultBatchSize caps one Bounded run: with the default 5 minute spacing
// that is a hard ceiling of 12 sends/hour.
const DefaultBatchSize = 12

// Mode selects how much of the queue one invocation works through.
// Unbounded lifts the item cap, not the inter-email spacing.
type Mode struct {
	bounded bool
	limit   int
}

func Bounded(n int) Mode {
	if n <= 0 {
		n = DefaultBatchSize
	}
	return Mode{bounded: true, limit: n}
}

func Unbounded() Mode { return Mode{} }

type Processor struct {
	store       *store.Store
	sender      mailer.Sender
	limiter     *rate.Limiter
	attachment  string
	maxAttempts int
	logger      *zap.SugaredLogger
}

// NewProcessor wires the dispatch loop. interval is the minimum spacing
// between consecutive sends; the token bucket starts full so the first send
// of an invocation is never delayed.
func NewProcessor(s *store.Store, sender mailer.Sender, interval time.Duration, attachment string, maxAttempts int, logger *zap.SugaredLogger) *Processor {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Processor{
		store:       s,
		sender:      sender,
		limiter:     rate.NewLimiter(limit, 1),
		attachment:  attachment,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Result reports what one invocation did.
type Result struct {
	Attempted int
	Sent      int
	Failed    int
	Abandoned int
}

// Process works the queue front-to-back, strictly sequentially. Successful
// sends are popped; failures are requeued to the back with their attempt
// count bumped, or abandoned once the retry budget is spent. An empty queue
// is a no-op, not an error.
func (p *Processor) Process(ctx context.Context, mode Mode) (Result, error) {
	var res Result

	size, err := p.store.QueueSize()
	if err != nil {
		return res, err
	}
	if size == 0 {
		return res, nil
	}

	n := size
	if mode.bounded && mode.limit < n {
		n = mode.limit
	}

	p.logger.Infow("processing queue", "queued", size, "batch", n, "bounded", mode.bounded)

	for i := 0; i < n; i++ {
		// Throttle before every send; the bucket refills one token per
		// interval, so consecutive sends are spaced apart in both modes.
		if err := p.limiter.Wait(ctx); err != nil {
			return res, err
		}

		front, err := p.store.PeekFront()
		if err != nil {
			return res, err
		}
		if front == nil {
			break
		}
		listing := *front
		res.Attempted++

		sendErr := p.send(ctx, listing)
		now := time.Now()

		// Removal and requeue are keyed by listing id, never by position:
		// the inbox monitor may pull entries (this one included) out of the
		// queue while the send is in flight.
		if sendErr == nil {
			if err := p.store.UpdateHistory(func(h *domain.History) {
				h.RecordSent(listing, now)
			}); err != nil {
				return res, errors.Wrap(err, "record sent")
			}
			if _, err := p.store.Remove(listing.ID); err != nil {
				return res, errors.Wrap(err, "remove sent listing")
			}
			res.Sent++
			p.logger.Infow("listing sent", "company", listing.Company, "role", listing.Role, "score", listing.Score)
			continue
		}

		listing.Attempts++
		if listing.Attempts >= p.maxAttempts {
			if err := p.store.UpdateHistory(func(h *domain.History) {
				h.RecordAbandoned(listing, now, sendErr.Error())
			}); err != nil {
				return res, errors.Wrap(err, "record abandoned")
			}
			if _, err := p.store.Remove(listing.ID); err != nil {
				return res, errors.Wrap(err, "remove abandoned listing")
			}
			res.Abandoned++
			p.logger.Warnw("listing abandoned", "company", listing.Company, "attempts", listing.Attempts, "error", sendErr)
			continue
		}

		if err := p.store.UpdateHistory(func(h *domain.History) {
			h.RecordFailed(listing, now, sendErr.Error())
		}); err != nil {
			return res, errors.Wrap(err, "record failed")
		}
		requeued, err := p.store.Requeue(listing)
		if err != nil {
			return res, errors.Wrap(err, "requeue failed listing")
		}
		res.Failed++
		p.logger.Warnw("send failed", "company", listing.Company, "attempts", listing.Attempts, "requeued", requeued, "error", sendErr)
	}

	return res, nil
}

func (p *Processor) send(ctx context.Context, l domain.Listing) error {
	to := l.Recipients()
	if len(to) == 0 {
		return errors.Newf("listing for %q has no contact email", l.Company)
	}
	return p.sender.Send(ctx, to, l.EmailSubject, l.RenderBody(), p.attachment)
}
