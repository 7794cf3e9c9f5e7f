package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEveryRunsImmediatelyAndOnTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan struct{})
	go func() {
		Every(ctx, 10*time.Millisecond, "test", func(context.Context) error {
			if runs.Add(1) >= 3 {
				cancel()
			}
			return nil
		}, zap.NewNop().Sugar())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Every did not stop after cancel")
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(3))
}

func TestEveryKeepsGoingAfterTaskError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan struct{})
	go func() {
		Every(ctx, 5*time.Millisecond, "failing", func(context.Context) error {
			if runs.Add(1) >= 2 {
				cancel()
			}
			return assert.AnError
		}, zap.NewNop().Sugar())
		close(done)
	}()

	<-done
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestStartCronRejectsBadSpec(t *testing.T) {
	_, err := StartCron(context.Background(), []string{"not a cron"}, "test", func(context.Context) error { return nil }, zap.NewNop().Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a cron")
}

func TestStartCronRegistersAllSpecs(t *testing.T) {
	c, err := StartCron(context.Background(), []string{"0 9 * * *", "0 18 * * *"}, "test", func(context.Context) error { return nil }, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer c.Stop()

	assert.Len(t, c.Entries(), 2)
}
