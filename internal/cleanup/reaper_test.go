package cleanup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type countingExpirer struct {
	calls atomic.Int32
	ttl   atomic.Int64
	err   error
}

func (c *countingExpirer) ExpireIdle(ctx context.Context, ttl time.Duration) (int, error) {
	c.calls.Add(1)
	c.ttl.Store(int64(ttl))
	return 1, c.err
}

func TestReaperSweepsUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	exp := &countingExpirer{}
	r := NewReaper(exp, 10*time.Millisecond, 90*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	assert.Eventually(t, func() bool { return exp.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	r.Wait()

	assert.Equal(t, int64(90*time.Minute), exp.ttl.Load())
}

func TestReaperSurvivesErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	exp := &countingExpirer{err: errors.New("redis down")}
	r := NewReaper(exp, 10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	assert.Eventually(t, func() bool { return exp.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	r.Wait()
}

func TestNewReaperDefaults(t *testing.T) {
	r := NewReaper(&countingExpirer{}, 0, 0)
	assert.Equal(t, 5*time.Minute, r.interval)
	assert.Equal(t, 2*time.Hour, r.idleTTL)
}
