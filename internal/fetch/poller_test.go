package fetch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/galaxia/internal/observability"
)

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poll")
	}
}

func assertNoPoll(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected poll")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPoller_FiresImmediatelyThenOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	metrics := observability.NewMetricsForTesting()
	polls := make(chan struct{}, 8)
	p := NewPoller("iss-position", 4*time.Second, func(context.Context) { polls <- struct{}{} },
		WithClock(clock), WithMetrics(metrics))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p.Start(ctx)
	defer p.Stop()
	assert.True(t, p.Running())
	waitFor(t, polls)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(4 * time.Second)
	waitFor(t, polls)

	clock.Advance(4 * time.Second)
	waitFor(t, polls)

	assert.InDelta(t, 3.0, testutil.ToFloat64(metrics.PollTicks.WithLabelValues("iss-position")), 0)
}

func TestPoller_NoBackPressure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	release := make(chan struct{})
	var started atomic.Int32
	polls := make(chan struct{}, 8)
	p := NewPoller("slow", time.Second, func(ctx context.Context) {
		started.Add(1)
		polls <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
	}, WithClock(clock))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.Start(ctx)
	waitFor(t, polls)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)
	waitFor(t, polls)

	assert.Equal(t, int32(2), started.Load(), "second tick runs while the first is still blocked")
	close(release)
	p.Stop()
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	p := NewPoller("noop", time.Second, func(context.Context) {}, WithClock(clockwork.NewFakeClock()))
	p.Stop()

	p.Start(context.Background())
	p.Stop()
	p.Stop()

	assert.False(t, p.Running())
}

func TestPoller_StopCancelsInFlight(t *testing.T) {
	cancelled := make(chan struct{})
	polls := make(chan struct{}, 1)
	p := NewPoller("blocking", time.Second, func(ctx context.Context) {
		polls <- struct{}{}
		<-ctx.Done()
		close(cancelled)
	}, WithClock(clockwork.NewFakeClock()))

	p.Start(context.Background())
	waitFor(t, polls)
	p.Stop()

	waitFor(t, cancelled)
}

func TestPoller_StartTwiceKeepsOneSchedule(t *testing.T) {
	clock := clockwork.NewFakeClock()
	polls := make(chan struct{}, 8)
	p := NewPoller("dup", time.Second, func(context.Context) { polls <- struct{}{} }, WithClock(clock))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.Start(ctx)
	p.Start(ctx)
	defer p.Stop()

	waitFor(t, polls)
	assertNoPoll(t, polls)
}

func TestPoller_RestartAfterStop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	polls := make(chan struct{}, 8)
	p := NewPoller("restart", time.Second, func(context.Context) { polls <- struct{}{} }, WithClock(clock))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p.Start(ctx)
	waitFor(t, polls)
	p.Stop()

	p.Start(ctx)
	defer p.Stop()
	waitFor(t, polls)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)
	waitFor(t, polls)
	assertNoPoll(t, polls)
}

func TestPoller_ParentContextCancelStopsSchedule(t *testing.T) {
	p := NewPoller("parent", time.Second, func(context.Context) {}, WithClock(clockwork.NewFakeClock()))
	ctx, cancel := context.WithCancel(context.Background())

	p.Start(ctx)
	cancel()

	assert.False(t, p.Running())
	p.Stop()
}

func TestPoller_TeardownDuringDelayedResponse(t *testing.T) {
	req := &scriptedRequester{
		bodies:  []string{"late"},
		gates:   []chan struct{}{make(chan struct{})},
		started: make(chan int, 1),
	}
	cell := NewCell(req, headlineDescriptor())
	rec := &recorder[headline]{}
	cell.OnChange(rec.record)

	p := NewPoller("mount", time.Second, func(ctx context.Context) { cell.Fetch(ctx) },
		WithClock(clockwork.NewFakeClock()))

	p.Start(context.Background())
	<-req.started
	before := rec.len()

	cell.Close()
	p.Stop()

	assert.Equal(t, before, rec.len(), "no state updates after teardown")
	assert.Equal(t, 1, req.callCount())
}
