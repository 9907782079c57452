package fetch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/galaxia/internal/observability"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// --- mocks ---

// scriptedRequester answers call i with bodies[i], optionally waiting on gates[i].
type scriptedRequester struct {
	mu      sync.Mutex
	calls   int
	bodies  []string
	errs    []error
	gates   []chan struct{}
	started chan int
}

func (s *scriptedRequester) Do(ctx context.Context, _ upstream.Request) ([]byte, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.mu.Unlock()

	if s.started != nil {
		s.started <- i
	}
	if i < len(s.gates) && s.gates[i] != nil {
		select {
		case <-s.gates[i]:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.bodies) {
		return []byte(s.bodies[i]), nil
	}
	return []byte(s.bodies[len(s.bodies)-1]), nil
}

func (s *scriptedRequester) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type headline struct {
	Title string
	Words []string
}

func headlineDescriptor() Descriptor[headline] {
	return Descriptor[headline]{
		Source:  "headline",
		Request: func() (upstream.Request, error) { return upstream.Request{Path: "/headline"}, nil },
		Normalize: func(b []byte) (headline, error) {
			s := string(b)
			if s == "" {
				return headline{}, errors.New("empty body")
			}
			return headline{Title: s, Words: strings.Fields(s)}, nil
		},
	}
}

// recorder captures every published state.
type recorder[T any] struct {
	mu     sync.Mutex
	states []State[T]
}

func (r *recorder[T]) record(s State[T]) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *recorder[T]) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, len(r.states))
	for i, s := range r.states {
		out[i] = s.Status
	}
	return out
}

// --- tests ---

func TestCell_InitialStateIdle(t *testing.T) {
	c := NewCell(&scriptedRequester{bodies: []string{"x"}}, headlineDescriptor())
	assert.Equal(t, StatusIdle, c.State().Status)
	assert.Equal(t, "headline", c.Source())
}

func TestCell_Fetch_Success(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	c := NewCell(&scriptedRequester{bodies: []string{"Falcon Heavy lifts off"}}, headlineDescriptor(), WithMetrics(metrics))
	rec := &recorder[headline]{}
	c.OnChange(rec.record)

	st := c.Fetch(context.Background())

	require.Equal(t, StatusReady, st.Status)
	assert.NoError(t, st.Err)
	assert.Empty(t, st.Message)
	assert.False(t, st.Placeholder)
	assert.Equal(t, uint64(1), st.Seq)
	assert.Equal(t, headline{Title: "Falcon Heavy lifts off", Words: []string{"Falcon", "Heavy", "lifts", "off"}}, st.Data)
	assert.Equal(t, []Status{StatusLoading, StatusReady}, rec.statuses())
	assert.Equal(t, st, c.State())
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.FetchRequests.WithLabelValues("headline", "success")), 0)
}

func TestCell_Fetch_TransportFailureNeverMixesDataAndError(t *testing.T) {
	req := &scriptedRequester{
		bodies: []string{"first", "", "third"},
		errs:   []error{nil, errors.New("connection refused"), nil},
	}
	metrics := observability.NewMetricsForTesting()
	c := NewCell(req, headlineDescriptor(), WithMetrics(metrics))
	rec := &recorder[headline]{}
	c.OnChange(rec.record)

	st := c.Fetch(context.Background())
	require.Equal(t, StatusReady, st.Status)

	st = c.Fetch(context.Background())
	require.Equal(t, StatusFailed, st.Status)
	require.Error(t, st.Err)
	assert.Equal(t, "Failed to load headline", st.Message)
	assert.Equal(t, headline{}, st.Data, "failed state must not carry stale data")

	st = c.Fetch(context.Background())
	require.Equal(t, StatusReady, st.Status)
	assert.NoError(t, st.Err, "a new request clears the previous error")
	assert.Equal(t, "third", st.Data.Title)

	for _, s := range rec.states {
		switch s.Status {
		case StatusLoading:
			assert.NoError(t, s.Err)
			assert.Equal(t, headline{}, s.Data)
		case StatusFailed:
			assert.Equal(t, headline{}, s.Data)
		case StatusReady:
			assert.NoError(t, s.Err)
		}
	}
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.FetchRequests.WithLabelValues("headline", "error")), 0)
}

func TestCell_Fetch_NormalizeError(t *testing.T) {
	c := NewCell(&scriptedRequester{bodies: []string{""}}, headlineDescriptor())

	st := c.Fetch(context.Background())

	assert.Equal(t, StatusFailed, st.Status)
	assert.EqualError(t, st.Err, "empty body")
}

func TestCell_Fetch_RequestErrorSkipsNetwork(t *testing.T) {
	req := &scriptedRequester{bodies: []string{"x"}}
	d := headlineDescriptor()
	d.Request = func() (upstream.Request, error) { return upstream.Request{}, errors.New("range too wide") }
	d.FailureMessage = "Invalid date range"
	c := NewCell(req, d)

	st := c.Fetch(context.Background())

	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, "Invalid date range", st.Message)
	assert.Equal(t, 0, req.callCount())
}

func TestCell_Fetch_FallbackPlaceholder(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	d := headlineDescriptor()
	d.Fallback = func() headline { return headline{Title: "placeholder"} }
	c := NewCell(&scriptedRequester{bodies: []string{""}, errs: []error{errors.New("boom")}}, d, WithMetrics(metrics))

	st := c.Fetch(context.Background())

	assert.Equal(t, StatusReady, st.Status)
	assert.True(t, st.Placeholder)
	assert.NoError(t, st.Err)
	assert.Equal(t, "Failed to load headline", st.Message)
	assert.Equal(t, "placeholder", st.Data.Title)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.FetchRequests.WithLabelValues("headline", "fallback")), 0)
}

func TestCell_Fetch_IdenticalResponsesIdenticalModels(t *testing.T) {
	c := NewCell(&scriptedRequester{bodies: []string{"Artemis II crew named"}}, headlineDescriptor())

	first := c.Fetch(context.Background())
	second := c.Fetch(context.Background())

	if diff := cmp.Diff(first.Data, second.Data); diff != "" {
		t.Errorf("view model changed between identical fetches (-first +second):\n%s", diff)
	}
	assert.Equal(t, uint64(2), second.Seq)
}

func TestCell_LastIssuedWins(t *testing.T) {
	gate := make(chan struct{})
	req := &scriptedRequester{
		bodies:  []string{"old", "new"},
		gates:   []chan struct{}{gate, nil},
		started: make(chan int, 2),
	}
	metrics := observability.NewMetricsForTesting()
	c := NewCell(req, headlineDescriptor(), WithMetrics(metrics))

	done := make(chan State[headline])
	go func() { done <- c.Fetch(context.Background()) }()
	require.Equal(t, 0, <-req.started)

	st := c.Fetch(context.Background())
	require.Equal(t, 1, <-req.started)
	assert.Equal(t, "new", st.Data.Title)

	close(gate)
	slow := <-done

	assert.Equal(t, "new", slow.Data.Title, "stale response must not overwrite newer state")
	assert.Equal(t, "new", c.State().Data.Title)
	assert.Equal(t, uint64(2), c.State().Seq)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.FetchDiscarded.WithLabelValues("headline", "stale")), 0)
}

func TestCell_LastResolvedWins(t *testing.T) {
	gate := make(chan struct{})
	req := &scriptedRequester{
		bodies:  []string{"old", "new"},
		gates:   []chan struct{}{gate, nil},
		started: make(chan int, 2),
	}
	c := NewCell(req, headlineDescriptor(), WithLastResolvedWins())

	done := make(chan State[headline])
	go func() { done <- c.Fetch(context.Background()) }()
	<-req.started

	c.Fetch(context.Background())
	<-req.started

	close(gate)
	<-done

	assert.Equal(t, "old", c.State().Data.Title)
}

func TestCell_CloseDropsInFlightResponse(t *testing.T) {
	req := &scriptedRequester{
		bodies:  []string{"late"},
		gates:   []chan struct{}{make(chan struct{})},
		started: make(chan int, 1),
	}
	metrics := observability.NewMetricsForTesting()
	c := NewCell(req, headlineDescriptor(), WithMetrics(metrics))
	rec := &recorder[headline]{}
	c.OnChange(rec.record)

	done := make(chan struct{})
	go func() {
		c.Fetch(context.Background())
		close(done)
	}()
	<-req.started
	before := rec.len()

	c.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not cancel the in-flight request")
	}
	assert.Equal(t, before, rec.len(), "no state change after close")
	assert.Equal(t, StatusLoading, c.State().Status)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.FetchDiscarded.WithLabelValues("headline", "closed")), 0)
}

func TestCell_FetchAfterCloseIsNoop(t *testing.T) {
	req := &scriptedRequester{bodies: []string{"x"}}
	c := NewCell(req, headlineDescriptor())
	c.Close()
	c.Close()

	st := c.Fetch(context.Background())

	assert.Equal(t, StatusIdle, st.Status)
	assert.Equal(t, 0, req.callCount())
}
