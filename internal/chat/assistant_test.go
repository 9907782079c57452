package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/galaxia/internal/observability"
)

type mockGenerator struct {
	calls atomic.Int32
	reply string
	err   error
	gate  chan struct{}
}

func (m *mockGenerator) Generate(ctx context.Context, _ string) (string, error) {
	m.calls.Add(1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.reply, m.err
}

var testTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestAssistant(gen Generator, metrics *observability.Metrics) *Assistant {
	return NewAssistant(gen, DefaultRelevanceFilter(),
		WithClock(clockwork.NewFakeClockAt(testTime)),
		WithMetrics(metrics),
	)
}

func TestAsk_OffTopicNeverCallsGenerator(t *testing.T) {
	gen := &mockGenerator{reply: "irrelevant"}
	metrics := observability.NewMetricsForTesting()
	a := newTestAssistant(gen, metrics)

	msgs, err := a.Ask(context.Background(), "what's the weather tomorrow")
	require.NoError(t, err)

	assert.Zero(t, gen.calls.Load())
	require.Len(t, msgs, 1)
	assert.Equal(t, Message{Text: OffTopicMessage, Sender: SenderBot, Warning: true, At: testTime}, msgs[0])
	assert.Equal(t, msgs, a.Transcript())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ChatMessages.WithLabelValues("rejected")), 0)
}

func TestAsk_OnTopicCallsGeneratorOnce(t *testing.T) {
	gen := &mockGenerator{reply: "Jupiter is the largest planet."}
	metrics := observability.NewMetricsForTesting()
	a := newTestAssistant(gen, metrics)

	msgs, err := a.Ask(context.Background(), "  tell me about Jupiter ")
	require.NoError(t, err)

	assert.Equal(t, int32(1), gen.calls.Load())
	require.Len(t, msgs, 2)
	assert.Equal(t, Message{Text: "tell me about Jupiter", Sender: SenderUser, At: testTime}, msgs[0])
	assert.Equal(t, Message{Text: "Jupiter is the largest planet.", Sender: SenderBot, At: testTime}, msgs[1])
	assert.Equal(t, msgs, a.Transcript())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ChatMessages.WithLabelValues("accepted")), 0)
}

func TestAsk_GeneratorFailureAppendsOneError(t *testing.T) {
	gen := &mockGenerator{err: errors.New("503 from upstream")}
	metrics := observability.NewMetricsForTesting()
	a := newTestAssistant(gen, metrics)

	msgs, err := a.Ask(context.Background(), "how hot is venus")
	require.NoError(t, err)

	require.Len(t, msgs, 2)
	assert.Equal(t, SenderUser, msgs[0].Sender)
	assert.Equal(t, FailureMessage, msgs[1].Text)
	assert.True(t, msgs[1].Error)
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ChatMessages.WithLabelValues("failed")), 0)
}

func TestAsk_EmptyReply(t *testing.T) {
	a := newTestAssistant(&mockGenerator{reply: "  "}, nil)

	msgs, err := a.Ask(context.Background(), "what is a nebula")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, NoAnswerMessage, msgs[1].Text)
	assert.False(t, msgs[1].Error)
}

func TestAsk_EmptyInput(t *testing.T) {
	gen := &mockGenerator{}
	a := newTestAssistant(gen, nil)

	_, err := a.Ask(context.Background(), " \t ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, a.Transcript())
	assert.Zero(t, gen.calls.Load())
}

func TestAsk_SerializesQuestions(t *testing.T) {
	gen := &mockGenerator{reply: "Mars has two moons.", gate: make(chan struct{})}
	metrics := observability.NewMetricsForTesting()
	a := newTestAssistant(gen, metrics)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := a.Ask(context.Background(), "how many moons does mars have")
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool { return gen.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, a.Busy())

	_, err := a.Ask(context.Background(), "what about jupiter")
	assert.ErrorIs(t, err, ErrBusy)

	close(gen.gate)
	wg.Wait()

	assert.False(t, a.Busy())
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Len(t, a.Transcript(), 2)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ChatMessages.WithLabelValues("busy")), 0)

	_, err = a.Ask(context.Background(), "what about jupiter")
	assert.NoError(t, err)
	assert.Len(t, a.Transcript(), 4)
}

func TestAsk_ReplyOrdering(t *testing.T) {
	a := newTestAssistant(&mockGenerator{reply: "ok"}, nil)

	for _, q := range []string{"tell me about saturn", "what's for dinner", "what is a comet"} {
		_, err := a.Ask(context.Background(), q)
		require.NoError(t, err)
	}

	senders := make([]Sender, 0)
	for _, m := range a.Transcript() {
		senders = append(senders, m.Sender)
	}
	assert.Equal(t, []Sender{SenderUser, SenderBot, SenderBot, SenderUser, SenderBot}, senders)
}
