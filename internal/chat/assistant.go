// Package chat implements the space assistant: a local relevance filter in
// front of a text generator, with one serialized transcript per session.
package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/semaphore"

	"github.com/couchcryptid/galaxia/internal/observability"
)

// Fixed assistant replies.
const (
	OffTopicMessage = "⚠️ I can only answer questions related to space and galaxies."
	NoAnswerMessage = "I couldn't find an answer."
	FailureMessage  = "⚠️ Error: Unable to fetch response."
)

var (
	// ErrEmptyInput is returned for blank questions; nothing is appended.
	ErrEmptyInput = errors.New("empty input")
	// ErrBusy is returned while a previous question is still being answered.
	ErrBusy = errors.New("a response is already in progress")
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one transcript entry.
type Message struct {
	Text    string    `json:"text"`
	Sender  Sender    `json:"sender"`
	Warning bool      `json:"warning,omitempty"`
	Error   bool      `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// Generator produces a reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Option customises an Assistant.
type Option func(*Assistant)

// WithClock sets the clock used to timestamp messages.
func WithClock(c clockwork.Clock) Option {
	return func(a *Assistant) { a.clock = c }
}

// WithMetrics records message outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Assistant) { a.metrics = m }
}

// WithLogger sets the logger for generator failures.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// Assistant holds one conversation. Questions are answered one at a time.
type Assistant struct {
	gen     Generator
	filter  *RelevanceFilter
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger

	sem  *semaphore.Weighted
	busy atomic.Bool

	mu         sync.Mutex
	transcript []Message
}

// NewAssistant creates an assistant with an empty transcript.
func NewAssistant(gen Generator, filter *RelevanceFilter, opts ...Option) *Assistant {
	a := &Assistant{
		gen:    gen,
		filter: filter,
		clock:  clockwork.NewRealClock(),
		sem:    semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a
}

// Ask handles one question and returns the messages it appended.
//
// Off-topic input appends a single warning without calling the generator.
// On-topic input appends the question, calls the generator once and then
// appends exactly one reply.
func (a *Assistant) Ask(ctx context.Context, input string) ([]Message, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	if !a.sem.TryAcquire(1) {
		a.count("busy")
		return nil, ErrBusy
	}
	a.busy.Store(true)
	defer func() {
		a.busy.Store(false)
		a.sem.Release(1)
	}()

	if !a.filter.Relevant(input) {
		a.count("rejected")
		warn := Message{Text: OffTopicMessage, Sender: SenderBot, Warning: true, At: a.now()}
		a.append(warn)
		return []Message{warn}, nil
	}

	question := Message{Text: input, Sender: SenderUser, At: a.now()}
	a.append(question)

	reply := Message{Sender: SenderBot}
	text, err := a.gen.Generate(ctx, input)
	switch {
	case err != nil:
		a.logger.Warn("chat generation failed", "error", err)
		a.count("failed")
		reply.Text = FailureMessage
		reply.Error = true
	case strings.TrimSpace(text) == "":
		a.count("accepted")
		reply.Text = NoAnswerMessage
	default:
		a.count("accepted")
		reply.Text = text
	}
	reply.At = a.now()
	a.append(reply)
	return []Message{question, reply}, nil
}

// Busy reports whether a question is being answered.
func (a *Assistant) Busy() bool { return a.busy.Load() }

// Transcript returns a copy of the conversation so far.
func (a *Assistant) Transcript() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Message, len(a.transcript))
	copy(out, a.transcript)
	return out
}

func (a *Assistant) append(m Message) {
	a.mu.Lock()
	a.transcript = append(a.transcript, m)
	a.mu.Unlock()
}

func (a *Assistant) now() time.Time { return a.clock.Now().UTC() }

func (a *Assistant) count(outcome string) {
	if a.metrics != nil {
		a.metrics.ChatMessages.WithLabelValues(outcome).Inc()
	}
}
