// Package genai talks to the Gemini generateContent endpoint. It backs the
// chat assistant, the recent events widget and the ISS explainer texts.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/fetch"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// ErrNoAPIKey is returned when no Gemini key is configured.
var ErrNoAPIKey = errors.New("gemini api key not configured")

// Client generates text with one Gemini model.
type Client struct {
	requester upstream.Requester
	model     string
	apiKey    string
}

// NewClient creates a client. An empty apiKey makes every call fail without
// a network request.
func NewClient(r upstream.Requester, model, apiKey string) *Client {
	return &Client{requester: r, model: model, apiKey: apiKey}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content *content `json:"content"`
	} `json:"candidates"`
}

// Request builds the generateContent call for prompt.
func (c *Client) Request(prompt string) (upstream.Request, error) {
	if c.apiKey == "" {
		return upstream.Request{}, ErrNoAPIKey
	}
	return upstream.Request{
		Method: "POST",
		Path:   "/models/" + url.PathEscape(c.model) + ":generateContent",
		Header: map[string]string{"x-goog-api-key": c.apiKey},
		Body:   generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}},
	}, nil
}

// Generate sends prompt and returns the first candidate's text. A reply
// with no text is returned as an empty string.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req, err := c.Request(prompt)
	if err != nil {
		return "", err
	}
	body, err := c.requester.Do(ctx, req)
	if err != nil {
		return "", err
	}
	return ParseText(body)
}

// Do forwards to the underlying requester so the client can back cells
// built from its own descriptors.
func (c *Client) Do(ctx context.Context, req upstream.Request) ([]byte, error) {
	return c.requester.Do(ctx, req)
}

// ParseText extracts candidates[0].content.parts[0].text.
func ParseText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode generate response: %w: %w", domain.ErrMalformed, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), nil
}

// Text describes a one-shot prompt as a cell resource.
func (c *Client) Text(source, prompt string) fetch.Descriptor[string] {
	return fetch.Descriptor[string]{
		Source:    source,
		Request:   func() (upstream.Request, error) { return c.Request(prompt) },
		Normalize: ParseText,
	}
}

// RecentEvents describes the generated recent space events widget. Failures
// show the default list as a placeholder.
func (c *Client) RecentEvents() fetch.Descriptor[[]domain.RecentEvent] {
	return fetch.Descriptor[[]domain.RecentEvent]{
		Source:  "recent events",
		Request: func() (upstream.Request, error) { return c.Request(domain.RecentEventsPrompt) },
		Normalize: func(body []byte) ([]domain.RecentEvent, error) {
			text, err := ParseText(body)
			if err != nil {
				return nil, err
			}
			return domain.ParseRecentEvents(text, domain.DefaultRecentEvents()), nil
		},
		Fallback:       domain.DefaultRecentEvents,
		FailureMessage: "Failed to fetch space events.",
	}
}
