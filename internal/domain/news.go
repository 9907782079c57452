package domain

import (
	"regexp"
	"strings"
)

// DefaultArticleLimit is the number of news articles shown on the landing page.
const DefaultArticleLimit = 6

// Article is a Spaceflight News API story.
type Article struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	ImageURL    string `json:"image_url,omitempty"`
	NewsSite    string `json:"news_site"`
	PublishedAt string `json:"published_at"`
	URL         string `json:"url"`
}

// RecentEvent is one line of the generated recent space events list.
type RecentEvent struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MaxRecentEvents caps the recent events list.
const MaxRecentEvents = 3

// RecentEventsPrompt asks the generator for a numbered list.
const RecentEventsPrompt = "Give me the latest 3 space events, each in less than 5 words. Number each event (1., 2., 3.)"

// numberedLineRe matches "1. New Mars Rover" style lines.
var numberedLineRe = regexp.MustCompile(`^\d+\.\s*(.+)$`)

// DefaultRecentEvents is the placeholder list used when generation fails.
func DefaultRecentEvents() []RecentEvent {
	return []RecentEvent{
		{ID: 1, Name: "New Mars Rover"},
		{ID: 2, Name: "Lunar Mission"},
		{ID: 3, Name: "Asteroid Flyby"},
	}
}

type rawArticles struct {
	Results []struct {
		ID          int     `json:"id"`
		Title       *string `json:"title"`
		Summary     *string `json:"summary"`
		ImageURL    *string `json:"image_url"`
		NewsSite    *string `json:"news_site"`
		PublishedAt *string `json:"published_at"`
		URL         *string `json:"url"`
	} `json:"results"`
}

// NormalizeArticles converts a /v4/articles body.
func NormalizeArticles(body []byte) ([]Article, error) {
	var raw rawArticles
	if err := decode(body, &raw, "articles"); err != nil {
		return nil, err
	}
	out := make([]Article, 0, len(raw.Results))
	for _, r := range raw.Results {
		out = append(out, Article{
			ID:          r.ID,
			Title:       str(r.Title, notAvailable),
			Summary:     str(r.Summary, ""),
			ImageURL:    str(r.ImageURL, ""),
			NewsSite:    str(r.NewsSite, notAvailable),
			PublishedAt: str(r.PublishedAt, notAvailable),
			URL:         str(r.URL, ""),
		})
	}
	return out, nil
}

// ParseRecentEvents extracts up to three numbered lines from generated text.
// Each event's ID is its index among the non-blank lines. Blank text yields a
// copy of fallback; text without numbered lines yields an empty list.
func ParseRecentEvents(text string, fallback []RecentEvent) []RecentEvent {
	if strings.TrimSpace(text) == "" {
		out := make([]RecentEvent, len(fallback))
		copy(out, fallback)
		return out
	}

	events := []RecentEvent{}
	idx := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := numberedLineRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			events = append(events, RecentEvent{ID: idx, Name: strings.TrimSpace(m[1])})
			if len(events) == MaxRecentEvents {
				break
			}
		}
		idx++
	}
	return events
}
