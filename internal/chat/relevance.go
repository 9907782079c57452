package chat

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var embeddedVocabulary []byte

// Vocabulary is the allow-list a question must touch to be answered.
type Vocabulary struct {
	Keywords []string `yaml:"keywords"`
	Phrases  []string `yaml:"phrases"`
}

// Keywords shorter than minTypoLen only match exactly or inflected; from
// wideTypoLen on, two edits are tolerated instead of one.
const (
	minTypoLen  = 7
	wideTypoLen = 9
)

// inflections are the endings a keyword may carry and still match.
var inflections = []string{"s", "es", "ed", "ing", "er", "ers"}

// RelevanceFilter decides locally whether input is on topic.
type RelevanceFilter struct {
	keywords []string
	phrases  []string
}

// NewRelevanceFilter builds a filter from a vocabulary. Entries are
// lower-cased and blank entries dropped.
func NewRelevanceFilter(v Vocabulary) (*RelevanceFilter, error) {
	f := &RelevanceFilter{
		keywords: normalizeEntries(v.Keywords),
		phrases:  normalizeEntries(v.Phrases),
	}
	if len(f.keywords) == 0 && len(f.phrases) == 0 {
		return nil, errors.New("vocabulary is empty")
	}
	return f, nil
}

// LoadRelevanceFilter reads a YAML vocabulary from path, or the built-in
// vocabulary when path is empty.
func LoadRelevanceFilter(path string) (*RelevanceFilter, error) {
	data := embeddedVocabulary
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading vocabulary file: %w", err)
		}
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing vocabulary file: %w", err)
	}
	return NewRelevanceFilter(v)
}

// DefaultRelevanceFilter returns the filter for the built-in vocabulary.
func DefaultRelevanceFilter() *RelevanceFilter {
	f, err := LoadRelevanceFilter("")
	if err != nil {
		panic("chat: embedded vocabulary: " + err.Error())
	}
	return f
}

// Relevant reports whether any phrase appears in input or any word of input
// matches a keyword.
func (f *RelevanceFilter) Relevant(input string) bool {
	text := strings.ToLower(input)
	for _, p := range f.phrases {
		if strings.Contains(text, p) {
			return true
		}
	}

	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	for _, w := range words {
		for _, kw := range f.keywords {
			if wordMatches(w, kw) {
				return true
			}
		}
	}
	return false
}

// wordMatches allows exact hits, the keyword with an inflectional ending,
// and one typo for keywords of minTypoLen letters or two from wideTypoLen.
func wordMatches(word, kw string) bool {
	if word == kw {
		return true
	}
	if rest, ok := strings.CutPrefix(word, kw); ok && slices.Contains(inflections, rest) {
		return true
	}
	if len(kw) < minTypoLen {
		return false
	}
	tolerance := 1
	if len(kw) >= wideTypoLen {
		tolerance = 2
	}
	return levenshtein.ComputeDistance(word, kw) <= tolerance
}

func normalizeEntries(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
