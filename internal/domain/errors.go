package domain

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var (
	// ErrMalformed marks an upstream body that could not be decoded at all.
	// Missing optional fields are not errors; they fall back to defaults.
	ErrMalformed = errors.New("malformed upstream response")

	// ErrInvalid marks caller input that failed validation.
	ErrInvalid = errors.New("invalid input")
)

// decode unmarshals body into v, tagging failures with ErrMalformed.
func decode(body []byte, v any, what string) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w: %w", what, ErrMalformed, err)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
