package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when an upstream answers with a non-2xx status.
type StatusError struct {
	Source string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API error: status %d", e.Source, e.Code)
	}
	return fmt.Sprintf("%s API error: status %d: %s", e.Source, e.Code, e.Body)
}

// IsNotFound reports whether err carries an upstream 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
