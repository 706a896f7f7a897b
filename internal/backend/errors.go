package backend

import (
	"errors"
	"fmt"
)

// ErrBadURL is returned for a backend URL that cannot be used.
var ErrBadURL = errors.New("invalid backend url")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.Code)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Body)
}
