package core

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuery         = errors.New("query is empty")
	ErrNothingToSave      = errors.New("no query or response to save")
	ErrSaveFailed         = errors.New("failed to save query")
	ErrMalformedReply     = errors.New("reply does not match the expected format")
	ErrNoClearResponse    = errors.New("model returned no usable content")
	ErrNotAdmin           = errors.New("admin role required")
	ErrInvalidSource      = errors.New("source needs a name and an absolute http(s) url")
	ErrSourceNotFound     = errors.New("source not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAuthFallback       = errors.New("sign-in failed, using a local identifier")
)

// LimitError reports that the daily quota is exhausted. No remote call is
// made once it is returned.
type LimitError struct {
	Count int
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("daily query limit reached: %d/%d", e.Count, e.Limit)
}
