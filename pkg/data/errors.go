package data

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Every one of these aborts the current run.
var (
	ErrMalformedState       = errors.New("malformed state")
	ErrConsistencyViolation = errors.New("consistency violation")
	ErrUpstreamFailure      = errors.New("upstream failure")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrLocalIO              = errors.New("local io failure")
)

// ErrTitleLocked means another process holds the title root.
var ErrTitleLocked = errors.New("title is locked by another run")

// ConsistencyError lists chapter directories that exist on disk without a
// matching record.
type ConsistencyError struct {
	Root    string
	Indices []int
}

func (e *ConsistencyError) Error() string {
	parts := make([]string, len(e.Indices))
	for i, idx := range e.Indices {
		parts[i] = strconv.Itoa(idx)
	}
	return fmt.Sprintf("%s: %s has chapter directories without records: %s",
		ErrConsistencyViolation, e.Root, strings.Join(parts, ", "))
}

func (e *ConsistencyError) Unwrap() error {
	return ErrConsistencyViolation
}
