package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSymbol marks an unrecognized ticker shape. Not retried.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrDataUnavailable means both remote sources failed and no cache exists.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInsufficientData means the synced series is too short to forecast from.
	ErrInsufficientData = errors.New("insufficient history")

	// ErrModelCallFailed is propagated from the forecasting model collaborator.
	ErrModelCallFailed = errors.New("model call failed")
)

// DataUnavailableError carries the list of instruments for which cached data
// does exist, so the caller can suggest alternatives.
type DataUnavailableError struct {
	Symbol    string
	Available []string
}

func (e *DataUnavailableError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("no data for %s from any source", e.Symbol)
	}
	head := e.Available
	if len(head) > 10 {
		head = head[:10]
	}
	return fmt.Sprintf("no data for %s from any source; cached symbols include: %s",
		e.Symbol, strings.Join(head, ", "))
}

func (e *DataUnavailableError) Unwrap() error { return ErrDataUnavailable }
