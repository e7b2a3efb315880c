package oura

import "fmt"

// ErrorKind classifies provider failures so handlers and the coach can
// react to them without string matching.
type ErrorKind int

const (
	// KindProvider covers transport failures and any unclassified non-2xx.
	KindProvider ErrorKind = iota
	// KindDataUnavailable means the provider returned zero records for the
	// requested window. The ring was likely not worn or not synced.
	KindDataUnavailable
	// KindAuth means the access token was rejected as invalid or expired.
	KindAuth
	// KindRateLimited means the provider reported quota exhaustion.
	KindRateLimited
)

// APIError is the typed failure surfaced by every Client method.
type APIError struct {
	Kind       ErrorKind
	StatusCode int // provider HTTP status, 0 for network-level failures
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("oura: %s (status %d)", e.Message, e.StatusCode)
	}
	return "oura: " + e.Message
}

func dataUnavailable(day string) *APIError {
	return &APIError{
		Kind:    KindDataUnavailable,
		Message: fmt.Sprintf("no data available on %s, check the Oura app to see if the ring is synced", day),
	}
}
