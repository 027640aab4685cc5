// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// ErrorKind classifies failures surfaced by the client.
type ErrorKind string

const (
	// KindNone means no error.
	KindNone ErrorKind = ""

	// KindInvalidNumericInput marks filter text that is not a number. It is
	// resolved locally by treating the field as absent.
	KindInvalidNumericInput ErrorKind = "invalid_numeric_input"

	// KindNetworkFailure marks transport-level failures.
	KindNetworkFailure ErrorKind = "network_failure"

	// KindBadResponse marks non-2xx statuses and undecodable bodies.
	KindBadResponse ErrorKind = "bad_response"
)

var (
	ErrInvalidNumericInput = errors.New("invalid numeric input")
	ErrNetworkFailure      = errors.New("network failure")
	ErrBadResponse         = errors.New("bad response")
)

// KindOf maps err onto an ErrorKind. Errors that wrap none of the sentinel
// errors are reported as network failures.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidNumericInput):
		return KindInvalidNumericInput
	case errors.Is(err, ErrBadResponse):
		return KindBadResponse
	default:
		return KindNetworkFailure
	}
}
