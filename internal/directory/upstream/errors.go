package upstream

import (
	"errors"
	"fmt"
)

// Outcome is the normalized classification of one upstream call.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"

	// OutcomeNotFound means the upstream answered 404, or answered a
	// single-entity read with an empty payload.
	OutcomeNotFound Outcome = "not_found"

	// OutcomeRateLimited means the upstream answered 429. Nothing else
	// produces it.
	OutcomeRateLimited Outcome = "rate_limited"

	// OutcomeClientError covers every other 4xx.
	OutcomeClientError Outcome = "client_error"

	// OutcomeTransport covers network failures, 5xx and malformed payloads.
	OutcomeTransport Outcome = "transport_error"
)

// Op names an upstream operation for logs, metrics and errors.
type Op string

const (
	OpFetchAll  Op = "fetch_all"
	OpFetchByID Op = "fetch_by_id"
	OpCreate    Op = "create"
	OpDelete    Op = "delete"
)

// Error is returned by every failed gateway call.
type Error struct {
	Op      Op
	Outcome Outcome
	Status  int // HTTP status, 0 when no response was received
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("upstream %s [%s]", e.Op, e.Outcome)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op Op, outcome Outcome, status int, err error) *Error {
	return &Error{Op: op, Outcome: outcome, Status: status, Err: err}
}

// Classify extracts the outcome carried by err. A nil error is a success; an
// error that did not come from the gateway is a transport failure.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Outcome
	}
	return OutcomeTransport
}

// IsRateLimited reports whether err is a rate-limit rejection.
func IsRateLimited(err error) bool {
	return Classify(err) == OutcomeRateLimited
}

// IsNotFound reports whether err is a not-found answer.
func IsNotFound(err error) bool {
	return Classify(err) == OutcomeNotFound
}

var (
	errEmptyPayload   = errors.New("empty payload")
	errMalformedReply = errors.New("malformed response envelope")
)
