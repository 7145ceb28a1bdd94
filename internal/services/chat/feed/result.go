package feed

import (
	"context"
	"errors"

	"github.com/louisbranch/chatfeed/internal/services/chat/source"
)

// State describes how one read resolved.
type State string

const (
	// StateFresh means the read was served from a current cache entry.
	StateFresh State = "fresh"
	// StateFetched means the read went to the backend and succeeded.
	StateFetched State = "fetched"
	// StateFailed means the read produced no usable list.
	StateFailed State = "failed"
)

// Failure names why a read failed.
type Failure string

const (
	FailureNone      Failure = ""
	FailureTransport Failure = "transport"
	FailureStatus    Failure = "status"
	FailureDecode    Failure = "decode"
	FailureCanceled  Failure = "canceled"
)

// Result is the explicit outcome of a read.
type Result struct {
	Messages []source.Message
	State    State
	Failure  Failure
	Err      error
}

// OK reports whether the read produced a list.
func (r Result) OK() bool {
	return r.State == StateFresh || r.State == StateFetched
}

func failed(err error) Result {
	return Result{
		Messages: []source.Message{},
		State:    StateFailed,
		Failure:  classify(err),
		Err:      err,
	}
}

func classify(err error) Failure {
	var statusErr *source.StatusError
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	case errors.As(err, &statusErr):
		return FailureStatus
	case errors.Is(err, source.ErrDecode):
		return FailureDecode
	default:
		return FailureTransport
	}
}
