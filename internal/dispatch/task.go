package dispatch

import (
	"context"
	"time"

	"github.com/raysh454/formfetch/internal/webclient"
)

// Result is the outcome of one dispatch.
type Result struct {
	// Text is what was (or would have been) written to the sink.
	Text string

	// Err is nil on success. Non-2xx responses are successes.
	Err error

	// StatusCode is 0 when no response arrived.
	StatusCode int

	Request *webclient.Request

	// Written reports whether Text reached the sink.
	Written bool

	// Stale reports that a newer dispatch to the same target superseded
	// this one before it completed.
	Stale bool

	// WriteErr is the sink's error, if writing failed.
	WriteErr error

	EndedAt time.Time
}

// Task is a handle to one in-flight dispatch.
type Task struct {
	ID        string
	Method    string
	Target    string
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

// Done is closed once the task has finished, written and notified observers.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Cancel aborts the request. A canceled task does not write to its sink.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Result returns the result if the task has finished.
func (t *Task) Result() (Result, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return Result{}, false
	}
}
