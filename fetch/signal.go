package fetch

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

var (
	errAttemptDeadline = errors.New("attempt deadline exceeded")
	errSignalAborted   = errors.New("request aborted by signal")
)

// attemptScope is the cancellation scope of a single attempt. It merges
// the caller context, the optional request signal and the attempt
// deadline. The first cause to fire is the one reported.
type attemptScope struct {
	ctx     context.Context
	parent  context.Context
	cancel  context.CancelCauseFunc
	timeout time.Duration

	timer      *time.Timer
	stopSignal func() bool
	once       sync.Once
}

func newAttemptScope(parent, signal context.Context, timeout time.Duration, onTimeout func()) *attemptScope {
	ctx, cancel := context.WithCancelCause(parent)
	s := &attemptScope{ctx: ctx, parent: parent, cancel: cancel, timeout: timeout}

	if signal != nil {
		if signal.Err() != nil {
			cancel(errSignalAborted)
		} else {
			s.stopSignal = context.AfterFunc(signal, func() { cancel(errSignalAborted) })
		}
	}
	if timeout > 0 {
		s.timer = time.AfterFunc(timeout, func() {
			cancel(errAttemptDeadline)
			if onTimeout != nil && errors.Is(context.Cause(ctx), errAttemptDeadline) {
				onTimeout()
			}
		})
	}
	return s
}

// disarm stops the attempt deadline. Used once stream headers arrive.
func (s *attemptScope) disarm() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

// settle releases the timer, the signal hook and the context.
func (s *attemptScope) settle() {
	s.once.Do(func() {
		s.disarm()
		if s.stopSignal != nil {
			s.stopSignal()
		}
		s.cancel(context.Canceled)
	})
}

// classify maps a transport failure to the client error taxonomy based on
// what ended the attempt.
func (s *attemptScope) classify(message string, err error) error {
	cause := context.Cause(s.ctx)
	switch {
	case errors.Is(cause, errAttemptDeadline):
		return NewTimeoutError(message, s.timeout)
	case errors.Is(cause, errSignalAborted):
		return NewCancellationError(message, errSignalAborted)
	case s.parent.Err() != nil:
		return NewCancellationError(message, context.Cause(s.parent))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(message, s.timeout)
	}
	return NewTransportError(message, err)
}
