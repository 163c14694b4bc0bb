package delivery

import (
	"context"
	"fmt"

	"github.com/nerrad567/mqttsub/internal/session"
)

// Session is the part of the session manager the loop depends on.
type Session interface {
	Messages() <-chan session.Signal
	Reconnect(ctx context.Context) error
}

// Sink receives decoded messages.
type Sink interface {
	Write(msg session.Message) error
}

// Logger is the logging interface used by the loop.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Observer is notified for every message written to the sink.
type Observer interface {
	MessageDelivered(msg session.Message)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

type noopObserver struct{}

func (noopObserver) MessageDelivered(session.Message) {}

// LoopOption customises a Loop.
type LoopOption func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(l Logger) LoopOption {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithObserver sets the delivery observer.
func WithObserver(o Observer) LoopOption {
	return func(lp *Loop) {
		if o != nil {
			lp.observer = o
		}
	}
}

// Loop routes stream signals to the sink and to session recovery.
type Loop struct {
	session  Session
	sink     Sink
	logger   Logger
	observer Observer
}

// NewLoop creates a delivery loop.
func NewLoop(s Session, sink Sink, opts ...LoopOption) *Loop {
	l := &Loop{
		session:  s,
		sink:     sink,
		logger:   noopLogger{},
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run drains the stream until ctx is cancelled.
//
// Returns:
//   - nil: ctx was cancelled (graceful termination)
//   - ErrSinkWrite: a message could not be written
//   - ErrStreamClosed: the engine closed the stream
func (l *Loop) Run(ctx context.Context) error {
	stream := l.session.Messages()
	l.logger.Info("waiting for messages")

	for {
		var sig session.Signal
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case sig, ok = <-stream:
		}
		if !ok {
			return ErrStreamClosed
		}

		switch s := sig.(type) {
		case session.MessageSignal:
			if err := l.sink.Write(s.Message); err != nil {
				return fmt.Errorf("%w: %w", ErrSinkWrite, err)
			}
			l.observer.MessageDelivered(s.Message)

		case session.DisconnectedSignal:
			l.logger.Warn("lost connection, attempting reconnect", "error", s.Err)
			if err := l.session.Reconnect(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("reconnect: %w", err)
			}
		}
	}
}
