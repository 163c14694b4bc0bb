package session

import (
	"context"
	"fmt"
	"time"
)

// Engine is the protocol engine the session is built on.
//
// Implementations own framing, acknowledgement and transport. Messages must
// return the same channel for the engine's whole lifetime, and it must be
// available before the first Connect so nothing received during the
// handshake is missed.
type Engine interface {
	// Connect performs the initial handshake.
	Connect(ctx context.Context, target Target, identity Identity, cleanSession bool) error

	// Subscribe submits all filters in one request. If any filter is
	// rejected the whole call fails.
	Subscribe(ctx context.Context, sub Subscription) error

	// Reconnect re-establishes the transport with the same target and identity.
	Reconnect(ctx context.Context) error

	// Messages returns the inbound signal stream.
	Messages() <-chan Signal
}

// Logger is the logging interface used by the Manager.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Observer receives session lifecycle events. Used for metrics.
type Observer interface {
	StateChanged(state State)
	ReconnectAttempt(attempt int, err error)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopObserver struct{}

func (noopObserver) StateChanged(State)          {}
func (noopObserver) ReconnectAttempt(int, error) {}

// Config holds everything the Manager needs to establish a session.
type Config struct {
	Target       Target
	Identity     Identity
	Subscription Subscription
	CleanSession bool
}

// Option customises a Manager.
type Option func(*Manager)

// WithBackoff sets the reconnect delay strategy. Default: ConstantBackoff{1000ms}.
func WithBackoff(b Backoff) Option {
	return func(m *Manager) {
		if b != nil {
			m.backoff = b
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithSleep replaces the wait between reconnect attempts.
// The function must return ctx.Err() if ctx is done before d elapses.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Manager) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// Manager establishes and restores a session against one broker.
//
// Whenever State() is StateConnected the broker holds exactly the
// subscription supplied to New.
type Manager struct {
	engine       Engine
	target       Target
	identity     Identity
	subscription Subscription
	cleanSession bool

	backoff  Backoff
	logger   Logger
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error

	state State
}

// New validates cfg and returns a Manager in StateDisconnected.
// No network activity happens here.
//
// Returns:
//   - *Manager: Ready for Connect
//   - error: ErrNilEngine, ErrInvalidTarget, ErrInvalidIdentity,
//     ErrNoSubscriptions or ErrInvalidFilter
func New(engine Engine, cfg Config, opts ...Option) (*Manager, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if cfg.Target.host == "" || cfg.Target.port == 0 {
		return nil, fmt.Errorf("%w: target not initialised", ErrInvalidTarget)
	}
	if cfg.Identity == "" {
		return nil, ErrInvalidIdentity
	}
	if err := cfg.Subscription.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		engine:       engine,
		target:       cfg.Target,
		identity:     cfg.Identity,
		subscription: cfg.Subscription.clone(),
		cleanSession: cfg.CleanSession,
		backoff:      ConstantBackoff{Delay: DefaultReconnectDelay},
		logger:       noopLogger{},
		observer:     noopObserver{},
		sleep:        sleepContext,
		state:        StateDisconnected,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Connect performs the initial handshake and subscribe.
//
// On failure the Manager returns to StateDisconnected and the error wraps
// ErrFirstConnect. The caller is expected to terminate; nothing is retried.
func (m *Manager) Connect(ctx context.Context) error {
	if m.state != StateDisconnected {
		return fmt.Errorf("%w: connect from %s", ErrInvalidState, m.state)
	}
	m.setState(StateConnecting)

	m.logger.Info("connecting to broker",
		"broker", m.target.Address(),
		"client_id", string(m.identity),
	)
	if err := m.engine.Connect(ctx, m.target, m.identity, m.cleanSession); err != nil {
		m.setState(StateDisconnected)
		return fmt.Errorf("%w: %w", ErrFirstConnect, err)
	}

	m.logger.Info("subscribing to topics", "topics", m.subscription.Topics())
	if err := m.engine.Subscribe(ctx, m.subscription.clone()); err != nil {
		m.setState(StateDisconnected)
		return fmt.Errorf("%w: %w", ErrFirstConnect, err)
	}

	m.setState(StateConnected)
	return nil
}

// Reconnect restores the session after the delivery loop saw a disconnect.
//
// It retries forever, waiting backoff.NextDelay(attempt) between failures,
// and re-issues the original subscription after every successful transport
// reconnect. The only error returned is ctx's, in which case the Manager is
// left in StateDisconnected.
func (m *Manager) Reconnect(ctx context.Context) error {
	if m.state != StateConnected && m.state != StateReconnecting {
		return fmt.Errorf("%w: reconnect from %s", ErrInvalidState, m.state)
	}
	m.setState(StateReconnecting)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			m.setState(StateDisconnected)
			return err
		}

		err := m.attempt(ctx)
		m.observer.ReconnectAttempt(attempt, err)
		if err == nil {
			m.logger.Info("session restored",
				"broker", m.target.Address(),
				"attempts", attempt,
			)
			m.setState(StateConnected)
			return nil
		}

		delay := m.backoff.NextDelay(attempt)
		m.logger.Warn("error reconnecting",
			"error", err,
			"attempt", attempt,
			"retry_in", delay,
		)
		if err := m.sleep(ctx, delay); err != nil {
			m.setState(StateDisconnected)
			return err
		}
	}
}

// attempt runs one reconnect + resubscribe cycle.
func (m *Manager) attempt(ctx context.Context) error {
	if err := m.engine.Reconnect(ctx); err != nil {
		return err
	}
	// Engines may or may not restore subscriptions from a persisted
	// session; always re-issue them.
	if err := m.engine.Subscribe(ctx, m.subscription.clone()); err != nil {
		return fmt.Errorf("resubscribe: %w", err)
	}
	return nil
}

// Messages returns the engine's inbound stream.
func (m *Manager) Messages() <-chan Signal {
	return m.engine.Messages()
}

// State returns the current lifecycle state.
func (m *Manager) State() State { return m.state }

// Target returns the broker endpoint.
func (m *Manager) Target() Target { return m.target }

// Identity returns the client identity.
func (m *Manager) Identity() Identity { return m.identity }

// Subscription returns a copy of the configured subscription.
func (m *Manager) Subscription() Subscription { return m.subscription.clone() }

func (m *Manager) setState(s State) {
	m.state = s
	m.observer.StateChanged(s)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
