package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/mqttsub/internal/session"
)

// Engine wraps paho.mqtt.golang and implements session.Engine.
//
// Thread Safety:
//   - Connect, Subscribe, Reconnect and Close may be called from any goroutine,
//     but the session manager drives them from a single flow.
//   - paho callbacks append to an unbounded queue and never block; a single
//     forwarding goroutine moves queued signals onto the channel in order.
type Engine struct {
	cfg     EngineConfig
	signals chan session.Signal
	done    chan struct{}

	// pending holds signals not yet accepted by the channel.
	pending   []session.Signal
	pendingMu sync.Mutex
	wake      chan struct{}

	closeOnce sync.Once

	client pahomqtt.Client
	mu     sync.RWMutex

	// logger for error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// NewEngine creates an engine. The inbound stream is available immediately;
// no network activity happens until Connect. Close stops the forwarding
// goroutine.
func NewEngine(cfg EngineConfig) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:     cfg,
		signals: make(chan session.Signal, cfg.BufferSize),
		done:    make(chan struct{}),
		wake:    make(chan struct{}, 1),
	}
	go e.forward()
	return e
}

// Messages implements session.Engine.
func (e *Engine) Messages() <-chan session.Signal {
	return e.signals
}

// Connect implements session.Engine.
//
// It builds a paho client for target and identity and waits for the CONNACK
// (bounded by EngineConfig.ConnectTimeout) or for ctx.
//
// Returns:
//   - error: ErrAlreadyConnected, ErrClosed, or ErrConnectionFailed wrapping the cause
func (e *Engine) Connect(ctx context.Context, target session.Target, identity session.Identity, cleanSession bool) error {
	if e.isClosed() {
		return ErrClosed
	}

	if e.current() != nil {
		return ErrAlreadyConnected
	}

	opts := buildClientOptions(e.cfg, target, identity, cleanSession)

	// Messages for routes not registered yet (persistent sessions) still reach the stream.
	opts.SetDefaultPublishHandler(e.handleMessage)

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		e.enqueue(session.DisconnectedSignal{Err: err})
	})

	client := pahomqtt.NewClient(opts)
	if err := waitToken(ctx, client.Connect()); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	e.mu.Lock()
	e.client = client
	e.mu.Unlock()
	return nil
}

// Reconnect implements session.Engine.
//
// It re-runs the handshake on the existing paho client, which keeps the
// same broker URL and client identity. If the transport is already open
// it returns nil.
func (e *Engine) Reconnect(ctx context.Context) error {
	if e.isClosed() {
		return ErrClosed
	}

	client := e.current()
	if client == nil {
		return ErrNotConnected
	}
	if client.IsConnectionOpen() {
		return nil
	}

	if err := waitToken(ctx, client.Connect()); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

// IsConnected reports whether the transport is currently open.
func (e *Engine) IsConnected() bool {
	client := e.current()
	return client != nil && client.IsConnectionOpen()
}

// HealthCheck verifies the MQTT connection is alive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (e *Engine) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !e.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// Close disconnects from the broker and stops feeding the signal stream.
// It is safe to call more than once.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)

		if client := e.current(); client != nil && client.IsConnected() {
			client.Disconnect(defaultDisconnectQuiesce)
		}
	})
	return nil
}

// SetLogger sets a logger for error and panic logging.
// If not set, errors in handlers are silently ignored.
func (e *Engine) SetLogger(logger Logger) {
	e.loggerMu.Lock()
	e.logger = logger
	e.loggerMu.Unlock()
}

func (e *Engine) getLogger() Logger {
	e.loggerMu.RLock()
	defer e.loggerMu.RUnlock()
	return e.logger
}

func (e *Engine) current() pahomqtt.Client {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.client
}

func (e *Engine) isClosed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// enqueue queues sig for the stream without blocking. paho runs handlers on
// the goroutine that also reads SUBACKs, so blocking here while the session
// waits for a SUBACK would stall both. Signals after Close are dropped.
func (e *Engine) enqueue(sig session.Signal) {
	if e.isClosed() {
		return
	}

	e.pendingMu.Lock()
	e.pending = append(e.pending, sig)
	e.pendingMu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// forward moves queued signals onto the channel in arrival order until Close.
func (e *Engine) forward() {
	for {
		sig, ok := e.next()
		if !ok {
			select {
			case <-e.wake:
				continue
			case <-e.done:
				return
			}
		}

		select {
		case e.signals <- sig:
		case <-e.done:
			return
		}
	}
}

// next pops the oldest queued signal.
func (e *Engine) next() (session.Signal, bool) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()

	if len(e.pending) == 0 {
		e.pending = nil
		return nil, false
	}
	sig := e.pending[0]
	e.pending[0] = nil
	e.pending = e.pending[1:]
	return sig, true
}

// backlog reports how many signals are queued behind the channel.
func (e *Engine) backlog() int {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	return len(e.pending)
}

// handleMessage converts a paho message into a MessageSignal, with panic recovery.
func (e *Engine) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	defer func() {
		if r := recover(); r != nil {
			if logger := e.getLogger(); logger != nil {
				logger.Error("MQTT handler panic recovered",
					"topic", msg.Topic(),
					"panic", r,
				)
			}
		}
	}()

	e.enqueue(session.MessageSignal{Message: toMessage(msg)})
}

// toMessage copies the fields the subscriber needs out of a paho message.
func toMessage(msg pahomqtt.Message) session.Message {
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())
	return session.Message{
		Topic:    msg.Topic(),
		Payload:  payload,
		Retained: msg.Retained(),
		QoS:      msg.Qos(),
	}
}

// waitToken blocks until tok completes or ctx is done.
func waitToken(ctx context.Context, tok pahomqtt.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
