package session

import (
	"fmt"
	"net"
	"strconv"

	"github.com/google/uuid"
)

// maxQoS is the highest MQTT delivery level.
const maxQoS = 2

// Target identifies the broker endpoint. It is immutable after construction.
type Target struct {
	host string
	port int
}

// NewTarget validates host and port and returns a Target.
//
// Returns:
//   - Target: The broker endpoint
//   - error: ErrInvalidTarget if host is empty or port is outside 1..65535
func NewTarget(host string, port int) (Target, error) {
	if host == "" {
		return Target{}, fmt.Errorf("%w: host is required", ErrInvalidTarget)
	}
	if port < 1 || port > 65535 {
		return Target{}, fmt.Errorf("%w: port %d must be between 1 and 65535", ErrInvalidTarget, port)
	}
	return Target{host: host, port: port}, nil
}

// Host returns the broker host name or address.
func (t Target) Host() string { return t.host }

// Port returns the broker TCP port.
func (t Target) Port() int { return t.port }

// Address returns the broker address in host:port form (IPv6 hosts are bracketed).
func (t Target) Address() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

// String implements fmt.Stringer.
func (t Target) String() string { return t.Address() }

// Identity is the MQTT client identifier, stable for the lifetime of the process.
// The broker correlates session state across reconnects by this value.
type Identity string

// NewIdentity generates a random (UUIDv4) client identity.
func NewIdentity() Identity {
	return Identity(uuid.New().String())
}

// Filter is a single topic filter and the delivery level requested for it.
type Filter struct {
	Topic string
	QoS   byte
}

// Subscription is the ordered set of filters sent in one subscribe request.
type Subscription []Filter

// Validate checks that the subscription is non-empty and every filter is well formed.
func (s Subscription) Validate() error {
	if len(s) == 0 {
		return ErrNoSubscriptions
	}
	for i, f := range s {
		if f.Topic == "" {
			return fmt.Errorf("%w: filter %d has an empty topic", ErrInvalidFilter, i)
		}
		if f.QoS > maxQoS {
			return fmt.Errorf("%w: filter %q has QoS %d (must be 0, 1, or 2)", ErrInvalidFilter, f.Topic, f.QoS)
		}
	}
	return nil
}

// Topics returns the topic filters in subscription order.
func (s Subscription) Topics() []string {
	topics := make([]string, len(s))
	for i, f := range s {
		topics[i] = f.Topic
	}
	return topics
}

// clone returns a copy that shares no backing array with s.
func (s Subscription) clone() Subscription {
	out := make(Subscription, len(s))
	copy(out, s)
	return out
}

// Message is an inbound publish as handed over by the engine.
// It is consumed once by the delivery loop and then discarded.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
	QoS      byte
}

// String renders the message as "topic: payload".
func (m Message) String() string {
	return m.Topic + ": " + string(m.Payload)
}

// Signal is an item of the engine's inbound stream.
// It is either a MessageSignal or a DisconnectedSignal; consumers should
// use an exhaustive type switch.
type Signal interface {
	signal()
}

// MessageSignal carries an inbound message.
type MessageSignal struct {
	Message Message
}

// DisconnectedSignal reports that the transport dropped. It is a sentinel,
// not an error: the session must be recovered before further signals arrive.
type DisconnectedSignal struct {
	// Err is the cause reported by the engine, if any.
	Err error
}

func (MessageSignal) signal()      {}
func (DisconnectedSignal) signal() {}
