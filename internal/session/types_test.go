package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewTarget(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		port    int
		want    string
		wantErr bool
	}{
		{name: "hostname", host: "localhost", port: 1883, want: "localhost:1883"},
		{name: "ipv4", host: "10.0.0.5", port: 8883, want: "10.0.0.5:8883"},
		{name: "ipv6", host: "::1", port: 1883, want: "[::1]:1883"},
		{name: "max port", host: "broker", port: 65535, want: "broker:65535"},
		{name: "empty host", host: "", port: 1883, wantErr: true},
		{name: "port zero", host: "broker", port: 0, wantErr: true},
		{name: "port too large", host: "broker", port: 65536, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := NewTarget(tt.host, tt.port)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTarget) {
					t.Errorf("NewTarget() error = %v, want ErrInvalidTarget", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTarget() error = %v", err)
			}
			if got := target.Address(); got != tt.want {
				t.Errorf("Address() = %q, want %q", got, tt.want)
			}
			if target.Host() != tt.host || target.Port() != tt.port {
				t.Errorf("Host()/Port() = %q/%d, want %q/%d", target.Host(), target.Port(), tt.host, tt.port)
			}
		})
	}
}

func TestNewIdentity(t *testing.T) {
	a := NewIdentity()
	b := NewIdentity()

	if a == b {
		t.Errorf("NewIdentity() returned %q twice", a)
	}
	if _, err := uuid.Parse(string(a)); err != nil {
		t.Errorf("NewIdentity() = %q, not a UUID: %v", a, err)
	}
}

func TestSubscription_Topics(t *testing.T) {
	sub := Subscription{{Topic: "b", QoS: 1}, {Topic: "a", QoS: 0}}
	got := sub.Topics()
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("Topics() = %v, want [b a]", got)
	}
}

func TestMessage_String(t *testing.T) {
	m := Message{Topic: "sensors/temp", Payload: []byte("21.5"), QoS: 1}
	if got := m.String(); got != "sensors/temp: 21.5" {
		t.Errorf("String() = %q, want %q", got, "sensors/temp: 21.5")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateReconnecting, "reconnecting"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestConstantBackoff(t *testing.T) {
	b := ConstantBackoff{Delay: DefaultReconnectDelay}
	for attempt := 1; attempt <= 10; attempt++ {
		if got := b.NextDelay(attempt); got != DefaultReconnectDelay {
			t.Errorf("NextDelay(%d) = %v, want %v", attempt, got, DefaultReconnectDelay)
		}
	}
}

func TestExponentialBackoff_ResetsOnFirstAttempt(t *testing.T) {
	b := NewExponentialBackoff(DefaultReconnectDelay, 4*DefaultReconnectDelay, 0)

	steps := []struct {
		attempt int
		want    time.Duration
	}{
		{1, DefaultReconnectDelay},
		{2, 2 * DefaultReconnectDelay},
		{3, 4 * DefaultReconnectDelay},
		{4, 4 * DefaultReconnectDelay},
		// A new outage starts again from the initial delay.
		{1, DefaultReconnectDelay},
	}

	for _, st := range steps {
		if got := b.NextDelay(st.attempt); got != st.want {
			t.Errorf("NextDelay(%d) = %v, want %v", st.attempt, got, st.want)
		}
	}
}
