package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/mqttsub/internal/session"
)

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }

type discardLogger struct{}

func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}

func TestMessageDelivered(t *testing.T) {
	m := New()

	m.MessageDelivered(session.Message{Topic: "a", Payload: []byte("21.5")})
	m.MessageDelivered(session.Message{Topic: "a", Payload: []byte("on"), Retained: true})
	m.MessageDelivered(session.Message{Topic: "b", Payload: []byte("x")})

	if got := testutil.ToFloat64(m.MessagesReceived.WithLabelValues("false")); got != 2 {
		t.Errorf("messages{retained=false} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.MessagesReceived.WithLabelValues("true")); got != 1 {
		t.Errorf("messages{retained=true} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PayloadBytes); got != 7 {
		t.Errorf("payload bytes = %v, want 7", got)
	}
}

func TestSessionObserver(t *testing.T) {
	m := New()

	m.StateChanged(session.StateReconnecting)
	if got := testutil.ToFloat64(m.SessionState); got != 3 {
		t.Errorf("session state = %v, want 3", got)
	}
	m.StateChanged(session.StateConnected)
	if got := testutil.ToFloat64(m.SessionState); got != 2 {
		t.Errorf("session state = %v, want 2", got)
	}

	m.ReconnectAttempt(1, errors.New("refused"))
	m.ReconnectAttempt(2, errors.New("refused"))
	m.ReconnectAttempt(3, nil)

	if got := testutil.ToFloat64(m.ReconnectAttempts.WithLabelValues("failure")); got != 2 {
		t.Errorf("reconnects{result=failure} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ReconnectAttempts.WithLabelValues("success")); got != 1 {
		t.Errorf("reconnects{result=success} = %v, want 1", got)
	}
}

func TestRegistryGather(t *testing.T) {
	m := New()
	m.MessageDelivered(session.Message{Payload: []byte("x")})
	m.ReconnectAttempt(1, nil)

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"mqttsub_messages_received_total",
		"mqttsub_payload_bytes_total",
		"mqttsub_reconnect_attempts_total",
		"mqttsub_session_state",
	} {
		if !names[want] {
			t.Errorf("metric %q not registered", want)
		}
	}
}

func TestListen_InvalidAddr(t *testing.T) {
	if _, err := Listen("not-an-address", New(), fakeHealth{}, discardLogger{}); err == nil {
		t.Error("Listen() expected error for invalid address, got nil")
	}
}

func TestServerEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		health     error
		wantStatus int
	}{
		{name: "healthy", health: nil, wantStatus: http.StatusOK},
		{name: "not connected", health: errors.New("not connected"), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			m.MessageDelivered(session.Message{Payload: []byte("abc")})

			srv, err := Listen("127.0.0.1:0", m, fakeHealth{err: tt.health}, discardLogger{})
			if err != nil {
				t.Fatalf("Listen() error = %v", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				srv.Serve(ctx)
				close(done)
			}()
			defer func() {
				cancel()
				select {
				case <-done:
				case <-time.After(5 * time.Second):
					t.Error("Serve() did not return after cancel")
				}
			}()

			base := "http://" + srv.Addr().String()

			resp, err := http.Get(base + "/healthz")
			if err != nil {
				t.Fatalf("GET /healthz error = %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("GET /healthz status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			resp, err = http.Get(base + "/metrics")
			if err != nil {
				t.Fatalf("GET /metrics error = %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("GET /metrics status = %d, want 200", resp.StatusCode)
			}
			if !strings.Contains(string(body), "mqttsub_payload_bytes_total 3") {
				t.Errorf("/metrics body missing payload counter:\n%s", body)
			}
		})
	}
}

type panicHealth struct{}

func (panicHealth) HealthCheck(context.Context) error { panic("boom") }

func TestRouter_RecoversPanics(t *testing.T) {
	s := &Server{metrics: New(), health: panicHealth{}, logger: discardLogger{}}

	rec := httptest.NewRecorder()
	s.buildRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	s := &Server{metrics: New(), health: fakeHealth{}, logger: discardLogger{}}

	rec := httptest.NewRecorder()
	s.buildRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
