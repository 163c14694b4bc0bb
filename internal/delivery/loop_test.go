package delivery

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/mqttsub/internal/session"
)

// fakeSession feeds a scripted stream; onReconnect runs inside Reconnect.
type fakeSession struct {
	stream         chan session.Signal
	reconnectCalls int
	reconnectErr   error
	onReconnect    func()
}

func newFakeSession() *fakeSession {
	return &fakeSession{stream: make(chan session.Signal, 16)}
}

func (f *fakeSession) Messages() <-chan session.Signal { return f.stream }

func (f *fakeSession) Reconnect(_ context.Context) error {
	f.reconnectCalls++
	if f.onReconnect != nil {
		f.onReconnect()
	}
	return f.reconnectErr
}

// captureSink records messages and cancels once want messages arrived.
type captureSink struct {
	got    []session.Message
	want   int
	cancel context.CancelFunc
	err    error
}

func (c *captureSink) Write(m session.Message) error {
	if c.err != nil {
		return c.err
	}
	c.got = append(c.got, m)
	if len(c.got) == c.want && c.cancel != nil {
		c.cancel()
	}
	return nil
}

type countingObserver struct{ n int }

func (o *countingObserver) MessageDelivered(session.Message) { o.n++ }

func msg(topic, payload string) session.MessageSignal {
	return session.MessageSignal{Message: session.Message{Topic: topic, Payload: []byte(payload), QoS: 1}}
}

func runWithTimeout(t *testing.T, l *Loop, ctx context.Context) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not return")
		return nil
	}
}

func TestRun_DeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newFakeSession()
	sink := &captureSink{want: 3, cancel: cancel}
	obs := &countingObserver{}

	s.stream <- msg("a", "1")
	s.stream <- msg("b", "2")
	s.stream <- msg("c", "3")

	if err := runWithTimeout(t, NewLoop(s, sink, WithObserver(obs)), ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(sink.got) != 3 {
		t.Fatalf("delivered %d messages, want 3", len(sink.got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if sink.got[i].Topic != want {
			t.Errorf("message %d topic = %q, want %q", i, sink.got[i].Topic, want)
		}
	}
	if obs.n != 3 {
		t.Errorf("observer saw %d messages, want 3", obs.n)
	}
	if s.reconnectCalls != 0 {
		t.Errorf("Reconnect() called %d times, want 0", s.reconnectCalls)
	}
}

func TestRun_DisconnectTriggersReconnectThenResumes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newFakeSession()
	sink := &captureSink{want: 2, cancel: cancel}

	// The post-recovery message only exists once Reconnect resolves.
	s.onReconnect = func() {
		s.stream <- msg("after", "x")
	}
	s.stream <- msg("before", "x")
	s.stream <- session.DisconnectedSignal{Err: errors.New("EOF")}

	if err := runWithTimeout(t, NewLoop(s, sink), ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if s.reconnectCalls != 1 {
		t.Errorf("Reconnect() called %d times, want 1", s.reconnectCalls)
	}
	if len(sink.got) != 2 {
		t.Fatalf("delivered %d messages, want each exactly once (2)", len(sink.got))
	}
	if sink.got[0].Topic != "before" || sink.got[1].Topic != "after" {
		t.Errorf("delivered %q then %q, want before then after", sink.got[0].Topic, sink.got[1].Topic)
	}
}

func TestRun_SinkFailureIsFatal(t *testing.T) {
	s := newFakeSession()
	sink := &captureSink{err: errors.New("broken pipe")}
	s.stream <- msg("a", "1")

	if err := runWithTimeout(t, NewLoop(s, sink), context.Background()); !errors.Is(err, ErrSinkWrite) {
		t.Errorf("Run() error = %v, want ErrSinkWrite", err)
	}
}

func TestRun_ClosedStream(t *testing.T) {
	s := newFakeSession()
	close(s.stream)

	if err := runWithTimeout(t, NewLoop(s, &captureSink{}), context.Background()); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Run() error = %v, want ErrStreamClosed", err)
	}
}

func TestRun_CancelledDuringReconnectIsGraceful(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newFakeSession()
	s.reconnectErr = context.Canceled
	s.onReconnect = cancel
	s.stream <- session.DisconnectedSignal{}

	if err := runWithTimeout(t, NewLoop(s, &captureSink{}), ctx); err != nil {
		t.Errorf("Run() error = %v, want nil on shutdown", err)
	}
}

func TestRun_TextScenario(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf bytes.Buffer
	ws, err := NewWriterSink(&buf, FormatText)
	if err != nil {
		t.Fatalf("NewWriterSink() error = %v", err)
	}

	s := newFakeSession()
	s.stream <- session.MessageSignal{Message: session.Message{
		Topic:   "sensors/temp",
		Payload: []byte("21.5"),
		QoS:     1,
	}}

	loop := NewLoop(s, sinkFunc(func(m session.Message) error {
		defer cancel()
		return ws.Write(m)
	}))
	if err := runWithTimeout(t, loop, ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got, want := buf.String(), "sensors/temp: 21.5\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

type sinkFunc func(session.Message) error

func (f sinkFunc) Write(m session.Message) error { return f(m) }
