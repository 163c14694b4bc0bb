// Package session owns the logical MQTT session of the subscriber.
//
// This package manages:
//   - The connect + subscribe handshake against one broker endpoint
//   - The reconnect state machine (Disconnected, Connecting, Connected, Reconnecting)
//   - Re-establishing the exact same subscription set after every reconnect
//   - Pluggable retry delays between failed reconnect attempts
//
// The wire protocol is delegated to an Engine. The infrastructure/mqtt
// package provides the paho-backed implementation.
//
// # State Machine
//
//	Disconnected --Connect--> Connecting --ok--> Connected
//	Connecting --fail (first attempt)--> Disconnected (ErrFirstConnect, fatal)
//	Connected --Reconnect--> Reconnecting --ok--> Connected
//	Reconnecting --fail--> Reconnecting (log, wait NextDelay, retry forever)
//
// A first-connect failure is never retried: there is no session worth
// preserving yet, and a bad host would otherwise loop without signal.
//
// # Concurrency
//
// A Manager is driven from a single flow of control (the delivery loop).
// Its state is not guarded by locks and must not be shared.
//
// # Usage
//
//	mgr, err := session.New(engine, session.Config{
//	    Target:       target,
//	    Identity:     session.NewIdentity(),
//	    Subscription: session.Subscription{{Topic: "sensors/+", QoS: 1}},
//	    CleanSession: true,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := mgr.Connect(ctx); err != nil {
//	    return err // fatal
//	}
package session
