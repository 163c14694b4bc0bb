// Package mqtt provides the paho-backed protocol engine for the subscriber.
//
// This package manages:
//   - Connection to the broker (tcp:// or ssl://) with a fixed client identity
//   - One atomic multi-filter subscribe per session, with per-filter SUBACK checks
//   - Manual reconnection on the same paho client (paho auto-reconnect is off;
//     the session manager owns recovery)
//   - Translation of inbound publishes and connection loss into session.Signal
//     values on a single channel
//
// # Architecture
//
//	session.Manager → Engine → paho.mqtt.golang → Broker
//	delivery.Loop ← Engine.Messages() ← paho router
//
// The signal channel is created by NewEngine, before the first Connect, so
// nothing delivered during the handshake window is lost.
//
// # Security Considerations
//
//   - TLS (EngineConfig.TLS) uses TLS 1.2 as the minimum version
//   - Credentials are sent only when a username is configured
//   - Payloads are not inspected or logged
//
// # Performance Characteristics
//
//   - Handlers run in order on paho's router goroutine and only append to an
//     in-memory queue, so a backlog of stored messages on a persistent
//     session never holds up the SUBACK
//   - A forwarding goroutine feeds the signal channel (25 entries by default)
//     from that queue in arrival order
//
// # Usage
//
//	engine := mqtt.NewEngine(mqtt.EngineConfig{TLS: false})
//	defer engine.Close()
//
//	mgr, err := session.New(engine, sessionCfg)
//	...
//	for sig := range engine.Messages() { ... }
package mqtt
