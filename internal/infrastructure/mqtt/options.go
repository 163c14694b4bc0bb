package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/mqttsub/internal/session"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time paho waits for a CONNACK.
	defaultConnectTimeout = 10 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// defaultBufferSize is the capacity of the inbound signal channel.
	defaultBufferSize = 25

	// protocolVersion311 selects MQTT 3.1.1.
	protocolVersion311 = 4

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// subackFailure is the SUBACK return code for a refused filter.
	subackFailure = 0x80

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// EngineConfig holds transport settings that are not part of the session identity.
type EngineConfig struct {
	// TLS selects ssl:// instead of tcp://.
	TLS bool

	// Username and Password are sent only when Username is non-empty.
	Username string
	Password string

	// KeepAlive is the MQTT keepalive interval. Default: 60s.
	KeepAlive time.Duration

	// ConnectTimeout bounds each handshake. Default: 10s.
	ConnectTimeout time.Duration

	// BufferSize is the signal channel capacity. Default: 25.
	BufferSize int
}

// withDefaults fills zero values.
func (c EngineConfig) withDefaults() EngineConfig {
	if c.KeepAlive <= 0 {
		c.KeepAlive = defaultKeepAlive
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	return c
}

// brokerURL returns the paho broker URL for target.
func brokerURL(target session.Target, useTLS bool) string {
	scheme := "tcp"
	if useTLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s", scheme, target.Address())
}

// buildClientOptions creates paho MQTT options for one session.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - Clean session mode as requested by the session manager
//   - Auto-reconnect disabled (recovery is driven by the session manager)
//   - Ordered, sequential message handler invocation
func buildClientOptions(cfg EngineConfig, target session.Target, id session.Identity, cleanSession bool) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(brokerURL(target, cfg.TLS))
	opts.SetClientID(string(id))
	opts.SetProtocolVersion(protocolVersion311)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(cleanSession)

	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	opts.SetOrderMatters(true)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetKeepAlive(cfg.KeepAlive)

	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}
