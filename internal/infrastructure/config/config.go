package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override, e.g. MQTTSUB_BROKER_HOST.
const EnvPrefix = "MQTTSUB"

// Reconnect strategies.
const (
	StrategyFixed       = "fixed"
	StrategyExponential = "exponential"
)

// Config is the root configuration structure for mqttsub.
// Values come from command-line flags, then MQTTSUB_* environment variables, then defaults.
type Config struct {
	Broker    BrokerConfig    `mapstructure:"broker"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Topics    []string        `mapstructure:"topics"`
	QoS       int             `mapstructure:"qos"`
	Reconnect ReconnectConfig `mapstructure:"reconnect"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// BrokerConfig contains MQTT broker connection details.
type BrokerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	TLS          bool   `mapstructure:"tls"`
	ClientID     string `mapstructure:"client_id"`
	CleanSession bool   `mapstructure:"clean_session"`
}

// AuthConfig contains MQTT authentication credentials.
type AuthConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ReconnectConfig selects the delay schedule between reconnection attempts.
type ReconnectConfig struct {
	Strategy string        `mapstructure:"strategy"`
	Delay    time.Duration `mapstructure:"delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
}

// OutputConfig controls how received messages are written to stdout.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// LoggingConfig contains diagnostic logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is non-empty.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults configures defaults on a Viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("broker.host", "")
	v.SetDefault("broker.port", 1883)
	v.SetDefault("broker.tls", false)
	v.SetDefault("broker.client_id", "")
	v.SetDefault("broker.clean_session", true)
	v.SetDefault("auth.username", "")
	v.SetDefault("auth.password", "")
	v.SetDefault("topics", []string{})
	v.SetDefault("qos", 1)
	v.SetDefault("reconnect.strategy", StrategyFixed)
	v.SetDefault("reconnect.delay", time.Second)
	v.SetDefault("reconnect.max_delay", time.Minute)
	v.SetDefault("output.format", "text")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("metrics.addr", "")
}

// BindFlags registers the subscriber's flags on cmd and binds them to v.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.Flags()

	f.StringP("host", "H", "", "broker host name or address (required)")
	f.IntP("port", "p", 1883, "broker port")
	// Each --topic is one filter; commas are legal in MQTT topics.
	f.StringArrayP("topic", "t", nil, "topic filter to subscribe to (repeatable)")
	f.IntP("qos", "q", 1, "QoS for every topic filter (0, 1, 2)")
	f.String("client-id", "", "MQTT client identifier (default random UUID)")
	f.Bool("tls", false, "connect with TLS")
	f.Bool("clean-session", true, "start a clean session")
	f.StringP("username", "u", "", "broker username")
	f.String("password", "", "broker password (prefer MQTTSUB_AUTH_PASSWORD)")
	f.String("reconnect-strategy", StrategyFixed, "reconnect delay schedule (fixed, exponential)")
	f.Duration("reconnect-delay", time.Second, "delay between reconnection attempts")
	f.Duration("reconnect-max-delay", time.Minute, "delay cap for the exponential strategy")
	f.StringP("format", "f", "text", "output format (text, json, yaml)")
	f.String("log-level", "info", "log level (debug, info, warn, error)")
	f.String("log-format", "text", "log format (json, text)")
	f.String("metrics-addr", "", "Prometheus metrics listen address (disabled when empty)")

	_ = v.BindPFlag("broker.host", f.Lookup("host"))
	_ = v.BindPFlag("broker.port", f.Lookup("port"))
	_ = v.BindPFlag("topics", f.Lookup("topic"))
	_ = v.BindPFlag("qos", f.Lookup("qos"))
	_ = v.BindPFlag("broker.client_id", f.Lookup("client-id"))
	_ = v.BindPFlag("broker.tls", f.Lookup("tls"))
	_ = v.BindPFlag("broker.clean_session", f.Lookup("clean-session"))
	_ = v.BindPFlag("auth.username", f.Lookup("username"))
	_ = v.BindPFlag("auth.password", f.Lookup("password"))
	_ = v.BindPFlag("reconnect.strategy", f.Lookup("reconnect-strategy"))
	_ = v.BindPFlag("reconnect.delay", f.Lookup("reconnect-delay"))
	_ = v.BindPFlag("reconnect.max_delay", f.Lookup("reconnect-max-delay"))
	_ = v.BindPFlag("output.format", f.Lookup("format"))
	_ = v.BindPFlag("logging.level", f.Lookup("log-level"))
	_ = v.BindPFlag("logging.format", f.Lookup("log-format"))
	_ = v.BindPFlag("metrics.addr", f.Lookup("metrics-addr"))
}

// Load resolves the configuration from v and validates it.
//
// Environment variables follow the pattern MQTTSUB_SECTION_KEY,
// for example MQTTSUB_BROKER_HOST or MQTTSUB_RECONNECT_DELAY.
// MQTTSUB_TOPICS takes a comma-separated list, while each --topic value is
// one filter even when it contains a comma.
//
// Parameters:
//   - v: Viper instance with flags already bound
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: ErrNoTopics, or ErrInvalidConfig describing every problem found
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.Topics = compact(cfg.Topics)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
//
// A missing topic list is reported on its own as ErrNoTopics so callers can
// treat it as a usage error; everything else is collected into one
// ErrInvalidConfig.
func (c *Config) Validate() error {
	if len(c.Topics) == 0 {
		return ErrNoTopics
	}

	var errs []string

	if strings.TrimSpace(c.Broker.Host) == "" {
		errs = append(errs, "broker.host is required")
	}
	if c.Broker.Port < 1 || c.Broker.Port > 65535 {
		errs = append(errs, "broker.port must be between 1 and 65535")
	}
	if c.QoS < 0 || c.QoS > 2 {
		errs = append(errs, "qos must be 0, 1, or 2")
	}

	switch c.Reconnect.Strategy {
	case StrategyFixed:
		if c.Reconnect.Delay < 0 {
			errs = append(errs, "reconnect.delay must not be negative")
		}
	case StrategyExponential:
		if c.Reconnect.Delay <= 0 {
			errs = append(errs, "reconnect.delay must be positive for the exponential strategy")
		}
		if c.Reconnect.MaxDelay < c.Reconnect.Delay {
			errs = append(errs, "reconnect.max_delay must not be less than reconnect.delay")
		}
	default:
		errs = append(errs, fmt.Sprintf("reconnect.strategy %q must be %s or %s",
			c.Reconnect.Strategy, StrategyFixed, StrategyExponential))
	}

	switch strings.ToLower(c.Output.Format) {
	case "text", "json", "yaml":
	default:
		errs = append(errs, fmt.Sprintf("output.format %q must be text, json, or yaml", c.Output.Format))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q must be text or json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

// compact drops blank entries, which an empty MQTTSUB_TOPICS would otherwise produce.
func compact(topics []string) []string {
	out := topics[:0]
	for _, t := range topics {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
