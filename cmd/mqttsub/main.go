// mqttsub - MQTT command-line subscriber
//
// mqttsub connects to one broker, subscribes to one or more topic filters
// and prints every received message to stdout as "topic: payload", one per
// line. Retained messages are prefixed with "(R) ". Lost connections are
// restored automatically, re-subscribing to the same filters.
//
// Diagnostics are written to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nerrad567/mqttsub/internal/delivery"
	"github.com/nerrad567/mqttsub/internal/infrastructure/config"
	"github.com/nerrad567/mqttsub/internal/infrastructure/logging"
	"github.com/nerrad567/mqttsub/internal/infrastructure/metrics"
	"github.com/nerrad567/mqttsub/internal/infrastructure/mqtt"
	"github.com/nerrad567/mqttsub/internal/session"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// engine is what run needs from the MQTT adapter.
type engine interface {
	session.Engine
	HealthCheck(ctx context.Context) error
	SetLogger(logger mqtt.Logger)
	Close() error
}

// engineFactory builds the MQTT adapter. Tests replace it with a fake.
type engineFactory func(cfg mqtt.EngineConfig) engine

func newMQTTEngine(cfg mqtt.EngineConfig) engine {
	return mqtt.NewEngine(cfg)
}

func main() {
	// Cancel on Ctrl+C or SIGTERM; the delivery loop then returns cleanly.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCmd(newMQTTEngine)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// newRootCmd builds the mqttsub command.
func newRootCmd(newEngine engineFactory) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "mqttsub --host <host> --topic <filter> [--topic <filter>...]",
		Short: "Subscribe to MQTT topics and print received messages",
		Long: `mqttsub subscribes to MQTT topic filters and prints each message as
"topic: payload" on its own line. Retained messages are prefixed with "(R) ".

The connection is restored automatically when it drops, re-subscribing to the
same filters. Every flag can also be set through an MQTTSUB_* environment
variable, e.g. MQTTSUB_BROKER_HOST or MQTTSUB_AUTH_PASSWORD.

Examples:
  mqttsub -H localhost -t 'sensors/#'
  mqttsub -H broker.example.com -p 8883 --tls -u reader -t a/+ -t b/#
  mqttsub -H localhost -t 'sensors/#' --format json --reconnect-strategy exponential`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				if errors.Is(err, config.ErrNoTopics) {
					return fmt.Errorf("%w (use --topic)", err)
				}
				return err
			}

			log := logging.New(cfg.Logging, version)
			return run(cmd.Context(), cfg, cmd.OutOrStdout(), log, newEngine)
		},
	}

	config.BindFlags(cmd, v)
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// run is the application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Cancelled on shutdown signals
//   - cfg: Validated configuration
//   - out: Destination for received messages
//   - log: Diagnostic logger
//   - newEngine: Builds the MQTT adapter
//
// Returns:
//   - error: nil on clean shutdown, or the fatal error
func run(ctx context.Context, cfg *config.Config, out io.Writer, log *logging.Logger, newEngine engineFactory) error {
	log.Info("starting mqttsub",
		"commit", commit,
		"build_date", date,
	)
	mqtt.SetLibraryLogger(log.Logger, log.IsDebug())

	sub, err := buildSubscription(cfg.Topics, cfg.QoS)
	if err != nil {
		return err
	}

	target, err := session.NewTarget(cfg.Broker.Host, cfg.Broker.Port)
	if err != nil {
		return err
	}

	identity := session.Identity(cfg.Broker.ClientID)
	if identity == "" {
		identity = session.NewIdentity()
	}

	format, err := delivery.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	sink, err := delivery.NewWriterSink(out, format)
	if err != nil {
		return err
	}

	eng := newEngine(mqtt.EngineConfig{
		TLS:      cfg.Broker.TLS,
		Username: cfg.Auth.Username,
		Password: cfg.Auth.Password,
	})
	eng.SetLogger(log.With("component", "mqtt"))
	defer func() {
		if closeErr := eng.Close(); closeErr != nil {
			log.Error("error closing MQTT connection", "error", closeErr)
		}
	}()

	sessionOpts := []session.Option{
		session.WithBackoff(buildBackoff(cfg.Reconnect)),
		session.WithLogger(log.With("component", "session")),
	}
	loopOpts := []delivery.LoopOption{
		delivery.WithLogger(log.With("component", "delivery")),
	}

	if cfg.Metrics.Addr != "" {
		m := metrics.New()
		srv, listenErr := metrics.Listen(cfg.Metrics.Addr, m, eng, log.With("component", "metrics"))
		if listenErr != nil {
			return listenErr
		}
		go srv.Serve(ctx)

		sessionOpts = append(sessionOpts, session.WithObserver(m))
		loopOpts = append(loopOpts, delivery.WithObserver(m))
	}

	mgr, err := session.New(eng, session.Config{
		Target:       target,
		Identity:     identity,
		Subscription: sub,
		CleanSession: cfg.Broker.CleanSession,
	}, sessionOpts...)
	if err != nil {
		return err
	}

	if err := mgr.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	log.Info("connected",
		"broker", target.Address(),
		"client_id", string(identity),
		"topics", sub.Topics(),
		"qos", cfg.QoS,
	)

	loop := delivery.NewLoop(mgr, sink, loopOpts...)
	if err := loop.Run(ctx); err != nil {
		return err
	}

	log.Info("shutting down")
	return nil
}

// buildSubscription applies qos to every filter, preserving order.
func buildSubscription(topics []string, qos int) (session.Subscription, error) {
	sub := make(session.Subscription, 0, len(topics))
	for _, topic := range topics {
		if err := mqtt.ValidateFilter(topic); err != nil {
			return nil, err
		}
		sub = append(sub, session.Filter{Topic: topic, QoS: byte(qos)})
	}
	return sub, nil
}

// buildBackoff selects the reconnect delay schedule.
func buildBackoff(cfg config.ReconnectConfig) session.Backoff {
	if cfg.Strategy == config.StrategyExponential {
		return session.NewExponentialBackoff(cfg.Delay, cfg.MaxDelay, exponentialJitter)
	}
	return session.ConstantBackoff{Delay: cfg.Delay}
}

// exponentialJitter spreads reconnects of many subscribers after a broker restart.
const exponentialJitter = 0.2
