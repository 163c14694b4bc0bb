// Package metrics exports subscriber counters over Prometheus.
//
// The endpoint is optional and only started when --metrics-addr is set.
//
//	/metrics   Prometheus text exposition from a private registry
//	/healthz   200 while the broker connection is open, 503 otherwise
//
// Usage:
//
//	m := metrics.New()
//	srv, err := metrics.Listen(cfg.Metrics.Addr, m, engine, logger)
//	go srv.Serve(ctx)
//
// Pass m to session.WithObserver and delivery.WithObserver.
package metrics
