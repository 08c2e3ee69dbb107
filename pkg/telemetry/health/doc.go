// Package health provides liveness, readiness and version endpoints.
//
// Liveness always answers 200 while the process runs. Readiness runs the
// registered checks concurrently, each bounded by telemetry.health.check_timeout,
// and answers 503 ("degraded") if a required check fails. The gateway registers:
//
//   - backends (required): fails while every backend is in cooldown
//   - journal (optional): pings the dispatch journal store when it is enabled
//
// Usage:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("backends", health.BackendsCheck(dispatcher))
//	checker.RegisterOptionalCheck("journal", health.PingCheck("journal", store))
//	health.Register(mux, checker, cfg.Telemetry.Health, health.NewVersionInfo(version, commit, date))
package health
