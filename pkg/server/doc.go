// Package server assembles the API-RALF gateway and runs its HTTP listener.
//
// New wires, in order: the logger, the backend registry, the tracer, the
// metrics collector, the dispatch journal (store, async recorder and prune
// scheduler), the failover dispatcher and the health checks. Start serves
// the routes below through the middleware chain and blocks until the
// context is cancelled, SIGINT/SIGTERM arrives or Stop is called:
//
//	POST /chat                      plain-text streamed reply
//	POST /v1/chat/completions       OpenAI-compatible reply, SSE when stream=true
//	GET  /backends                  health snapshot of every backend
//	POST /backends/{name}/reset     clear a backend's cooldown
//	GET  /dispatches                journal query
//	GET  /health, /ready, /version  probes
//	GET  /metrics                   Prometheus exposition
//	GET  /                          banner
//
// Usage:
//
//	cfg, err := config.LoadConfig("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv, err := server.New(cfg, server.WithConfigPath("config.yaml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// With a config path set, edits to the file are picked up by a watcher.
// Only the cooldown duration and the log level are reloaded; a changed
// backend list is logged and takes effect on restart.
//
// Shutdown stops accepting connections, waits up to
// proxy.shutdown_timeout for in-flight streams, then flushes the journal
// recorder, closes the store and the backends and flushes pending spans.
package server
