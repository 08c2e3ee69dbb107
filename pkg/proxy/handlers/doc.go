// Package handlers provides the HTTP handlers of the gateway.
//
// # Routes
//
//   - ChatHandler (POST /chat): plain chunked text stream
//   - CompletionsHandler (POST /v1/chat/completions): OpenAI-compatible,
//     SSE when stream is true, a single JSON completion otherwise
//   - BackendsHandler (GET /backends): rotation head, per-backend status and
//     cooldown remaining, dispatch counters
//   - ResetHandler (POST /backends/{name}/reset): operator cooldown clear
//   - DispatchesHandler (GET /dispatches): recent dispatch journal records
//   - IndexHandler (GET /): "API-RALF is running"
//
// Liveness, readiness, version and metrics are served by the telemetry
// packages.
//
// # Request Flow
//
// The chat handlers share one flow:
//
//  1. Reject anything but POST with a JSON 405
//  2. Parse and validate the body; a bad conversation is a 400 before any
//     backend is contacted
//  3. Dispatch through the routing.Dispatcher, which fails over across
//     rate-limited backends
//  4. Relay the winning stream chunk by chunk, or the fallback text when
//     every backend is cooling or busy (still a 200)
//  5. Record the outcome in metrics and on the request span
//
// A backend failure other than a rate limit is a 502 naming the backend. A
// failure after streaming started cannot change the status any more: SSE
// callers get an error event and the text stream simply ends.
package handlers
