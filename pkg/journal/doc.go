// Package journal records the outcome of every dispatch as an audit trail.
//
// Records are written asynchronously by a Recorder, which plugs into the
// dispatcher as a routing.Observer, into a Store. Two stores exist: an
// in-memory ring for development and a SQLite store for persistence. The
// SQLite store runs on either github.com/mattn/go-sqlite3 (driver "sqlite3",
// cgo) or modernc.org/sqlite (driver "sqlite", pure Go).
//
// A Pruner removes records by age and by count, and a Scheduler runs it on a
// cron expression.
//
// The journal is write-only from the router's point of view. Cooldown state
// is never restored from it.
package journal
