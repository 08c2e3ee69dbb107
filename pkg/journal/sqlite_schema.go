package journal

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Timestamps are stored as unix milliseconds so both drivers read them back
// the same way.
const schema = `
CREATE TABLE IF NOT EXISTS dispatches (
    id TEXT PRIMARY KEY,
    request_id TEXT,
    started_at INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL,
    start_index INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    reason TEXT,
    backend TEXT,
    attempted TEXT NOT NULL,
    rate_limited TEXT NOT NULL,
    error TEXT,
    status_code INTEGER,
    duration_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dispatches_started_at ON dispatches(started_at);
CREATE INDEX IF NOT EXISTS idx_dispatches_backend ON dispatches(backend);
CREATE INDEX IF NOT EXISTS idx_dispatches_outcome ON dispatches(outcome);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

const (
	insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)`
	getSchemaVersion    = `SELECT MAX(version) FROM schema_version`
)

const recordColumns = `id, request_id, started_at, recorded_at, start_index, outcome, reason,
	backend, attempted, rate_limited, error, status_code, duration_ms`
