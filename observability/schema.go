package observability

// Schema is the DDL for the pipeline event log. Idempotent; applied by Open
// or embeddable in a caller's own schema management.
const Schema = `
CREATE TABLE IF NOT EXISTS pipeline_events (
    event_id   TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    job_id     TEXT NOT NULL,
    success    INTEGER NOT NULL,
    details    TEXT,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pipeline_events_job
    ON pipeline_events(job_id, created_at);
CREATE INDEX IF NOT EXISTS idx_pipeline_events_type_time
    ON pipeline_events(event_type, created_at DESC);
`
