package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pitchsafe/pitchdeck/deckpipe"
)

// EventLogger writes pipeline events to the observability database.
// It implements deckpipe.EventSink.
type EventLogger struct {
	db *sql.DB
}

// NewEventLogger creates a logger backed by the given events database.
func NewEventLogger(db *sql.DB) *EventLogger {
	return &EventLogger{db: db}
}

// Event records one pipeline event. Errors are logged via slog but never
// propagate: a failing event store must not block the pipeline.
func (l *EventLogger) Event(ctx context.Context, ev deckpipe.Event) {
	var details []byte
	if len(ev.Details) > 0 {
		details, _ = json.Marshal(ev.Details)
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO pipeline_events (event_id, event_type, job_id, success, details, created_at)
		VALUES (?,?,?,?,?,?)`,
		"evt_"+uuid.Must(uuid.NewV7()).String(),
		ev.Type, ev.JobID, ev.Success, string(details), ev.Time.Unix())
	if err != nil {
		slog.Error("pipeline event log failed", "error", err, "event_type", ev.Type)
	}
}

// Cleanup deletes events older than the retention window. Zero or negative
// days means no cleanup.
func Cleanup(ctx context.Context, db *sql.DB, days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -days).Unix()
	_, err := db.ExecContext(ctx,
		`DELETE FROM pipeline_events WHERE created_at < ?`, cutoff)
	return err
}

// LogSink mirrors pipeline events onto a slog logger, for deployments that
// want events in the log stream instead of (or next to) the database.
type LogSink struct {
	Logger *slog.Logger
}

// Event logs one pipeline event at info level (warn when unsuccessful).
func (s LogSink) Event(_ context.Context, ev deckpipe.Event) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"job", ev.JobID}
	for k, v := range ev.Details {
		attrs = append(attrs, k, v)
	}
	if ev.Success {
		logger.Info(ev.Type, attrs...)
	} else {
		logger.Warn(ev.Type, attrs...)
	}
}

// Multi fans one event out to several sinks.
type Multi []deckpipe.EventSink

// Event delivers the event to every sink in order.
func (m Multi) Event(ctx context.Context, ev deckpipe.Event) {
	for _, s := range m {
		s.Event(ctx, ev)
	}
}
