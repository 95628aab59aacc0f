package deckpipe

import (
	"context"
	"time"
)

// Event is one structured pipeline event. Details hold small scalar facts
// (counts, durations, file names), never document text.
type Event struct {
	Type    string         `json:"type"`
	JobID   string         `json:"job_id"`
	Time    time.Time      `json:"time"`
	Success bool           `json:"success"`
	Details map[string]any `json:"details,omitempty"`
}

// Event types emitted over the life of one extraction job.
const (
	EventJobStarted         = "job_started"
	EventSlidesClassified   = "slides_classified"
	EventRedactionCompleted = "redaction_completed"
	EventRenderCompleted    = "render_completed"
	EventRenderFallback     = "render_fallback"
	EventJobCompleted       = "job_completed"
)

// EventSink receives pipeline events. Implementations must not block the
// pipeline: a failing sink logs and drops, it never propagates.
type EventSink interface {
	Event(ctx context.Context, ev Event)
}

type nopSink struct{}

func (nopSink) Event(context.Context, Event) {}

func (p *Pipeline) emit(ctx context.Context, jobID, typ string, success bool, details map[string]any) {
	p.events.Event(ctx, Event{
		Type:    typ,
		JobID:   jobID,
		Time:    time.Now(),
		Success: success,
		Details: details,
	})
}
