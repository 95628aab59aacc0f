package deckpipe

import "github.com/pitchsafe/pitchdeck/deck"

// SlideRecord is the output unit for one visual slide. SlideNumber is the
// slide's ordinal in the original document, never compacted. ImagePath is
// the screenshot file name inside the job directory, or "" when rendering
// failed or ran in text-only fallback; the text fields are always populated
// (possibly empty), never dropped.
type SlideRecord struct {
	SlideNumber int    `json:"slide_number"`
	Title       string `json:"title"`
	TextContent string `json:"text_content"`
	Notes       string `json:"notes"`
	ImagePath   string `json:"image_path,omitempty"`
}

// Result is the outcome of one extraction job.
type Result struct {
	JobID   string        `json:"job_id"`
	Summary deck.Summary  `json:"summary"`
	Slides  []SlideRecord `json:"slides"`

	// TextOnly is set when the screenshot stage failed and the job
	// degraded to text metadata without images.
	TextOnly bool `json:"text_only,omitempty"`

	// RedactionWarnings lists non-fatal clearing failures from the
	// text-free copy, when one was produced.
	RedactionWarnings []string `json:"redaction_warnings,omitempty"`
}

// Options tunes a single extraction call.
type Options struct {
	// ForceInclude lists slide ordinals to retain regardless of visual
	// classification. Out-of-range ordinals are ignored.
	ForceInclude []int
}
