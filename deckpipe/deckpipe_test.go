package deckpipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/pitchsafe/pitchdeck/deck/decktest"
	"github.com/pitchsafe/pitchdeck/render"
)

// fakeShots replaces the redact/convert/rasterize chain so pipeline tests
// need neither an office suite nor a PDF renderer.
type fakeShots struct {
	err      error
	warnings []string

	mu    sync.Mutex
	calls [][]int
}

func (f *fakeShots) Screenshots(ctx context.Context, srcPath string, keep []int, outDir string) ([]string, []string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]int(nil), keep...))
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.warnings, f.err
	}
	var images []string
	for _, ordinal := range keep {
		p := filepath.Join(outDir, fmt.Sprintf("slide_%d.png", ordinal))
		if err := os.WriteFile(p, []byte("png"), 0o644); err != nil {
			return nil, nil, err
		}
		images = append(images, p)
	}
	return images, f.warnings, nil
}

// memSink collects events in order.
type memSink struct {
	mu     sync.Mutex
	events []Event
}

func (m *memSink) Event(ctx context.Context, e Event) {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
}

func (m *memSink) byType(t *testing.T, typ string) Event {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.Type == typ {
			return e
		}
	}
	t.Fatalf("no %s event recorded", typ)
	return Event{}
}

func (m *memSink) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

func mixedDeck(t *testing.T, dir string) string {
	t.Helper()
	src := filepath.Join(dir, "pitch.pptx")
	decktest.Write(t, src,
		decktest.Slide{Shapes: []string{ // 1: visual
			decktest.Title("Architecture"),
			decktest.Picture(),
		}, Notes: "walk through the diagram"},
		decktest.Slide{Shapes: []string{ // 2: visual
			decktest.Chart(),
		}},
		decktest.Slide{Shapes: []string{ // 3: text-only
			decktest.Title("Agenda"),
			decktest.Body("Intro\nDemo\nQ&A"),
		}},
		decktest.Slide{Shapes: []string{ // 4: visual
			decktest.Table([][]string{{"Region", "Growth"}, {"EMEA", "12%"}}),
		}},
		decktest.Slide{Shapes: []string{ // 5: visual
			decktest.FilledRect("Thank you"),
		}},
	)
	return src
}

func newTestPipeline(shots *fakeShots, sink EventSink) *Pipeline {
	p := New(Config{Events: sink})
	p.shots = shots
	return p
}

func TestExtractMapsImagesToRecords(t *testing.T) {
	dir := t.TempDir()
	src := mixedDeck(t, dir)
	outDir := filepath.Join(dir, "out")

	shots := &fakeShots{}
	sink := &memSink{}
	pipe := newTestPipeline(shots, sink)

	res, err := pipe.Extract(context.Background(), src, outDir, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.TextOnly {
		t.Fatal("TextOnly set on a successful run")
	}
	if res.Summary.SlideCount != 5 {
		t.Fatalf("SlideCount = %d, want 5", res.Summary.SlideCount)
	}

	wantOrdinals := []int{1, 2, 4, 5}
	if len(res.Slides) != len(wantOrdinals) {
		t.Fatalf("got %d records, want %d", len(res.Slides), len(wantOrdinals))
	}
	for i, rec := range res.Slides {
		if rec.SlideNumber != wantOrdinals[i] {
			t.Errorf("record %d: SlideNumber = %d, want %d", i, rec.SlideNumber, wantOrdinals[i])
		}
		wantImage := fmt.Sprintf("slide_%d.png", wantOrdinals[i])
		if rec.ImagePath != wantImage {
			t.Errorf("record %d: ImagePath = %q, want %q", i, rec.ImagePath, wantImage)
		}
	}

	if res.Slides[0].Title != "Architecture" {
		t.Errorf("Title = %q", res.Slides[0].Title)
	}
	if res.Slides[0].Notes != "walk through the diagram" {
		t.Errorf("Notes = %q", res.Slides[0].Notes)
	}
	// Slide 5 has no title placeholder; its short filled-shape text is
	// promoted to the title.
	if res.Slides[3].Title != "Thank you" {
		t.Errorf("promoted title = %q, want %q", res.Slides[3].Title, "Thank you")
	}

	if len(shots.calls) != 1 || !reflect.DeepEqual(shots.calls[0], wantOrdinals) {
		t.Errorf("screenshot chain called with %v, want [%v]", shots.calls, wantOrdinals)
	}

	want := []string{EventJobStarted, EventSlidesClassified, EventRenderCompleted, EventJobCompleted}
	if got := sink.types(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestExtractTextOnlyFallback(t *testing.T) {
	dir := t.TempDir()
	src := mixedDeck(t, dir)

	shots := &fakeShots{err: render.ErrToolNotFound}
	sink := &memSink{}
	pipe := newTestPipeline(shots, sink)

	res, err := pipe.Extract(context.Background(), src, filepath.Join(dir, "out"), nil)
	if err != nil {
		t.Fatalf("Extract must absorb converter absence, got %v", err)
	}
	if !res.TextOnly {
		t.Fatal("TextOnly not set")
	}
	if len(res.Slides) != 4 {
		t.Fatalf("got %d records, want 4", len(res.Slides))
	}
	for i, rec := range res.Slides {
		if rec.ImagePath != "" {
			t.Errorf("record %d: ImagePath = %q, want empty", i, rec.ImagePath)
		}
		if rec.Title == "" {
			t.Errorf("record %d: empty title", i)
		}
	}

	want := []string{EventJobStarted, EventSlidesClassified, EventRenderFallback, EventJobCompleted}
	if got := sink.types(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestExtractForceInclude(t *testing.T) {
	dir := t.TempDir()
	src := mixedDeck(t, dir)

	pipe := newTestPipeline(&fakeShots{}, nil)
	opts := &Options{ForceInclude: []int{3, 99}} // 99 out of range, warned and ignored

	res, err := pipe.Extract(context.Background(), src, filepath.Join(dir, "out"), opts)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := make([]int, len(res.Slides))
	for i, rec := range res.Slides {
		got[i] = rec.SlideNumber
	}
	if want := []int{1, 2, 3, 4, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ordinals = %v, want %v", got, want)
	}
	if res.Slides[2].Title != "Agenda" {
		t.Errorf("forced slide title = %q", res.Slides[2].Title)
	}
}

func TestExtractNoVisualSlides(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.pptx")
	decktest.Write(t, src,
		decktest.Slide{Shapes: []string{decktest.Title("Only text"), decktest.Body("here")}},
	)

	shots := &fakeShots{}
	pipe := newTestPipeline(shots, nil)

	res, err := pipe.Extract(context.Background(), src, filepath.Join(dir, "out"), nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Slides) != 0 {
		t.Errorf("got %d records, want 0", len(res.Slides))
	}
	if len(shots.calls) != 0 {
		t.Errorf("screenshot chain invoked with nothing to keep")
	}
}

func TestExtractIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := mixedDeck(t, dir)
	pipe := newTestPipeline(&fakeShots{}, nil)

	first, err := pipe.Extract(context.Background(), src, filepath.Join(dir, "a"), nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := pipe.Extract(context.Background(), src, filepath.Join(dir, "b"), nil)
	if err != nil {
		t.Fatal(err)
	}

	if first.JobID == second.JobID {
		t.Error("job IDs must be unique per run")
	}
	first.JobID, second.JobID = "", ""
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs diverge:\n%+v\n%+v", first, second)
	}
}

func TestExtractHardErrors(t *testing.T) {
	dir := t.TempDir()
	pipe := newTestPipeline(&fakeShots{}, nil)

	if _, err := pipe.Extract(context.Background(), filepath.Join(dir, "absent.pptx"), dir, nil); err == nil {
		t.Error("missing file must be a hard error")
	}

	junk := filepath.Join(dir, "junk.pptx")
	if err := os.WriteFile(junk, []byte("not a deck"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := pipe.Extract(context.Background(), junk, dir, nil); err == nil {
		t.Error("malformed file must be a hard error")
	}
}

func TestExtractMaxFileSize(t *testing.T) {
	dir := t.TempDir()
	src := mixedDeck(t, dir)

	pipe := New(Config{MaxFileSize: 16})
	pipe.shots = &fakeShots{}
	if _, err := pipe.Extract(context.Background(), src, filepath.Join(dir, "out"), nil); err == nil {
		t.Fatal("oversized file must be rejected")
	}
}

func TestExtractRedactionWarnings(t *testing.T) {
	dir := t.TempDir()
	src := mixedDeck(t, dir)

	sink := &memSink{}
	pipe := newTestPipeline(&fakeShots{warnings: []string{"slide3: verify"}}, sink)

	res, err := pipe.Extract(context.Background(), src, filepath.Join(dir, "out"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.RedactionWarnings) != 1 {
		t.Fatalf("RedactionWarnings = %v", res.RedactionWarnings)
	}
	want := []string{EventJobStarted, EventSlidesClassified, EventRedactionCompleted, EventRenderCompleted, EventJobCompleted}
	if got := sink.types(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	ev := sink.byType(t, EventRedactionCompleted)
	if ev.Success {
		t.Error("redaction with warnings reported successful")
	}
	if ev.Details["warnings"] != 1 {
		t.Errorf("warning count = %v", ev.Details["warnings"])
	}
}

func TestExtractRedactionCompletedEvent(t *testing.T) {
	// A clean redaction still emits the lifecycle event, marked successful.
	dir := t.TempDir()
	src := mixedDeck(t, dir)

	sink := &memSink{}
	pipe := newTestPipeline(&fakeShots{warnings: []string{}}, sink)

	if _, err := pipe.Extract(context.Background(), src, filepath.Join(dir, "out"), nil); err != nil {
		t.Fatal(err)
	}
	ev := sink.byType(t, EventRedactionCompleted)
	if !ev.Success {
		t.Error("clean redaction reported unsuccessful")
	}
	if ev.Details["warnings"] != 0 {
		t.Errorf("warning count = %v", ev.Details["warnings"])
	}
}

func TestGetInfo(t *testing.T) {
	dir := t.TempDir()
	src := mixedDeck(t, dir)
	pipe := New(Config{})

	sum, err := pipe.GetInfo(src)
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if sum.SlideCount != 5 {
		t.Errorf("SlideCount = %d, want 5", sum.SlideCount)
	}
	if sum.SlideWidth != decktest.SlideWidth || sum.SlideHeight != decktest.SlideHeight {
		t.Errorf("size = %dx%d", sum.SlideWidth, sum.SlideHeight)
	}
}

func TestSynthesizeTitle(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "word "
	}
	tests := []struct {
		body    string
		ordinal int
		want    string
	}{
		{"First line\nsecond line", 1, "First line"},
		{"", 7, "Slide 7"},
		{"ok", 2, "Slide 2"}, // too short to stand as a title
		{long, 3, string([]rune(long)[:100])},
	}
	for _, tt := range tests {
		if got := synthesizeTitle(tt.body, tt.ordinal); got != tt.want {
			t.Errorf("synthesizeTitle(%q, %d) = %q, want %q", tt.body, tt.ordinal, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{DPI: 10}
	cfg.defaults()
	if err := cfg.Validate(); err == nil {
		t.Error("dpi below range accepted")
	}

	cfg = Config{ProbeTimeoutSec: 60, ConvertTimeoutSec: 10}
	cfg.defaults()
	if err := cfg.Validate(); err == nil {
		t.Error("convert timeout shorter than probe accepted")
	}

	cfg = Config{}
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
	if cfg.DPI != 200 || cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("defaults: %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deckpipe.yaml")
	err := os.WriteFile(path, []byte(
		"dpi: 150\nconvert_timeout_sec: 60\nrenderer_candidates:\n  - /opt/office/soffice\n"), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DPI != 150 {
		t.Errorf("DPI = %d", cfg.DPI)
	}
	if cfg.ConvertTimeoutSec != 60 {
		t.Errorf("ConvertTimeoutSec = %d", cfg.ConvertTimeoutSec)
	}
	if len(cfg.RendererCandidates) != 1 || cfg.RendererCandidates[0] != "/opt/office/soffice" {
		t.Errorf("RendererCandidates = %v", cfg.RendererCandidates)
	}
	if cfg.ProbeTimeoutSec != 5 {
		t.Errorf("ProbeTimeoutSec default not applied: %d", cfg.ProbeTimeoutSec)
	}

	if _, err := LoadConfig(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("missing file accepted")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("dpi: 9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Error("out-of-range dpi accepted")
	}
}
