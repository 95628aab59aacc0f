// Package deckpipe extracts searchable text and privacy-safe screenshots
// from slide decks.
//
// One extraction job classifies every slide for visual content, builds a
// text-free copy restricted to the visual slides, renders that copy to PDF
// with an external converter and rasterizes one PNG per retained slide.
// Slide text (title, body, notes) is always read from the original,
// unredacted document, so the screenshots can never contain a string the
// text layers do not already carry deliberately.
//
// Every screenshot-stage failure (converter missing, conversion timeout,
// rasterization error) degrades the job to text-only output instead of
// failing it. Only an unopenable document or an invalid path is a hard
// error.
//
// Usage:
//
//	pipe := deckpipe.New(deckpipe.Config{})
//	res, err := pipe.Extract(ctx, "deck.pptx", "out/job1", nil)
package deckpipe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pitchsafe/pitchdeck/deck"
	"github.com/pitchsafe/pitchdeck/render"
)

// Pipeline runs extraction jobs. One Pipeline may serve concurrent jobs as
// long as each job uses its own output directory; the only shared state is
// the converter probe cache, which is internally synchronized.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
	events EventSink
	shots  screenshotter
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	bridge := render.NewBridge(cfg.Logger)
	bridge.Candidates = cfg.RendererCandidates
	bridge.ProbeTimeout = cfg.probeTimeout()
	bridge.ConvertTimeout = cfg.convertTimeout()
	bridge.CacheTTL = cfg.probeCacheTTL()

	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
		events: cfg.Events,
		shots: &toolChain{
			bridge: bridge,
			raster: render.NewRasterizer(cfg.DPI, cfg.Logger),
		},
	}
}

// Extract runs one job: loads the document at srcPath, writes screenshots
// into outDir (created if absent) and returns one record per visual slide
// plus the presentation summary. A document that cannot be opened is a hard
// error; every screenshot-stage failure degrades to text-only output.
func (p *Pipeline) Extract(ctx context.Context, srcPath, outDir string, opts *Options) (*Result, error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", srcPath, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), p.cfg.MaxFileSize)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", outDir, err)
	}

	doc, err := deck.Open(srcPath)
	if err != nil {
		return nil, err
	}

	jobID := "job_" + uuid.Must(uuid.NewV7()).String()
	res := &Result{JobID: jobID, Summary: doc.Summary()}

	p.emit(ctx, jobID, EventJobStarted, true, map[string]any{
		"file":   filepath.Base(srcPath),
		"sha256": fileDigest(srcPath),
		"slides": doc.SlideCount(),
	})

	keep := p.classify(doc, opts)
	p.emit(ctx, jobID, EventSlidesClassified, true, map[string]any{
		"total":  doc.SlideCount(),
		"visual": len(keep),
	})

	var images []string
	if len(keep) > 0 {
		images = p.screenshots(ctx, jobID, srcPath, keep, outDir, res)
	}

	slides := doc.Slides()
	for i, ordinal := range keep {
		s := slides[ordinal-1]
		title, body := deck.ExtractText(s)
		if title == "" {
			title = synthesizeTitle(body, ordinal)
		}
		rec := SlideRecord{
			SlideNumber: ordinal,
			Title:       title,
			TextContent: body,
			Notes:       deck.ExtractNotes(s),
		}
		if i < len(images) {
			rec.ImagePath = filepath.Base(images[i])
		} else {
			p.logger.Warn("no screenshot for slide", "job", jobID, "slide", ordinal)
		}
		res.Slides = append(res.Slides, rec)
	}

	p.emit(ctx, jobID, EventJobCompleted, true, map[string]any{
		"records":   len(res.Slides),
		"text_only": res.TextOnly,
	})
	return res, nil
}

// GetInfo returns the presentation summary without running a job.
func (p *Pipeline) GetInfo(srcPath string) (deck.Summary, error) {
	doc, err := deck.Open(srcPath)
	if err != nil {
		return deck.Summary{}, err
	}
	return doc.Summary(), nil
}

// classify returns the ordered set of retained ordinals: every slide with
// visual content, unioned with the caller's force-include list.
func (p *Pipeline) classify(doc *deck.Document, opts *Options) []int {
	forced := map[int]bool{}
	if opts != nil {
		for _, n := range opts.ForceInclude {
			if n >= 1 && n <= doc.SlideCount() {
				forced[n] = true
			} else {
				p.logger.Warn("force-include ordinal out of range", "slide", n)
			}
		}
	}

	var keep []int
	for _, s := range doc.Slides() {
		if deck.HasVisualContent(s) || forced[s.Ordinal] {
			keep = append(keep, s.Ordinal)
		}
	}
	sort.Ints(keep)
	return keep
}

// screenshots runs the redact → convert → rasterize chain and absorbs every
// failure into text-only fallback.
func (p *Pipeline) screenshots(ctx context.Context, jobID, srcPath string, keep []int, outDir string, res *Result) []string {
	start := time.Now()
	images, warnings, err := p.shots.Screenshots(ctx, srcPath, keep, outDir)
	res.RedactionWarnings = warnings
	// A nil warning slice means the chain failed before a text-free copy
	// was produced; non-nil (possibly empty) means redaction ran.
	if warnings != nil {
		p.emit(ctx, jobID, EventRedactionCompleted, len(warnings) == 0, map[string]any{
			"warnings": len(warnings),
		})
	}
	if err != nil {
		p.logger.Warn("screenshot stage failed, continuing text-only",
			"job", jobID, "error", err)
		p.emit(ctx, jobID, EventRenderFallback, false, map[string]any{
			"reason": err.Error(),
		})
		res.TextOnly = true
		return nil
	}
	p.emit(ctx, jobID, EventRenderCompleted, true, map[string]any{
		"images":      len(images),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return images
}

// synthesizeTitle derives a title for a slide whose shapes yielded none:
// the first body line truncated to 100 characters when it is substantial,
// otherwise a positional fallback.
func synthesizeTitle(body string, ordinal int) string {
	if body != "" {
		line := strings.SplitN(body, "\n", 2)[0]
		if r := []rune(line); len(r) > 100 {
			line = string(r[:100])
		}
		if utf8.RuneCountInString(line) > 3 {
			return line
		}
	}
	return fmt.Sprintf("Slide %d", ordinal)
}

func fileDigest(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}
