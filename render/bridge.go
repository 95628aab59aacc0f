package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultCandidates are the converter invocations probed in order.
var DefaultCandidates = []string{
	"soffice",
	"libreoffice",
	"/usr/local/bin/soffice",
	"/Applications/LibreOffice.app/Contents/MacOS/soffice",
}

// Bridge locates and drives the external document converter. The probe
// result is cached process-wide; a cached entry older than CacheTTL is
// re-verified before use. Bridge is safe for concurrent use.
type Bridge struct {
	Candidates     []string
	ProbeTimeout   time.Duration
	ConvertTimeout time.Duration
	CacheTTL       time.Duration
	Logger         *slog.Logger

	mu       sync.Mutex
	tool     string
	probedAt time.Time
}

// NewBridge returns a Bridge with the default candidate list and timeouts.
func NewBridge(logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		Candidates:     DefaultCandidates,
		ProbeTimeout:   5 * time.Second,
		ConvertTimeout: 120 * time.Second,
		CacheTTL:       5 * time.Minute,
		Logger:         logger,
	}
}

// Locate returns the first candidate that answers a version probe within
// ProbeTimeout, caching the result until CacheTTL expires. When no
// candidate responds it returns ErrToolNotFound.
func (b *Bridge) Locate(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tool != "" && time.Since(b.probedAt) < b.CacheTTL {
		return b.tool, nil
	}

	for _, cand := range b.Candidates {
		probeCtx, cancel := context.WithTimeout(ctx, b.ProbeTimeout)
		out, err := exec.CommandContext(probeCtx, cand, "--version").Output()
		cancel()
		if err != nil {
			continue
		}
		b.Logger.Debug("converter found", "tool", cand, "version", strings.TrimSpace(string(out)))
		b.tool = cand
		b.probedAt = time.Now()
		return cand, nil
	}

	b.tool = ""
	return "", ErrToolNotFound
}

// ToPDF converts a presentation file to PDF in outDir, headlessly, bounded
// by ConvertTimeout. It returns the path of the generated PDF. Non-zero
// exit and timeout both yield a *ConversionError carrying the tool's
// diagnostic output.
func (b *Bridge) ToPDF(ctx context.Context, deckPath, outDir string) (string, error) {
	tool, err := b.Locate(ctx)
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(ctx, b.ConvertTimeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, tool,
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		deckPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		convErr := &ConversionError{Tool: tool, Output: string(out), Err: err}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			convErr.Timeout = true
		}
		return "", convErr
	}

	stem := strings.TrimSuffix(filepath.Base(deckPath), filepath.Ext(deckPath))
	pdfPath := filepath.Join(outDir, stem+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", &ConversionError{
			Tool:   tool,
			Output: string(out),
			Err:    fmt.Errorf("no PDF produced at %s", pdfPath),
		}
	}

	b.Logger.Debug("converted to pdf", "tool", tool, "pdf", pdfPath, "duration", time.Since(start))
	return pdfPath, nil
}
