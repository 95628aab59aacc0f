package deckpipe

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pitchsafe/pitchdeck/redact"
	"github.com/pitchsafe/pitchdeck/render"
)

// screenshotter is the redact → convert → rasterize chain. It returns the
// image paths in retained-slide order plus the redaction warnings. The
// warning slice is non-nil (possibly empty) exactly when a text-free copy
// was produced, even if the chain failed afterwards.
type screenshotter interface {
	Screenshots(ctx context.Context, srcPath string, keep []int, outDir string) (images []string, warnings []string, err error)
}

// toolChain is the production screenshotter: LibreOffice bridge plus MuPDF
// rasterizer. Temporary artifacts (the text-free copy and the intermediate
// PDF) are removed on every exit path.
type toolChain struct {
	bridge *render.Bridge
	raster *render.Rasterizer
}

func (t *toolChain) Screenshots(ctx context.Context, srcPath string, keep []int, outDir string) ([]string, []string, error) {
	// Probe before any redaction work so a missing tool fails fast.
	if _, err := t.bridge.Locate(ctx); err != nil {
		return nil, nil, err
	}

	textFree := filepath.Join(outDir, "textfree.pptx")
	defer os.Remove(textFree)

	res, err := redact.Create(srcPath, textFree, keep)
	if err != nil {
		return nil, nil, err
	}
	warnings := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, w.String())
	}

	pdfPath, err := t.bridge.ToPDF(ctx, textFree, outDir)
	if pdfPath != "" {
		defer os.Remove(pdfPath)
	}
	if err != nil {
		return nil, warnings, err
	}

	images, err := t.raster.Render(pdfPath, outDir)
	if err != nil {
		return nil, warnings, err
	}
	return images, warnings, nil
}
