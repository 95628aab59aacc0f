package render

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Rasterizer converts a PDF into one PNG per page.
type Rasterizer struct {
	DPI    int
	Logger *slog.Logger
}

// NewRasterizer returns a Rasterizer at the given resolution.
func NewRasterizer(dpi int, logger *slog.Logger) *Rasterizer {
	if dpi <= 0 {
		dpi = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rasterizer{DPI: dpi, Logger: logger}
}

// Render writes slide_N.png files (1-based) into outDir, one per PDF page,
// and returns their paths in page order. The page count reported by the
// document structure is cross-checked against the renderer; a mismatch is
// an error. On any failure the images written so far are removed so a
// partial set never leaks into the result.
func (r *Rasterizer) Render(pdfPath, outDir string) ([]string, error) {
	pages, err := api.PageCountFile(pdfPath)
	if err != nil {
		return nil, &RasterError{Path: pdfPath, Err: fmt.Errorf("page count: %w", err)}
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, &RasterError{Path: pdfPath, Err: err}
	}
	defer doc.Close()

	if doc.NumPage() != pages {
		return nil, &RasterError{
			Path: pdfPath,
			Err:  fmt.Errorf("page count mismatch: structure says %d, renderer says %d", pages, doc.NumPage()),
		}
	}

	paths := make([]string, 0, pages)
	for page := 0; page < pages; page++ {
		img, err := doc.ImageDPI(page, float64(r.DPI))
		if err != nil {
			removeAll(paths)
			return nil, &RasterError{Path: pdfPath, Err: fmt.Errorf("page %d: %w", page+1, err)}
		}
		imgPath := filepath.Join(outDir, fmt.Sprintf("slide_%d.png", page+1))
		if err := writePNG(imgPath, img); err != nil {
			removeAll(paths)
			return nil, &RasterError{Path: pdfPath, Err: fmt.Errorf("page %d: %w", page+1, err)}
		}
		paths = append(paths, imgPath)
	}

	r.Logger.Debug("rasterized", "pdf", pdfPath, "pages", pages, "dpi", r.DPI)
	return paths, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func removeAll(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}
