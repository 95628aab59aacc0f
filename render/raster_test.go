package render

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
)

func TestRenderInvalidPDF(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := t.TempDir()

	r := NewRasterizer(0, nil)
	if r.DPI != 200 {
		t.Fatalf("default DPI = %d, want 200", r.DPI)
	}

	_, err := r.Render(pdfPath, outDir)
	var rastErr *RasterError
	if !errors.As(err, &rastErr) {
		t.Fatalf("err = %v, want *RasterError", err)
	}
	if rastErr.Path != pdfPath {
		t.Errorf("Path = %s, want %s", rastErr.Path, pdfPath)
	}

	// No partial output may survive a failed run.
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("leftover files after failure: %v", entries)
	}
}

func TestRenderMissingPDF(t *testing.T) {
	r := NewRasterizer(200, nil)
	_, err := r.Render(filepath.Join(t.TempDir(), "absent.pdf"), t.TempDir())
	var rastErr *RasterError
	if !errors.As(err, &rastErr) {
		t.Fatalf("err = %v, want *RasterError", err)
	}
}

func TestWritePNG(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "slide_1.png")
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := writePNG(p, img); err != nil {
		t.Fatalf("writePNG: %v", err)
	}
	info, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty PNG written")
	}
}

func TestWritePNGBadDir(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := writePNG(filepath.Join(t.TempDir(), "missing", "x.png"), img); err == nil {
		t.Fatal("expected error for nonexistent directory")
	}
}
