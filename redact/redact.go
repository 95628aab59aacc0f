// Package redact produces a text-free copy of a presentation.
//
// The copy is restricted to a chosen set of slide ordinals; every other
// slide is dropped from the package. Text removal is a byte-level transform
// over the XML parts: DrawingML text runs are blanked in place so the
// surrounding markup, and with it every non-text visual, survives intact.
// Re-encoding the parts through an XML encoder is deliberately avoided: it
// rewrites namespace declarations and OOXML consumers reject the result.
//
// Clearing is layered. Runs are blanked first, then field elements, then a
// verification pass re-parses each part and reports any surviving text. No
// single failure aborts the copy; problems accumulate as warnings and the
// output file is still written, so callers must treat the copy as text-free
// only after verification.
package redact

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/pitchsafe/pitchdeck/deck"
)

// Warning records one non-fatal clearing failure.
type Warning struct {
	Part   string
	Op     string
	Detail string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Part, w.Op, w.Detail)
}

// Result describes a completed redaction.
type Result struct {
	Path     string    // the text-free copy
	Kept     []int     // retained ordinals, ascending
	Warnings []Warning // non-fatal clearing failures
}

// Create writes a text-free copy of src to dst containing only the slides
// whose 1-based ordinals appear in keep. Slides outside keep are removed
// from the slide list, their relationships released and their parts dropped,
// in descending ordinal order. The returned Result carries any per-part
// clearing warnings; only structural failures (unreadable package,
// unwritable destination) are errors.
func Create(src, dst string, keep []int) (*Result, error) {
	doc, err := deck.Open(src)
	if err != nil {
		return nil, err
	}

	keepSet := make(map[int]bool, len(keep))
	for _, n := range keep {
		keepSet[n] = true
	}

	// Collect parts and relationship IDs of dropped slides, walking the
	// slide list backwards.
	droppedParts := make(map[string]bool)
	var droppedRelIDs []string
	var kept []int
	slides := doc.Slides()
	for i := len(slides) - 1; i >= 0; i-- {
		s := slides[i]
		if keepSet[s.Ordinal] {
			kept = append(kept, s.Ordinal)
			continue
		}
		droppedRelIDs = append(droppedRelIDs, s.RelID)
		droppedParts[s.PartName] = true
		droppedParts[relsPartFor(s.PartName)] = true
		if s.NotesPart != "" {
			droppedParts[s.NotesPart] = true
			droppedParts[relsPartFor(s.NotesPart)] = true
		}
	}
	sort.Ints(kept)

	res := &Result{Path: dst, Kept: kept}

	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	defer r.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dst, err)
	}
	w := zip.NewWriter(out)

	for _, f := range r.File {
		if droppedParts[f.Name] {
			continue
		}
		switch {
		case needsScrub(f.Name):
			data, err := readPart(f)
			if err != nil {
				// Leaking the part unredacted is worse than losing it.
				res.Warnings = append(res.Warnings, Warning{f.Name, "read", err.Error()})
				continue
			}
			data = scrubPart(f.Name, data, res)
			if err := writePart(w, f.Name, data); err != nil {
				closeQuietly(w, out)
				return nil, fmt.Errorf("write %s: %w", f.Name, err)
			}
		case needsSurgery(f.Name):
			data, err := readPart(f)
			if err != nil {
				closeQuietly(w, out)
				return nil, fmt.Errorf("read %s: %w", f.Name, err)
			}
			data = applySurgery(f.Name, data, droppedRelIDs, droppedParts)
			if err := writePart(w, f.Name, data); err != nil {
				closeQuietly(w, out)
				return nil, fmt.Errorf("write %s: %w", f.Name, err)
			}
		default:
			if err := w.Copy(f); err != nil {
				closeQuietly(w, out)
				return nil, fmt.Errorf("copy %s: %w", f.Name, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		out.Close()
		return nil, fmt.Errorf("finalize %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", dst, err)
	}
	return res, nil
}

func closeQuietly(w *zip.Writer, out *os.File) {
	w.Close()
	out.Close()
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func writePart(w *zip.Writer, name string, data []byte) error {
	fw, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = fw.Write(data)
	return err
}

// needsScrub reports whether a part can carry renderable text.
// Slide layouts and masters are included: literal shapes placed on a layout
// render under every slide that uses it.
func needsScrub(name string) bool {
	if !strings.HasSuffix(name, ".xml") {
		return false
	}
	for _, prefix := range []string{
		"ppt/slides/slide",
		"ppt/notesSlides/",
		"ppt/charts/",
		"ppt/diagrams/",
		"ppt/slideLayouts/slideLayout",
		"ppt/slideMasters/slideMaster",
	} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func needsSurgery(name string) bool {
	switch name {
	case "ppt/presentation.xml", "ppt/_rels/presentation.xml.rels", "[Content_Types].xml":
		return true
	}
	return false
}

func relsPartFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// applySurgery removes references to dropped slides from the presentation
// part, its relationships and the content-types manifest.
func applySurgery(name string, data []byte, droppedRelIDs []string, droppedParts map[string]bool) []byte {
	switch name {
	case "ppt/presentation.xml":
		for _, rid := range droppedRelIDs {
			data = sldIDPattern(rid).ReplaceAll(data, nil)
		}
	case "ppt/_rels/presentation.xml.rels":
		for _, rid := range droppedRelIDs {
			data = relPattern(rid).ReplaceAll(data, nil)
		}
	case "[Content_Types].xml":
		parts := make([]string, 0, len(droppedParts))
		for p := range droppedParts {
			parts = append(parts, p)
		}
		slices.Sort(parts)
		for _, p := range parts {
			data = overridePattern(p).ReplaceAll(data, nil)
		}
	}
	return data
}

func sldIDPattern(rid string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)<p:sldId\b[^>]*r:id="` + regexp.QuoteMeta(rid) + `"[^>]*(?:/>|>.*?</p:sldId>)`)
}

func relPattern(rid string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)<Relationship\b[^>]*Id="` + regexp.QuoteMeta(rid) + `"[^>]*(?:/>|>.*?</Relationship>)`)
}

func overridePattern(part string) *regexp.Regexp {
	return regexp.MustCompile(`<Override\b[^>]*PartName="/` + regexp.QuoteMeta(part) + `"[^>]*/>`)
}
