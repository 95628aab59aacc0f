package redact

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pitchsafe/pitchdeck/deck"
	"github.com/pitchsafe/pitchdeck/deck/decktest"
)

func TestCreateRemovesAllText(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.pptx")
	dst := filepath.Join(dir, "textfree.pptx")

	decktest.Write(t, src,
		decktest.Slide{
			Shapes: []string{
				decktest.Title("Confidential roadmap"),
				decktest.Body("Launch date: March\nBudget: 4M"),
				decktest.FilledRect("Embedded label"),
				decktest.Table([][]string{{"secret", "numbers"}, {"more", "cells"}}),
			},
			Notes: "do not share externally",
		},
		decktest.Slide{Shapes: []string{decktest.TextBox("Plain text slide")}},
	)

	res, err := Create(src, dst, []int{1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
	if len(res.Kept) != 1 || res.Kept[0] != 1 {
		t.Fatalf("Kept = %v, want [1]", res.Kept)
	}

	// Re-open the copy and assert exhaustively: no shape text, no table
	// cell text, no notes.
	doc, err := deck.Open(dst)
	if err != nil {
		t.Fatalf("reopen redacted copy: %v", err)
	}
	if doc.SlideCount() != 1 {
		t.Fatalf("SlideCount = %d, want 1", doc.SlideCount())
	}
	s := doc.Slides()[0]
	for i := range s.Shapes {
		sh := &s.Shapes[i]
		if got := strings.TrimSpace(sh.Text); got != "" {
			t.Errorf("shape %d (%s): text %q survived redaction", i, sh.Kind, got)
		}
		if sh.Table == nil {
			continue
		}
		for r, row := range sh.Table.Rows {
			for c, cell := range row {
				if strings.TrimSpace(cell) != "" {
					t.Errorf("table cell [%d][%d]: %q survived redaction", r, c, cell)
				}
			}
		}
	}
	if s.Notes != "" {
		t.Errorf("notes %q survived redaction", s.Notes)
	}

	// The visual structure must survive: same shape count, fills intact.
	if len(s.Shapes) != 4 {
		t.Errorf("got %d shapes after redaction, want 4", len(s.Shapes))
	}
	if s.Shapes[2].Fill != deck.FillSolid {
		t.Errorf("fill lost during redaction: %v", s.Shapes[2].Fill)
	}
}

func TestCreateDropsSlides(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.pptx")
	dst := filepath.Join(dir, "textfree.pptx")

	decktest.Write(t, src,
		decktest.Slide{Shapes: []string{decktest.Picture()}},
		decktest.Slide{Shapes: []string{decktest.TextBox("blank-ish")}, Notes: "note"},
		decktest.Slide{Shapes: []string{decktest.FilledRect("")}},
	)

	res, err := Create(src, dst, []int{1, 3})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(res.Kept) != 2 || res.Kept[0] != 1 || res.Kept[1] != 3 {
		t.Fatalf("Kept = %v, want [1 3]", res.Kept)
	}

	doc, err := deck.Open(dst)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if doc.SlideCount() != 2 {
		t.Fatalf("SlideCount = %d, want 2", doc.SlideCount())
	}
	if doc.Slides()[0].Shapes[0].Kind != deck.KindPicture {
		t.Errorf("first retained slide lost its picture")
	}
	if doc.Slides()[1].Shapes[0].Fill != deck.FillSolid {
		t.Errorf("second retained slide lost its fill")
	}

	// The dropped slide's parts are gone from the package and from the
	// content-types manifest.
	r, err := zip.OpenReader(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	var contentTypes string
	for _, f := range r.File {
		switch f.Name {
		case "ppt/slides/slide2.xml", "ppt/notesSlides/notesSlide2.xml",
			"ppt/slides/_rels/slide2.xml.rels":
			t.Errorf("dropped part %s still present", f.Name)
		case "[Content_Types].xml":
			rc, err := f.Open()
			if err != nil {
				t.Fatal(err)
			}
			buf, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				t.Fatal(err)
			}
			contentTypes = string(buf)
		}
	}
	if strings.Contains(contentTypes, "/ppt/slides/slide2.xml") {
		t.Errorf("content types still references dropped slide")
	}
	if !strings.Contains(contentTypes, "/ppt/slides/slide1.xml") {
		t.Errorf("content types lost a retained slide")
	}
}

func TestCreateKeepAll(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.pptx")
	dst := filepath.Join(dir, "textfree.pptx")

	decktest.Write(t, src,
		decktest.Slide{Shapes: []string{decktest.Title("One")}},
		decktest.Slide{Shapes: []string{decktest.Title("Two")}},
	)

	res, err := Create(src, dst, []int{1, 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(res.Kept) != 2 {
		t.Fatalf("Kept = %v", res.Kept)
	}
	doc, err := deck.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	if doc.SlideCount() != 2 {
		t.Errorf("SlideCount = %d, want 2", doc.SlideCount())
	}
}

func TestCreateMalformedSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "junk.pptx")
	if err := os.WriteFile(src, []byte("not a deck"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Create(src, filepath.Join(dir, "out.pptx"), []int{1}); err == nil {
		t.Fatal("expected error for malformed source")
	}
}

func TestScrubPartChartCaches(t *testing.T) {
	chart := []byte(`<c:chartSpace xmlns:c="x" xmlns:a="y">` +
		`<c:title><c:tx><c:rich><a:p><a:r><a:t>Revenue by quarter</a:t></a:r></a:p></c:rich></c:tx></c:title>` +
		`<c:ser><c:tx><c:strRef><c:strCache><c:pt idx="0"><c:v>EMEA sales</c:v></c:pt></c:strCache></c:strRef></c:tx>` +
		`<c:val><c:numRef><c:numCache><c:pt idx="0"><c:v>42.5</c:v></c:pt></c:numCache></c:numRef></c:val></c:ser>` +
		`</c:chartSpace>`)

	res := &Result{}
	got := string(scrubPart("ppt/charts/chart1.xml", chart, res))

	if strings.Contains(got, "Revenue by quarter") {
		t.Errorf("chart title survived: %s", got)
	}
	if strings.Contains(got, "EMEA sales") {
		t.Errorf("series name survived: %s", got)
	}
	if !strings.Contains(got, "42.5") {
		t.Errorf("numeric cache should survive: %s", got)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings: %v", res.Warnings)
	}
}

func TestScrubPartFields(t *testing.T) {
	part := []byte(`<p:sld xmlns:a="x"><p:txBody>` +
		`<a:p><a:fld id="{X}" type="slidenum"><a:rPr lang="en-US"/><a:t>7</a:t></a:fld></a:p>` +
		`</p:txBody></p:sld>`)

	res := &Result{}
	got := string(scrubPart("ppt/slides/slide1.xml", part, res))
	if strings.Contains(got, ">7<") {
		t.Errorf("field text survived: %s", got)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings: %v", res.Warnings)
	}
}
