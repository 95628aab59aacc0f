// Package decktest builds minimal .pptx fixtures for tests.
//
// Fixtures are real OPC packages: content types, root relationships,
// presentation part, slide parts and optional notes parts, zipped in
// memory. Shape builders return raw slide XML fragments that plug into a
// slide's shape tree.
package decktest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
)

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsC = "http://schemas.openxmlformats.org/drawingml/2006/chart"

	// Default slide size: 16:9 in EMU.
	SlideWidth  = 12192000
	SlideHeight = 6858000
)

// Slide describes one fixture slide.
type Slide struct {
	Shapes []string // raw shape XML fragments (see the builder functions)
	Notes  string   // speaker-notes text, "" for no notes part
}

// Write builds a .pptx at path from the given slides.
func Write(t testing.TB, path string, slides ...Slide) {
	t.Helper()
	if err := os.WriteFile(path, Bytes(slides...), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
}

// Bytes builds an in-memory .pptx from the given slides.
func Bytes(slides ...Slide) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	add := func(name, content string) {
		f, err := w.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			panic(err)
		}
	}

	var overrides, sldIDs, presRels strings.Builder
	for i := range slides {
		n := i + 1
		fmt.Fprintf(&overrides, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, n)
		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="rId%d"/>`, 255+n, n+1)
		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="%s/slide" Target="slides/slide%d.xml"/>`, n+1, nsR, n)
		if slides[i].Notes != "" {
			fmt.Fprintf(&overrides, `<Override PartName="/ppt/notesSlides/notesSlide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"/>`, n)
		}
	}

	add("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`+
		`<Default Extension="xml" ContentType="application/xml"/>`+
		`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`+
		overrides.String()+
		`</Types>`)

	add("_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
		fmt.Sprintf(`<Relationship Id="rId1" Type="%s/officeDocument" Target="ppt/presentation.xml"/>`, nsR)+
		`</Relationships>`)

	add("ppt/presentation.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		fmt.Sprintf(`<p:presentation xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsA, nsR, nsP)+
		`<p:sldIdLst>`+sldIDs.String()+`</p:sldIdLst>`+
		fmt.Sprintf(`<p:sldSz cx="%d" cy="%d"/>`, SlideWidth, SlideHeight)+
		`</p:presentation>`)

	add("ppt/_rels/presentation.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
		presRels.String()+
		`</Relationships>`)

	for i := range slides {
		n := i + 1
		add(fmt.Sprintf("ppt/slides/slide%d.xml", n), slideXML(slides[i].Shapes))
		if slides[i].Notes == "" {
			continue
		}
		add(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n),
			`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
				`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
				fmt.Sprintf(`<Relationship Id="rId1" Type="%s/notesSlide" Target="../notesSlides/notesSlide%d.xml"/>`, nsR, n)+
				`</Relationships>`)
		add(fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n), notesXML(slides[i].Notes))
	}

	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func slideXML(shapes []string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		fmt.Sprintf(`<p:sld xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsA, nsR, nsP) +
		`<p:cSld><p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
		strings.Join(shapes, "") +
		`</p:spTree></p:cSld></p:sld>`
}

func notesXML(text string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		fmt.Sprintf(`<p:notes xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsA, nsR, nsP) +
		`<p:cSld><p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
		`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Slide Image Placeholder 1"/><p:cNvSpPr/>` +
		`<p:nvPr><p:ph type="sldImg"/></p:nvPr></p:nvSpPr><p:spPr/></p:sp>` +
		`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Notes Placeholder 2"/><p:cNvSpPr/>` +
		`<p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/>` +
		`<p:txBody><a:bodyPr/>` + paragraphs(text) + `</p:txBody></p:sp>` +
		`</p:spTree></p:cSld></p:notes>`
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func paragraphs(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(`<a:p><a:r><a:t>`)
		b.WriteString(escaper.Replace(line))
		b.WriteString(`</a:t></a:r></a:p>`)
	}
	return b.String()
}

// Title returns a title-placeholder shape holding text.
func Title(text string) string {
	return `<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr/>` +
		`<p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr><p:spPr/>` +
		`<p:txBody><a:bodyPr/>` + paragraphs(text) + `</p:txBody></p:sp>`
}

// Body returns a body-placeholder shape holding text. Placeholders are
// non-visual, so slides built from Title and Body alone classify false.
func Body(text string) string {
	return `<p:sp><p:nvSpPr><p:cNvPr id="3" name="Content Placeholder 2"/><p:cNvSpPr/>` +
		`<p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/>` +
		`<p:txBody><a:bodyPr/>` + paragraphs(text) + `</p:txBody></p:sp>`
}

// TextBox returns an unfilled text-box shape holding text.
func TextBox(text string) string {
	return `<p:sp><p:nvSpPr><p:cNvPr id="4" name="TextBox 3"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>` +
		`<p:spPr><a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>` +
		`<p:txBody><a:bodyPr/>` + paragraphs(text) + `</p:txBody></p:sp>`
}

// FilledRect returns a rectangle with a solid fill, optionally holding text.
func FilledRect(text string) string {
	body := `<p:txBody><a:bodyPr/><a:p/></p:txBody>`
	if text != "" {
		body = `<p:txBody><a:bodyPr/>` + paragraphs(text) + `</p:txBody>`
	}
	return `<p:sp><p:nvSpPr><p:cNvPr id="5" name="Rectangle 4"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>` +
		`<p:spPr><a:prstGeom prst="rect"><a:avLst/></a:prstGeom>` +
		`<a:solidFill><a:srgbClr val="4472C4"/></a:solidFill></p:spPr>` + body + `</p:sp>`
}

// Picture returns an embedded-image shape.
func Picture() string {
	return `<p:pic><p:nvPicPr><p:cNvPr id="6" name="Picture 5"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>` +
		`<p:blipFill><a:blip r:embed="rId90"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>` +
		`<p:spPr><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`
}

// Table returns a table shape with the given row-major cell text.
func Table(rows [][]string) string {
	var b strings.Builder
	b.WriteString(`<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="7" name="Table 6"/>` +
		`<p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr>` +
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table"><a:tbl><a:tblGrid/>`)
	for _, row := range rows {
		b.WriteString(`<a:tr h="370840">`)
		for _, cell := range row {
			b.WriteString(`<a:tc><a:txBody><a:bodyPr/>` + paragraphs(cell) + `</a:txBody><a:tcPr/></a:tc>`)
		}
		b.WriteString(`</a:tr>`)
	}
	b.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
	return b.String()
}

// Chart returns a chart reference shape.
func Chart() string {
	return `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="8" name="Chart 7"/>` +
		`<p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr>` +
		`<a:graphic><a:graphicData uri="` + nsC + `">` +
		fmt.Sprintf(`<c:chart xmlns:c=%q xmlns:r=%q r:id="rId91"/>`, nsC, nsR) +
		`</a:graphicData></a:graphic></p:graphicFrame>`
}
