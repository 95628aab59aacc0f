// Package deck reads PowerPoint (.pptx) packages into a slide/shape model.
//
// A .pptx file is an OPC container: a ZIP archive of XML parts linked by
// relationship files. The reader walks ppt/presentation.xml for the slide
// order and dimensions, then parses each slide part's shape tree with a
// streaming XML decoder. No external office library is involved; the parser
// is pure Go.
//
// Usage:
//
//	doc, err := deck.Open("talk.pptx")
//	for _, s := range doc.Slides() {
//		title, body := deck.ExtractText(s)
//		fmt.Println(s.Ordinal, title, len(body), deck.HasVisualContent(s))
//	}
package deck

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// ErrMalformed marks a file that cannot be interpreted as a presentation.
var ErrMalformed = errors.New("malformed presentation")

const (
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relTypeOfficeDocument = nsRelationships + "/officeDocument"
	relTypeNotesSlide     = nsRelationships + "/notesSlide"
)

// Document is a loaded presentation. It is immutable after Open.
type Document struct {
	path   string
	slides []*Slide
	width  int
	height int
}

// Open loads a .pptx file and parses every slide into the shape model.
// Failures to locate or parse the package structure wrap ErrMalformed.
func Open(filename string) (*Document, error) {
	r, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrMalformed, filename, err)
	}
	defer r.Close()

	parts := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		parts[f.Name] = f
	}

	presPart, err := officeDocumentPart(parts)
	if err != nil {
		return nil, err
	}

	width, height, slideIDs, err := parsePresentation(parts, presPart)
	if err != nil {
		return nil, err
	}

	rels, err := parseRels(parts, relsPartFor(presPart))
	if err != nil {
		return nil, err
	}

	doc := &Document{path: filename, width: width, height: height}
	baseDir := path.Dir(presPart)

	for i, rid := range slideIDs {
		target, ok := rels[rid]
		if !ok {
			return nil, fmt.Errorf("%w: slide relationship %s not found", ErrMalformed, rid)
		}
		partName := resolveTarget(baseDir, target)
		sf, ok := parts[partName]
		if !ok {
			return nil, fmt.Errorf("%w: slide part %s missing", ErrMalformed, partName)
		}

		shapes, err := parseShapeTree(sf)
		if err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrMalformed, partName, err)
		}

		slide := &Slide{
			Ordinal:  i + 1,
			Shapes:   shapes,
			PartName: partName,
			RelID:    rid,
		}
		slide.NotesPart, slide.Notes = loadNotes(parts, partName)
		doc.slides = append(doc.slides, slide)
	}

	return doc, nil
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string { return d.path }

// Slides returns the slides in presentation order.
func (d *Document) Slides() []*Slide { return d.slides }

// SlideCount returns the number of slides.
func (d *Document) SlideCount() int { return len(d.slides) }

// Summary returns the presentation-level metadata.
func (d *Document) Summary() Summary {
	return Summary{
		SlideCount:  len(d.slides),
		SlideWidth:  d.width,
		SlideHeight: d.height,
	}
}

// officeDocumentPart resolves the main document part from the package root
// relationships, falling back to the conventional location.
func officeDocumentPart(parts map[string]*zip.File) (string, error) {
	if f, ok := parts["_rels/.rels"]; ok {
		target, err := relTargetByType(f, relTypeOfficeDocument)
		if err == nil && target != "" {
			return resolveTarget("", target), nil
		}
	}
	if _, ok := parts["ppt/presentation.xml"]; ok {
		return "ppt/presentation.xml", nil
	}
	return "", fmt.Errorf("%w: no presentation part", ErrMalformed)
}

// parsePresentation extracts the slide size and the ordered slide
// relationship IDs from the presentation part.
func parsePresentation(parts map[string]*zip.File, name string) (width, height int, slideIDs []string, err error) {
	f, ok := parts[name]
	if !ok {
		return 0, 0, nil, fmt.Errorf("%w: %s missing", ErrMalformed, name)
	}
	rc, err := f.Open()
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%w: open %s: %v", ErrMalformed, name, err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var inSldIdLst bool
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, nil, fmt.Errorf("%w: parse %s: %v", ErrMalformed, name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sldIdLst":
				inSldIdLst = true
			case "sldId":
				if !inSldIdLst {
					continue
				}
				for _, a := range t.Attr {
					if a.Name.Local == "id" && a.Name.Space == nsRelationships {
						slideIDs = append(slideIDs, a.Value)
					}
				}
			case "sldSz":
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "cx":
						width, _ = strconv.Atoi(a.Value)
					case "cy":
						height, _ = strconv.Atoi(a.Value)
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "sldIdLst" {
				inSldIdLst = false
			}
		}
	}
	return width, height, slideIDs, nil
}

// relationship mirrors one entry of a .rels part.
type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationships struct {
	Rels []relationship `xml:"Relationship"`
}

// parseRels reads a relationships part into an ID → target map.
// A missing part yields an empty map, not an error.
func parseRels(parts map[string]*zip.File, name string) (map[string]string, error) {
	out := map[string]string{}
	f, ok := parts[name]
	if !ok {
		return out, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrMalformed, name, err)
	}
	defer rc.Close()

	var rels relationships
	if err := xml.NewDecoder(rc).Decode(&rels); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrMalformed, name, err)
	}
	for _, rel := range rels.Rels {
		out[rel.ID] = rel.Target
	}
	return out, nil
}

// relTargetByType returns the target of the first relationship of the given
// type in a .rels part.
func relTargetByType(f *zip.File, relType string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var rels relationships
	if err := xml.NewDecoder(rc).Decode(&rels); err != nil {
		return "", err
	}
	for _, rel := range rels.Rels {
		if rel.Type == relType {
			return rel.Target, nil
		}
	}
	return "", nil
}

// relsPartFor returns the .rels part name accompanying a part.
// e.g. ppt/presentation.xml → ppt/_rels/presentation.xml.rels
func relsPartFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// resolveTarget resolves a relationship target against the directory of the
// source part. Absolute targets ("/ppt/...") are package-rooted.
func resolveTarget(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(baseDir, target)
}

// loadNotes locates and extracts the notes text for a slide part. Any
// failure to reach the notes page is non-fatal and yields empty text.
func loadNotes(parts map[string]*zip.File, slidePart string) (notesPart, text string) {
	f, ok := parts[relsPartFor(slidePart)]
	if !ok {
		return "", ""
	}
	target, err := relTargetByType(f, relTypeNotesSlide)
	if err != nil || target == "" {
		return "", ""
	}
	notesPart = resolveTarget(path.Dir(slidePart), target)
	nf, ok := parts[notesPart]
	if !ok {
		return notesPart, ""
	}
	shapes, err := parseShapeTree(nf)
	if err != nil {
		return notesPart, ""
	}
	// The notes text lives in the body placeholder; slide-number and
	// slide-image placeholders are ignored.
	for i := range shapes {
		if shapes[i].Placeholder == "body" {
			return notesPart, strings.TrimSpace(shapes[i].Text)
		}
	}
	return notesPart, ""
}
