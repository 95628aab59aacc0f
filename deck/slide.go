package deck

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"
)

const (
	uriTable = "http://schemas.openxmlformats.org/drawingml/2006/table"
	uriChart = "http://schemas.openxmlformats.org/drawingml/2006/chart"
)

// parseShapeTree walks a slide (or notes-slide) part and returns its shapes
// in document order. Group shapes are recorded as one generic shape; their
// interior is not descended into, matching how a shape collection exposes a
// group as a single member.
func parseShapeTree(f *zip.File) ([]Shape, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var shapes []Shape
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "sp":
			sh, err := parseSp(dec)
			if err != nil {
				return nil, err
			}
			shapes = append(shapes, sh)
		case "pic":
			name := shapeName(se)
			if err := dec.Skip(); err != nil {
				return nil, err
			}
			shapes = append(shapes, Shape{Kind: KindPicture, Name: name})
		case "graphicFrame":
			sh, err := parseGraphicFrame(dec)
			if err != nil {
				return nil, err
			}
			shapes = append(shapes, sh)
		case "grpSp", "cxnSp":
			name := shapeName(se)
			if err := dec.Skip(); err != nil {
				return nil, err
			}
			shapes = append(shapes, Shape{Kind: KindGeneric, Name: name})
		}
	}
	return shapes, nil
}

func shapeName(se xml.StartElement) string {
	for _, a := range se.Attr {
		if a.Name.Local == "name" {
			return a.Value
		}
	}
	return ""
}

// parseSp consumes one sp element (the start tag already read) and builds a
// Shape from its non-visual properties, shape properties and text body.
func parseSp(dec *xml.Decoder) (Shape, error) {
	sh := Shape{Kind: KindGeneric}
	var (
		stack     []string
		text      strings.Builder
		inTxBody  bool
		inT       bool
		paragraph int
	)
	parent := func() string {
		if len(stack) == 0 {
			return "sp"
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return sh, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "cNvPr":
				if sh.Name == "" {
					sh.Name = shapeName(t)
				}
			case "cNvSpPr":
				for _, a := range t.Attr {
					if a.Name.Local == "txBox" && (a.Value == "1" || a.Value == "true") {
						sh.Kind = KindTextBox
					}
				}
			case "ph":
				if parent() == "nvPr" {
					// A ph element with no type attribute defaults to body.
					sh.Placeholder = "body"
					for _, a := range t.Attr {
						if a.Name.Local == "type" {
							sh.Placeholder = a.Value
						}
					}
				}
			case "prstGeom":
				if parent() == "spPr" {
					for _, a := range t.Attr {
						if a.Name.Local == "prst" {
							sh.Geometry = a.Value
						}
					}
				}
			case "noFill", "solidFill", "gradFill", "blipFill", "pattFill", "grpFill":
				// Only a fill that is a direct child of spPr is the shape
				// fill; the same elements inside a:ln color the outline.
				if parent() == "spPr" && sh.Fill == FillInherited {
					sh.Fill = fillKind(t.Name.Local)
				}
			case "txBody":
				inTxBody = true
				paragraph = 0
			case "p":
				if inTxBody {
					if paragraph > 0 {
						text.WriteByte('\n')
					}
					paragraph++
				}
			case "br":
				if inTxBody {
					text.WriteByte('\n')
				}
			case "t":
				if inTxBody {
					inT = true
				}
			}
			stack = append(stack, t.Name.Local)
		case xml.CharData:
			if inT {
				text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				// Matching end of the sp element itself.
				sh.Text = text.String()
				return sh, nil
			}
			stack = stack[:len(stack)-1]
			switch t.Name.Local {
			case "t":
				inT = false
			case "txBody":
				inTxBody = false
			}
		}
	}
}

func fillKind(local string) Fill {
	switch local {
	case "noFill":
		return FillNone
	case "solidFill":
		return FillSolid
	case "gradFill":
		return FillGradient
	case "blipFill":
		return FillPicture
	case "pattFill":
		return FillPattern
	case "grpFill":
		return FillGroup
	}
	return FillInherited
}

// parseGraphicFrame consumes a graphicFrame element and classifies it as a
// table or chart by the graphicData URI. Table cell text is collected for
// the redaction-verification model; charts are opaque references.
func parseGraphicFrame(dec *xml.Decoder) (Shape, error) {
	sh := Shape{Kind: KindGeneric}
	var (
		depth     = 1
		inCell    bool
		cellPara  int
		inT       bool
		cell      strings.Builder
		row       []string
		table     *TableContent
		pendingTR bool
	)

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return sh, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "cNvPr":
				if sh.Name == "" {
					sh.Name = shapeName(t)
				}
			case "graphicData":
				for _, a := range t.Attr {
					if a.Name.Local != "uri" {
						continue
					}
					switch a.Value {
					case uriTable:
						sh.Kind = KindTable
						table = &TableContent{}
					case uriChart:
						sh.Kind = KindChart
					}
				}
			case "tbl":
				if table == nil {
					table = &TableContent{}
					sh.Kind = KindTable
				}
			case "tr":
				row = nil
				pendingTR = true
			case "tc":
				inCell = true
				cellPara = 0
				cell.Reset()
			case "p":
				if inCell {
					if cellPara > 0 {
						cell.WriteByte('\n')
					}
					cellPara++
				}
			case "t":
				if inCell {
					inT = true
				}
			}
		case xml.CharData:
			if inT {
				cell.Write(t)
			}
		case xml.EndElement:
			depth--
			switch t.Name.Local {
			case "t":
				inT = false
			case "tc":
				if inCell {
					row = append(row, cell.String())
					inCell = false
				}
			case "tr":
				if pendingTR && table != nil {
					table.Rows = append(table.Rows, row)
					pendingTR = false
				}
			}
		}
	}
	sh.Table = table
	return sh, nil
}
