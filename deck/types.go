package deck

// ShapeKind identifies the structural family of a shape.
type ShapeKind int

const (
	// KindGeneric is an auto shape, freeform, connector or group.
	KindGeneric ShapeKind = iota
	// KindTextBox is an sp element flagged as a text box.
	KindTextBox
	// KindPicture is an embedded raster or vector image.
	KindPicture
	// KindTable is a graphic frame carrying a DrawingML table.
	KindTable
	// KindChart is a graphic frame referencing a chart part.
	KindChart
)

func (k ShapeKind) String() string {
	switch k {
	case KindTextBox:
		return "textbox"
	case KindPicture:
		return "picture"
	case KindTable:
		return "table"
	case KindChart:
		return "chart"
	default:
		return "shape"
	}
}

// Fill describes the explicit fill declared on a shape's properties.
// FillInherited means no fill element is present and the effective fill
// comes from the layout or theme.
type Fill int

const (
	FillInherited Fill = iota
	FillNone
	FillSolid
	FillGradient
	FillPicture
	FillPattern
	FillGroup
)

// Shape is one element of a slide's shape tree. Capabilities are
// independent: a shape may carry text, a fill, a table or none of these.
type Shape struct {
	Kind        ShapeKind
	Name        string
	Placeholder string // placeholder type ("title", "ctrTitle", "body", ...), "" when not a placeholder
	Geometry    string // preset geometry name, "" when absent
	Fill        Fill
	Text        string // paragraph text joined with newlines, "" for shapes without a text body
	Table       *TableContent
}

// TableContent holds the cell text of a table shape, row-major.
type TableContent struct {
	Rows [][]string
}

// IsPlaceholder reports whether the shape occupies a layout placeholder slot.
func (s *Shape) IsPlaceholder() bool { return s.Placeholder != "" }

// IsTitlePlaceholder reports whether the shape is the slide's heading slot.
func (s *Shape) IsTitlePlaceholder() bool {
	return s.Placeholder == "title" || s.Placeholder == "ctrTitle"
}

// Slide is one slide of a presentation, in document order.
type Slide struct {
	Ordinal int // 1-based position in the slide list
	Shapes  []Shape
	Notes   string // trimmed speaker-notes text, "" when absent

	// Part names inside the package, used by the redactor.
	PartName  string // e.g. ppt/slides/slide1.xml
	RelID     string // relationship ID in the presentation part
	NotesPart string // e.g. ppt/notesSlides/notesSlide1.xml, "" when absent
}

// Summary is the presentation-level metadata, independent of slide content.
// Width and height are in EMU as declared by the presentation part.
type Summary struct {
	SlideCount  int `json:"slide_count"`
	SlideWidth  int `json:"slide_width"`
	SlideHeight int `json:"slide_height"`
}
