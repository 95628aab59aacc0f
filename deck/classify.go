package deck

// HasVisualContent reports whether a slide carries any non-text visual
// element worth rendering: an embedded picture, a chart, a table, a shape
// with an explicit fill that is not noFill, or a geometric shape that is
// neither a text box nor a placeholder. Text content is never inspected: a
// slide holding only text boxes is non-visual no matter how much it says.
func HasVisualContent(s *Slide) bool {
	for i := range s.Shapes {
		sh := &s.Shapes[i]
		switch sh.Kind {
		case KindPicture, KindChart, KindTable:
			return true
		}
		if sh.Fill != FillInherited && sh.Fill != FillNone {
			return true
		}
		if sh.Kind == KindGeneric && !sh.IsPlaceholder() {
			return true
		}
	}
	return false
}
