package deck

import (
	"strings"
	"unicode/utf8"
)

// titleLengthLimit bounds how long a leading text shape may be to qualify as
// an implicit title.
const titleLengthLimit = 100

// ExtractText returns the slide's title and body text.
//
// Shapes are scanned in document order. The title is the first text-bearing
// shape that occupies the title placeholder slot; failing that, the first
// text-bearing shape seen before any body text whose trimmed text is under
// 100 characters. Once set, the title is never reconsidered. Every other
// text-bearing shape contributes to the body, joined with newlines.
func ExtractText(s *Slide) (title, body string) {
	var parts []string
	for i := range s.Shapes {
		sh := &s.Shapes[i]
		text := strings.TrimSpace(sh.Text)
		if text == "" {
			continue
		}
		if title == "" && sh.IsTitlePlaceholder() {
			title = text
			continue
		}
		if title == "" && len(parts) == 0 && utf8.RuneCountInString(text) < titleLengthLimit {
			title = text
			continue
		}
		parts = append(parts, text)
	}
	return title, strings.Join(parts, "\n")
}

// ExtractNotes returns the trimmed speaker-notes text, or "" when the slide
// carries no notes page.
func ExtractNotes(s *Slide) string {
	return s.Notes
}
