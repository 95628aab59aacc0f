package redact

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"
)

var (
	// textRun blanks the content of a DrawingML text run, the single place
	// presentation text lives: slide bodies, table cells, chart titles and
	// notes pages all funnel through a:t.
	textRun = regexp.MustCompile(`(?s)<a:t(?:\s[^>]*)?>.*?</a:t>`)

	// fieldElem empties generated-text fields (slide numbers, dates).
	// Their runs are already blanked by textRun; dropping the field body as
	// well removes the generator's cached rendering.
	fieldElem = regexp.MustCompile(`(?s)(<a:fld\b[^>]*)>.*?</a:fld>`)

	// strCache matches a chart string-literal cache. Series and category
	// names cached there surface in rendered legends and axes.
	strCache = regexp.MustCompile(`(?s)<c:strCache>.*?</c:strCache>`)

	cachePoint = regexp.MustCompile(`(?s)<c:v>.*?</c:v>`)

	// residualText is the coarse fallback: strip any leftover character
	// data directly inside a run element regardless of attribute quoting.
	residualText = regexp.MustCompile(`(?s)(<a:t[^>]*>)[^<]+`)
)

// scrubPart removes every extractable string from one XML part, recording
// per-mechanism failures on res. The part is always returned, scrubbed as
// far as the mechanisms got.
func scrubPart(name string, data []byte, res *Result) []byte {
	data = textRun.ReplaceAll(data, []byte("<a:t/>"))
	data = fieldElem.ReplaceAll(data, []byte("$1/>"))

	if strings.HasPrefix(name, "ppt/charts/") {
		data = strCache.ReplaceAllFunc(data, func(block []byte) []byte {
			return cachePoint.ReplaceAll(block, []byte("<c:v/>"))
		})
	}

	if dirty, detail := hasResidualText(data); dirty {
		data = residualText.ReplaceAll(data, []byte("$1"))
		if dirty, _ := hasResidualText(data); dirty {
			res.Warnings = append(res.Warnings, Warning{name, "verify", detail})
		}
	}
	return data
}

// hasResidualText re-parses a part and reports whether any non-whitespace
// character data survives inside a text run.
func hasResidualText(data []byte) (bool, string) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var inRun bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return false, ""
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inRun = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inRun = false
			}
		case xml.CharData:
			if inRun {
				// Never echo the surviving text itself: warnings travel
				// into logs and event sinks.
				if strings.TrimSpace(string(t)) != "" {
					return true, "character data survived clearing in a text run"
				}
			}
		}
	}
}
