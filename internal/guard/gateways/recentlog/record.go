package recentlog

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/linkfence/linkfence/internal/guard/common/clock"
)

// bookmarkPrefix marks a line as a bookmark record. Everything else in the
// log (prolog, container elements, nested metadata, closing tags) is
// structural and skipped silently.
const bookmarkPrefix = "<bookmark"

// record is one parsed bookmark line from the recent log.
type record struct {
	HRef     string
	Added    time.Time
	Modified time.Time
	Visited  time.Time
}

// isBookmarkLine reports whether the line holds a bookmark record.
func isBookmarkLine(line string) bool {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, bookmarkPrefix) {
		return false
	}
	rest := t[len(bookmarkPrefix):]
	if rest == "" {
		return true
	}
	switch rest[0] {
	case ' ', '\t', '>', '/':
		return true
	}
	return false
}

// parseBookmark extracts the bookmark attributes from a record line.
// Unknown attributes are ignored; a record without an href is malformed.
// Both self-closing records and opening tags parse, so logs that nest
// metadata under the bookmark element still yield their records.
func parseBookmark(line string) (record, error) {
	dec := xml.NewDecoder(strings.NewReader(strings.TrimSpace(line)))
	for {
		tok, err := dec.Token()
		if err != nil {
			return record{}, fmt.Errorf("invalid bookmark record: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "bookmark" {
			return record{}, fmt.Errorf("invalid bookmark record: unexpected element <%s>", start.Name.Local)
		}

		var r record
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "href":
				r.HRef = attr.Value
			case "added":
				r.Added = parseStamp(attr.Value)
			case "modified":
				r.Modified = parseStamp(attr.Value)
			case "visited":
				r.Visited = parseStamp(attr.Value)
			}
		}
		if r.HRef == "" {
			return record{}, fmt.Errorf("invalid bookmark record: missing href")
		}
		return r, nil
	}
}

// parseStamp parses an RFC 3339 timestamp, returning the zero time for
// anything it cannot read.
func parseStamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// observedAt picks the record's observation time: visited, falling back to
// added, falling back to the current clock reading.
func (r record) observedAt(clk clock.Clock) time.Time {
	switch {
	case !r.Visited.IsZero():
		return r.Visited
	case !r.Added.IsZero():
		return r.Added
	default:
		return clk.Now()
	}
}

// isHTTPLink reports whether the href is a web link worth classifying.
// File and other local URIs in the recent log are not.
func isHTTPLink(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
