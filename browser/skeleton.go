package browser

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

// measures every element under body in document order
//
//go:embed skeleton.js
var skeletonScript string

// Attr is element attribute as name and value.
type Attr [2]string

// Box is element with its bounding rectangle in viewport coordinates.
type Box struct {
	Tag    string  `json:"tag"`
	Attrs  []Attr  `json:"attrs"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Measurement is what in-page script reports.
type Measurement struct {
	HTMLAttrs []Attr `json:"html"`
	BodyAttrs []Attr `json:"body"`
	Boxes     []Box  `json:"boxes"`
}

// ParseMeasurement decodes in-page script result.
func ParseMeasurement(data string) (*Measurement, error) {
	var m Measurement
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unable to decode page measurement: %w", err)
	}
	return &m, nil
}

// overlaps reports if span [a, b) intersects [0, limit). Degenerate span is
// a point and must lie inside.
func overlaps(a, b, limit float64) bool {
	if a == b {
		return 0 <= a && a < limit
	}
	return a < limit && b > 0
}

// Visible reports if box intersects viewport of given size.
func (b *Box) Visible(width, height float64) bool {
	return overlaps(b.Top, b.Bottom, height) && overlaps(b.Left, b.Right, width)
}

// BuildSkeleton serializes elements visible in viewport into empty markup
// document keeping their tags and attributes.
func BuildSkeleton(m *Measurement, width, height int) string {
	var sb strings.Builder
	sb.WriteString("<html")
	writeAttrs(&sb, m.HTMLAttrs)
	sb.WriteString("><head></head><body")
	writeAttrs(&sb, m.BodyAttrs)
	sb.WriteByte('>')
	for i := range m.Boxes {
		b := &m.Boxes[i]
		if !b.Visible(float64(width), float64(height)) {
			continue
		}
		tag := strings.ToLower(b.Tag)
		sb.WriteByte('<')
		sb.WriteString(tag)
		writeAttrs(&sb, b.Attrs)
		sb.WriteString("></")
		sb.WriteString(tag)
		sb.WriteByte('>')
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

// attribute values are written verbatim
func writeAttrs(sb *strings.Builder, attrs []Attr) {
	for _, a := range attrs {
		sb.WriteByte(' ')
		sb.WriteString(a[0])
		sb.WriteString(`="`)
		sb.WriteString(a[1])
		sb.WriteByte('"')
	}
}
