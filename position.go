package watermark

import (
	"image"
	"strings"
)

// Anchor names a predefined watermark placement.
type Anchor string

const (
	TopLeft     Anchor = "top-left"
	Center      Anchor = "center"
	BottomRight Anchor = "bottom-right"
)

// Margin is the distance in pixels kept between an anchored mark and the
// canvas edge.
const Margin = 10

// Anchors lists the supported anchors in display order.
func Anchors() []Anchor {
	return []Anchor{TopLeft, Center, BottomRight}
}

// Position is either a named anchor or an explicit pixel offset.
type Position struct {
	Anchor Anchor
	Offset image.Point
}

// At returns a position for the named anchor.
func At(anchor Anchor) Position {
	return Position{Anchor: anchor}
}

// CustomPosition returns a position at an explicit offset from the canvas
// origin.
func CustomPosition(x, y int) Position {
	return Position{Offset: image.Pt(x, y)}
}

// ParsePosition converts an anchor name into a Position.
func ParsePosition(s string) (Position, error) {
	anchor := Anchor(strings.ToLower(strings.TrimSpace(s)))
	if !anchor.valid() {
		return Position{}, invalidArgument("parse position", "unknown position %q: use top-left, center or bottom-right", s)
	}
	return At(anchor), nil
}

// IsNamed reports whether the position refers to an anchor.
func (p Position) IsNamed() bool {
	return p.Anchor != ""
}

func (p Position) String() string {
	if p.IsNamed() {
		return string(p.Anchor)
	}
	return p.Offset.String()
}

// resolve returns the offset for content of the given size on canvas.
func (p Position) resolve(canvas, content image.Point) (image.Point, error) {
	if !p.IsNamed() {
		return p.Offset, nil
	}
	return Resolve(canvas, content, p.Anchor)
}

func (a Anchor) valid() bool {
	switch a {
	case TopLeft, Center, BottomRight:
		return true
	}
	return false
}

// Resolve computes the top-left offset of content placed on canvas at the
// given anchor. The result is not clamped to the canvas.
func Resolve(canvas, content image.Point, anchor Anchor) (image.Point, error) {
	switch anchor {
	case TopLeft:
		return image.Pt(Margin, Margin), nil
	case Center:
		return image.Pt(floorDiv(canvas.X-content.X, 2), floorDiv(canvas.Y-content.Y, 2)), nil
	case BottomRight:
		return image.Pt(canvas.X-content.X-Margin, canvas.Y-content.Y-Margin), nil
	}
	return image.Point{}, invalidArgument("resolve position", "unknown position %q: use top-left, center or bottom-right", anchor)
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
