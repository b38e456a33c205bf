package geometry

import (
	"encoding/json"
	"fmt"
	"image"
)

// Box is an axis-aligned rectangle made of two intervals.
type Box struct {
	Horizontal Interval `json:"horizontal"`
	Vertical   Interval `json:"vertical"`
}

// BoxFromRect converts an image.Rectangle to a Box.
func BoxFromRect(r image.Rectangle) Box {
	r = r.Canon()
	return Box{
		Horizontal: Span(r.Min.X, r.Max.X),
		Vertical:   Span(r.Min.Y, r.Max.Y),
	}
}

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.Horizontal.Origin, b.Vertical.Origin, b.Horizontal.End(), b.Vertical.End())
}

// Width is the horizontal length.
func (b Box) Width() int { return b.Horizontal.Length }

// Height is the vertical length.
func (b Box) Height() int { return b.Vertical.Length }

// IsEmpty reports whether the box covers no pixel.
func (b Box) IsEmpty() bool {
	return b.Horizontal.IsEmpty() || b.Vertical.IsEmpty()
}

// Contains reports whether (x, y) lies inside the box.
func (b Box) Contains(x, y int) bool {
	return b.Horizontal.Contains(x) && b.Vertical.Contains(y)
}

// Intersect returns the overlap of two boxes.
func (b Box) Intersect(o Box) Box {
	return Box{
		Horizontal: b.Horizontal.Intersect(o.Horizontal),
		Vertical:   b.Vertical.Intersect(o.Vertical),
	}
}

// Inset shrinks the box by n pixels on every side. Boxes too small to shrink
// collapse to an empty box at their centre.
func (b Box) Inset(n int) Box {
	shrink := func(i Interval) Interval {
		if i.Length <= 2*n {
			return Interval{Origin: i.Middle()}
		}
		return Interval{Origin: i.Origin + n, Length: i.Length - 2*n}
	}
	return Box{Horizontal: shrink(b.Horizontal), Vertical: shrink(b.Vertical)}
}

func (b Box) String() string {
	return fmt.Sprintf("%v x %v", b.Horizontal, b.Vertical)
}

// UnmarshalJSON requires both axes to be present.
func (b *Box) UnmarshalJSON(data []byte) error {
	var raw struct {
		Horizontal *Interval `json:"horizontal"`
		Vertical   *Interval `json:"vertical"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Horizontal == nil || raw.Vertical == nil {
		return fmt.Errorf("box requires horizontal and vertical intervals")
	}
	b.Horizontal, b.Vertical = *raw.Horizontal, *raw.Vertical
	return nil
}
