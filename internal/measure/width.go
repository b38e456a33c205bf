package measure

import (
	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/imaging"
)

// ProfileWidths measures the leaf width on evenly spaced rows from the top
// leaf row (0%) to the bottom leaf row (100%).
//
// Each interval runs from the first to the last leaf pixel of its row inside
// the ROI. A row without leaf pixels yields an empty interval.
func (p *Pipeline) ProfileWidths(photo *imaging.Photo, roi geometry.Box, leaf geometry.Interval) ([]geometry.Interval, error) {
	if err := checkPhoto(photo); err != nil {
		return nil, err
	}
	if err := checkBox(photo, "paper roi", roi); err != nil {
		return nil, err
	}
	if leaf.IsEmpty() {
		return nil, &InvalidInputError{What: "leaf rows", Err: errEmptyInterval}
	}

	hsv := photo.HSV()
	n := p.cfg.Leaf.WidthSamples
	widths := make([]geometry.Interval, n)
	for i := 0; i < n; i++ {
		y := SampleRow(leaf, i, n)
		first, last, ok := firstAndLast(roi.Horizontal.Length, func(dx int) bool {
			return p.isLeaf(hsv, roi.Horizontal.Origin+dx, y)
		})
		if !ok {
			widths[i] = geometry.Interval{Origin: roi.Horizontal.Origin}
			continue
		}
		widths[i] = geometry.Span(roi.Horizontal.Origin+first, roi.Horizontal.Origin+last+1)
	}

	if MaxWidth(widths) == 0 {
		return nil, detectionFailure("leaf", "no leaf pixels on the sampled rows")
	}
	return widths, nil
}

// SampleRow returns the row at i/(n-1) of the way from the first to the last
// row of leaf.
func SampleRow(leaf geometry.Interval, i, n int) int {
	return leaf.Origin + int(float64(i)/float64(n-1)*float64(leaf.Length-1))
}

// MaxWidth returns the length of the widest interval.
func MaxWidth(widths []geometry.Interval) int {
	best := 0
	for _, w := range widths {
		best = max(best, w.Length)
	}
	return best
}

// WidthRatios expresses every width as a fraction of the widest one.
func WidthRatios(widths []geometry.Interval) []float64 {
	best := MaxWidth(widths)
	ratios := make([]float64, len(widths))
	if best == 0 {
		return ratios
	}
	for i, w := range widths {
		ratios[i] = float64(w.Length) / float64(best)
	}
	return ratios
}

// BoundLeaf computes the leaf bounding box. Starting from the extremes of
// the sampled widths, the left and right edges walk outward column by column
// while leaf pixels continue, climbing upward whenever the leaf extends above
// the current row at the new column. Growth stops at the ROI edges.
func (p *Pipeline) BoundLeaf(photo *imaging.Photo, roi geometry.Box, widths []geometry.Interval, leaf geometry.Interval) (geometry.Box, error) {
	if err := checkPhoto(photo); err != nil {
		return geometry.Box{}, err
	}
	if err := checkBox(photo, "paper roi", roi); err != nil {
		return geometry.Box{}, err
	}

	left, right := -1, -1
	for _, w := range widths {
		if w.IsEmpty() {
			continue
		}
		if left < 0 || w.Origin < left {
			left = w.Origin
		}
		right = max(right, w.End()-1)
	}
	if left < 0 {
		return geometry.Box{}, &InvalidInputError{What: "leaf widths", Err: errEmptyInterval}
	}

	hsv := photo.HSV()
	leafAt := func(x, y int) bool {
		return roi.Contains(x, y) && p.isLeaf(hsv, x, y)
	}
	minX, maxX := roi.Horizontal.Origin, roi.Horizontal.End()-1
	minY := roi.Vertical.Origin

	for row := leaf.Origin; row < leaf.End() && left > minX; row++ {
		for left > minX && leafAt(left-1, row) {
			left--
			for row > minY && leafAt(left, row-1) {
				row--
			}
		}
	}

	for row := leaf.Origin; row < leaf.End() && right < maxX; row++ {
		for right < maxX && leafAt(right+1, row) {
			right++
			for row > minY && leafAt(right, row-1) {
				row--
			}
		}
	}

	box := geometry.Box{Horizontal: geometry.Span(left, right+1), Vertical: leaf}
	p.log.Debug().Str("box", box.String()).Msg("leaf bounded")
	return box, nil
}
