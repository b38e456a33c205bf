package measure

import (
	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/imaging"
)

// LocateLeafVertical finds the rows spanned by the leaf inside the paper ROI.
//
// Each boundary is found by binary search on "does this row contain a leaf
// pixel". A leaf is not convex, so a tested row can fall into a pocket and steer
// the search the wrong way; whenever the candidate found inside a large
// enough region does not agree with the row it claims to bound, the other
// half of that region is searched as well.
//
// The result is the half-open interval [top, bottom+1).
func (p *Pipeline) LocateLeafVertical(photo *imaging.Photo, roi geometry.Box) (geometry.Interval, error) {
	if err := checkPhoto(photo); err != nil {
		return geometry.Interval{}, err
	}
	if err := checkBox(photo, "paper roi", roi); err != nil {
		return geometry.Interval{}, err
	}

	hsv := photo.HSV()
	rowHasLeaf := func(y int) bool {
		for x := roi.Horizontal.Origin; x < roi.Horizontal.End(); x++ {
			if p.isLeaf(hsv, x, y) {
				return true
			}
		}
		return false
	}
	s := boundarySearch{
		hasLeaf:  rowHasLeaf,
		minRetry: p.cfg.Leaf.RetrySpanFraction * float64(photo.Height()),
	}

	top, err := s.find(roi.Vertical, true)
	if err != nil {
		return geometry.Interval{}, err
	}
	bottom, err := s.find(roi.Vertical, false)
	if err != nil {
		return geometry.Interval{}, err
	}

	if !rowHasLeaf(top) || !rowHasLeaf(bottom) || bottom < top {
		return geometry.Interval{}, detectionFailure("leaf", "no leaf rows found in %v", roi.Vertical)
	}

	p.log.Debug().Int("top", top).Int("bottom", bottom).Msg("leaf rows located")
	return geometry.Span(top, bottom+1), nil
}

// boundarySearch locates the first (top) or last (bottom) row holding leaf.
type boundarySearch struct {
	hasLeaf func(int) bool

	// minRetry is the shortest region, in rows, whose other half is
	// searched again.
	minRetry float64
}

type searchFrame struct {
	region  geometry.Interval
	half    geometry.Interval
	retried bool
}

// find runs the binary search with an explicit stack of pending regions.
// For the top boundary a hit at the middle row means the boundary is at or above
// it; for the bottom boundary, at or below it.
func (s boundarySearch) find(region geometry.Interval, top bool) (int, error) {
	if region.IsEmpty() {
		return 0, detectionFailure("leaf", "empty search region")
	}

	var (
		stack  []searchFrame
		result int
	)
	cur := region

search:
	for {
		for {
			mid := cur.Middle()
			hit := s.hasLeaf(mid)
			if cur.Length <= 1 {
				result = mid
				switch {
				case !hit && top:
					result = mid + 1
				case !hit && !top:
					result = mid - 1
				}
				break
			}

			half := cur.SecondHalf()
			if hit == top {
				half = cur.FirstHalf()
			}
			stack = append(stack, searchFrame{region: cur, half: half})
			cur = half
		}

		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.retried || float64(f.region.Length) < s.minRetry || s.hasLeaf(result) {
				stack = stack[:len(stack)-1]
				continue
			}
			other, err := f.region.OtherHalf(f.half)
			if err != nil {
				return 0, err
			}
			f.retried = true
			cur = other
			continue search
		}
		return result, nil
	}
}
