package measure

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/leafmetrics/internal/detection"
	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/imaging"
)

// TipAngle estimates the angle of the leaf tip in degrees.
//
// The leaf outline inside the (padded) leaf box is searched for straight
// segments. Among the segments nearest the top, the first is paired with the
// first later segment that belongs to a different edge; the angle between
// the two, each measured from the vertical, is the tip angle.
func (p *Pipeline) TipAngle(photo *imaging.Photo, leafBox, roi geometry.Box) (float64, error) {
	if err := checkPhoto(photo); err != nil {
		return 0, err
	}
	if err := checkBox(photo, "leaf box", leafBox); err != nil {
		return 0, err
	}

	mask := p.LeafMask(photo, p.leafRegion(leafBox, roi))
	deg, err := p.TipAngleFromMask(mask)
	if err != nil {
		return 0, err
	}
	p.log.Debug().Float64("tip_deg", deg).Msg("tip angle measured")
	return deg, nil
}

// TipAngleFromMask runs the tip estimator on a binary leaf mask.
func (p *Pipeline) TipAngleFromMask(mask *image.Gray) (float64, error) {
	cfg := p.cfg.Tip
	edges := imaging.Gradient(mask, cfg.EdgeKernel)
	segs, err := detection.HoughSegments(edges, cfg.Hough)
	if err != nil {
		return 0, err
	}
	return TipAngleFromSegments(segs, cfg)
}

// TipAngleFromSegments pairs the topmost outline segments into a tip angle.
func TipAngleFromSegments(segs []detection.Segment, cfg TipConfig) (float64, error) {
	if len(segs) == 0 {
		return 0, detectionFailure("tip", "no outline segments")
	}

	top := append([]detection.Segment(nil), segs...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].TopY() < top[j].TopY() })
	if len(top) > cfg.TopSegments {
		top = top[:cfg.TopSegments]
	}

	first := top[0]
	a1 := angleFromVertical(first)
	for _, s := range top[1:] {
		if sameEdge(first, s, cfg) {
			continue
		}
		a2 := angleFromVertical(s)

		var angle float64
		if isFlat(first, cfg) || isFlat(s, cfg) || !sameSlope(first, s) {
			angle = a1 + a2
		} else {
			angle = math.Abs(a1 - a2)
		}
		if angle == 0 {
			break
		}
		return angle * 180 / math.Pi, nil
	}
	return 0, detectionFailure("tip", "no pair of outline segments forms a tip")
}

// angleFromVertical returns the angle between the segment and the vertical,
// in [0, pi/2].
func angleFromVertical(s detection.Segment) float64 {
	dx, dy := s.X2-s.X1, s.Y2-s.Y1
	switch {
	case dx == 0:
		return 0
	case dy == 0:
		return math.Pi / 2
	}
	return math.Atan(math.Abs(float64(dx)) / math.Abs(float64(dy)))
}

// rising reports whether x grows with y along the segment.
func rising(s detection.Segment) bool {
	return (s.X1 <= s.X2 && s.Y1 < s.Y2) || (s.X1 >= s.X2 && s.Y1 > s.Y2)
}

// falling reports whether x shrinks as y grows along the segment.
func falling(s detection.Segment) bool {
	return (s.X1 <= s.X2 && s.Y1 > s.Y2) || (s.X2 <= s.X1 && s.Y2 > s.Y1)
}

func sameSlope(a, b detection.Segment) bool {
	return (rising(a) && rising(b)) || (falling(a) && falling(b))
}

func isFlat(s detection.Segment, cfg TipConfig) bool {
	if s.X1 == s.X2 {
		return false
	}
	return s.Y1 == s.Y2 || angleFromVertical(s) > cfg.FlatAngle
}

// sameEdge reports whether two segments trace the same side of the leaf:
// their endpoints line up, or their directions nearly agree.
func sameEdge(a, b detection.Segment, cfg TipConfig) bool {
	tol := cfg.EndpointTolerance
	if abs(a.X1-b.X1) < tol && abs(a.X2-b.X2) < tol {
		return true
	}
	a1, a2 := angleFromVertical(a), angleFromVertical(b)
	if sameSlope(a, b) {
		return a1 == a2 || math.Abs(a1-a2) < cfg.SameAngle
	}
	return a1+a2 < cfg.SameAngle
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
