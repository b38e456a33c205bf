package measure

import (
	"image"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/leafmetrics/internal/detection"
	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/imaging"
)

// SideFallback records which ROI sides had no detected paper edge and were
// taken from the approximate margins instead.
type SideFallback struct {
	Left   bool `json:"left"`
	Right  bool `json:"right"`
	Top    bool `json:"top"`
	Bottom bool `json:"bottom"`
}

// Any reports whether at least one side fell back.
func (f SideFallback) Any() bool {
	return f.Left || f.Right || f.Top || f.Bottom
}

// SheetResult is the outcome of LocateSheet.
type SheetResult struct {
	// ROI is the paper region, shrunk by the configured padding.
	ROI geometry.Box `json:"roi"`

	// Fallback flags the sides set from approximate margins.
	Fallback SideFallback `json:"fallback"`

	// Lines is the number of straight segments found in the edge image.
	Lines int `json:"lines"`
}

// margins are approximate paper edges as pixel coordinates: left and top
// are the first paper column/row, right and bottom the last.
type margins struct {
	left, right, top, bottom int
}

// LocateSheet finds the rectangle of white paper the leaf lies on.
//
// The photo is thresholded into paper and background, specks are opened away
// and the outline of the paper is searched for straight segments. Segments
// close to the approximate paper margins (medians of scans across the
// central part of the photo) define the sides; the innermost segment per
// side wins. Sides without a segment use the approximate margin.
func (p *Pipeline) LocateSheet(photo *imaging.Photo) (SheetResult, error) {
	if err := checkPhoto(photo); err != nil {
		return SheetResult{}, err
	}
	cfg := p.cfg.Sheet
	width, height := photo.Width(), photo.Height()

	binary := imaging.PaperMask(photo.Image(), cfg.BlurSize, uint8(cfg.WhiteThreshold))
	binary = imaging.Open(binary, cfg.NoiseKernel)

	edges := imaging.Gradient(binary, cfg.EdgeKernel)
	edges = imaging.Dilate(edges, cfg.EdgeKernel)

	segs, err := detection.HoughSegments(edges, cfg.Hough)
	if err != nil {
		return SheetResult{}, err
	}
	if len(segs) == 0 {
		return SheetResult{}, detectionFailure("sheet", "no straight paper edges found")
	}

	approx, err := p.approximateMargins(binary)
	if err != nil {
		return SheetResult{}, err
	}

	minSide := min(width, height)
	sides := sideEdges{approx: approx, dist: int(cfg.SideDistancePercent / 100 * float64(minSide))}
	for _, s := range segs {
		sides.add(s, cfg.AxisTolerance)
	}
	edge, fallback := sides.resolve()

	pad := int(cfg.PaddingPercent / 100 * float64(minSide))
	roi := geometry.Box{
		Horizontal: geometry.Span(edge.left+pad, edge.right-pad),
		Vertical:   geometry.Span(edge.top+pad, edge.bottom-pad),
	}.Intersect(geometry.BoxFromRect(photo.Bounds()))
	if roi.IsEmpty() {
		return SheetResult{}, detectionFailure("sheet", "paper region %v collapsed", roi)
	}

	if fallback.Any() {
		p.log.Warn().Interface("fallback", fallback).Msg("paper edges missing, using approximate margins")
	}
	p.log.Debug().
		Int("segments", len(segs)).
		Str("roi", roi.String()).
		Msg("paper located")

	return SheetResult{ROI: roi, Fallback: fallback, Lines: len(segs)}, nil
}

// sideEdges collects the paper sides supported by straight segments.
type sideEdges struct {
	approx margins
	dist   int

	edge margins
	has  [4]bool // left, right, top, bottom
}

// near reports whether either endpoint coordinate lies within dist of side.
func (e *sideEdges) near(a, b, side int) bool {
	in := func(v int) bool { return side-e.dist < v && v < side+e.dist }
	return in(a) || in(b)
}

// add assigns s to the side it runs along, if any.
func (e *sideEdges) add(s detection.Segment, tol int) {
	switch {
	case s.IsVertical(tol):
		if e.near(s.X1, s.X2, e.approx.left) {
			e.edge.left = innermost(e.has[0], e.edge.left, max(s.X1, s.X2), true)
			e.has[0] = true
		} else if e.near(s.X1, s.X2, e.approx.right) {
			e.edge.right = innermost(e.has[1], e.edge.right, min(s.X1, s.X2), false)
			e.has[1] = true
		}
	case s.IsHorizontal(tol):
		if e.near(s.Y1, s.Y2, e.approx.top) {
			e.edge.top = innermost(e.has[2], e.edge.top, max(s.Y1, s.Y2), true)
			e.has[2] = true
		} else if e.near(s.Y1, s.Y2, e.approx.bottom) {
			e.edge.bottom = innermost(e.has[3], e.edge.bottom, min(s.Y1, s.Y2), false)
			e.has[3] = true
		}
	}
}

// resolve returns the side coordinates, falling back to the approximate
// margin for sides without a segment.
func (e *sideEdges) resolve() (margins, SideFallback) {
	edge := e.edge
	var fallback SideFallback
	if !e.has[0] {
		edge.left, fallback.Left = e.approx.left, true
	}
	if !e.has[1] {
		edge.right, fallback.Right = e.approx.right, true
	}
	if !e.has[2] {
		edge.top, fallback.Top = e.approx.top, true
	}
	if !e.has[3] {
		edge.bottom, fallback.Bottom = e.approx.bottom, true
	}
	return edge, fallback
}

// innermost keeps the side coordinate closest to the paper centre.
func innermost(seen bool, current, candidate int, lowSide bool) int {
	if !seen {
		return candidate
	}
	if lowSide {
		return max(current, candidate)
	}
	return min(current, candidate)
}

// approximateMargins scans rows and columns across the central part of the
// paper mask and takes the median first and last paper pixel on each.
func (p *Pipeline) approximateMargins(binary *image.Gray) (margins, error) {
	cfg := p.cfg.Sheet
	width, height := binary.Rect.Dx(), binary.Rect.Dy()
	set := func(x, y int) bool { return binary.Pix[y*binary.Stride+x] != 0 }

	var lefts, rights, tops, bottoms []float64
	for _, y := range samplePositions(height, cfg.MarginSamples, cfg.SampleStart, cfg.SampleSpan) {
		first, last, ok := firstAndLast(width, func(x int) bool { return set(x, y) })
		if ok {
			lefts = append(lefts, float64(first))
			rights = append(rights, float64(last))
		}
	}
	for _, x := range samplePositions(width, cfg.MarginSamples, cfg.SampleStart, cfg.SampleSpan) {
		first, last, ok := firstAndLast(height, func(y int) bool { return set(x, y) })
		if ok {
			tops = append(tops, float64(first))
			bottoms = append(bottoms, float64(last))
		}
	}
	if len(lefts) == 0 || len(tops) == 0 {
		return margins{}, detectionFailure("sheet", "no paper found on the sample lines")
	}

	return margins{
		left:   int(median(lefts)),
		right:  int(median(rights)),
		top:    int(median(tops)),
		bottom: int(median(bottoms)),
	}, nil
}

// samplePositions returns n evenly stepped coordinates starting at
// start*size and covering span*size.
func samplePositions(size, n int, start, span float64) []int {
	first := int(start * float64(size))
	step := max(int(span*float64(size)/float64(n)), 1)
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pos := first + i*step
		if pos >= size {
			break
		}
		out = append(out, pos)
	}
	return out
}

// firstAndLast returns the first and last index in [0, n) where hit is true.
func firstAndLast(n int, hit func(int) bool) (first, last int, ok bool) {
	first = -1
	for i := 0; i < n; i++ {
		if hit(i) {
			first = i
			break
		}
	}
	if first < 0 {
		return 0, 0, false
	}
	for i := n - 1; i >= first; i-- {
		if hit(i) {
			return first, i, true
		}
	}
	return first, first, true
}

// median returns the middle value of xs. xs is sorted in place.
func median(xs []float64) float64 {
	sort.Float64s(xs)
	return stat.Quantile(0.5, stat.Empirical, xs, nil)
}
