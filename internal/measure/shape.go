package measure

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/leafmetrics/internal/detection"
	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/imaging"
)

// LikelyConvex reports whether the leaf inside leafBox has no horizontal gaps.
func (p *Pipeline) LikelyConvex(photo *imaging.Photo, leafBox geometry.Box) (bool, error) {
	if err := checkPhoto(photo); err != nil {
		return false, err
	}
	if err := checkBox(photo, "leaf box", leafBox); err != nil {
		return false, err
	}
	mask := p.LeafMask(photo, leafBox.Rect())
	return IsLikelyConvex(mask, p.cfg.Leaf.ConvexityRows), nil
}

// IsLikelyConvex samples rows evenly from the top to the bottom of mask. On
// each row every pixel between the first and last set pixel must be set; a
// single gap means the shape is not convex. Rows without set pixels pass.
func IsLikelyConvex(mask *image.Gray, rows int) bool {
	width, height := mask.Rect.Dx(), mask.Rect.Dy()
	if height == 0 || width == 0 {
		return true
	}
	span := geometry.Interval{Length: height}
	for i := 0; i < rows; i++ {
		y := SampleRow(span, i, rows)
		row := mask.Pix[y*mask.Stride : y*mask.Stride+width]
		first, last, ok := firstAndLast(width, func(x int) bool { return row[x] != 0 })
		if !ok {
			continue
		}
		for x := first; x <= last; x++ {
			if row[x] == 0 {
				return false
			}
		}
	}
	return true
}

// AverageColor averages the HSV channels of the leaf pixels inside leafBox.
func (p *Pipeline) AverageColor(photo *imaging.Photo, leafBox geometry.Box) (*imaging.MeanHSV, error) {
	if err := checkPhoto(photo); err != nil {
		return nil, err
	}
	if err := checkBox(photo, "leaf box", leafBox); err != nil {
		return nil, err
	}
	r := leafBox.Rect()
	mean, err := imaging.MeanUnderMask(photo.HSV(), p.LeafMask(photo, r), r)
	if err != nil {
		return nil, detectionFailure("color", "%v", err)
	}
	return mean, nil
}

// Solidity returns the leaf area divided by the area of its convex hull.
// Lobed and serrated leaves score well below 1.
func (p *Pipeline) Solidity(photo *imaging.Photo, leafBox, roi geometry.Box) (float64, error) {
	if err := checkPhoto(photo); err != nil {
		return 0, err
	}
	if err := checkBox(photo, "leaf box", leafBox); err != nil {
		return 0, err
	}
	mask := p.LeafMask(photo, p.leafRegion(leafBox, roi))
	s, ok := MaskSolidity(mask)
	if !ok {
		return 0, detectionFailure("solidity", "no leaf pixels in %v", leafBox)
	}
	return s, nil
}

// MaskSolidity computes the solidity of the set pixels of mask. The hull is
// drawn through pixel centres, so its area is corrected by half the hull
// perimeter plus one to compare with a pixel count.
func MaskSolidity(mask *image.Gray) (float64, bool) {
	area := imaging.CountSet(mask)
	if area == 0 {
		return 0, false
	}
	hull := detection.ConvexHull(detection.Outline(mask))
	hullArea := detection.PolygonArea(hull) + detection.PolygonPerimeter(hull)/2 + 1
	return min(float64(area)/hullArea, 1), true
}

// Perimeter returns the length of the leaf outline in millimetres. The
// outline is the boundary of the largest blob in the leaf mask; each step
// along it is scaled by the pixel size of its axis.
func (p *Pipeline) Perimeter(photo *imaging.Photo, leafBox, roi geometry.Box, pxWidth, pxHeight float64) (float64, error) {
	if err := checkPhoto(photo); err != nil {
		return 0, err
	}
	if err := checkBox(photo, "leaf box", leafBox); err != nil {
		return 0, err
	}
	if pxWidth <= 0 || pxHeight <= 0 {
		return 0, &InvalidInputError{What: "pixel size", Err: fmt.Errorf("%gx%g mm is not positive", pxWidth, pxHeight)}
	}
	mask := p.LeafMask(photo, p.leafRegion(leafBox, roi))
	outline, ok := LargestContour(mask)
	if !ok {
		return 0, detectionFailure("perimeter", "no leaf pixels in %v", leafBox)
	}
	return ScaledLength(outline.Points, pxWidth, pxHeight), nil
}

// LargestContour returns the outline of the blob with the most pixels.
func LargestContour(mask *image.Gray) (detection.Contour, bool) {
	var best detection.Contour
	for _, c := range detection.Contours(mask) {
		if c.Area > best.Area {
			best = c
		}
	}
	return best, best.Area > 0
}

// ScaledLength returns the length of the closed polygon with x steps scaled
// by sx and y steps by sy.
func ScaledLength(poly []image.Point, sx, sy float64) float64 {
	if len(poly) < 2 {
		return 0
	}
	total := 0.0
	for i := range poly {
		d := poly[(i+1)%len(poly)].Sub(poly[i])
		total += math.Hypot(float64(d.X)*sx, float64(d.Y)*sy)
	}
	return total
}
