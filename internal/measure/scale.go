package measure

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/imaging"
)

// Axis selects the image direction a pixel size refers to.
type Axis int

const (
	// Width is the horizontal axis, matched to the short side of the sheet.
	Width Axis = iota
	// Height is the vertical axis, matched to the long side of the sheet.
	Height
)

func (a Axis) String() string {
	if a == Height {
		return "height"
	}
	return "width"
}

// paperBounds are the colour limits that classify a pixel as paper.
type paperBounds struct {
	maxSaturation float64
	minValue      float64
}

func (b paperBounds) isPaper(hsv *imaging.HSV, x, y int) bool {
	_, s, v := hsv.At(x, y)
	return float64(s) <= b.maxSaturation && float64(v) >= b.minValue
}

// PixelSize returns the size of one pixel in millimetres along axis.
//
// Paper colour limits are sampled inside roi away from the leaf. Five sample
// lines across the ROI are then scanned over the whole photo for the first
// run of paper pixels from each end; the median paper span is matched to the
// physical sheet size.
func (p *Pipeline) PixelSize(photo *imaging.Photo, roi geometry.Box, axis Axis) (float64, error) {
	if err := checkPhoto(photo); err != nil {
		return 0, err
	}
	if err := checkBox(photo, "paper roi", roi); err != nil {
		return 0, err
	}
	cfg := p.cfg.Scale
	hsv := photo.HSV()

	bounds, err := p.paperBounds(photo, roi)
	if err != nil {
		return 0, err
	}

	var (
		lineLen int
		across  geometry.Interval
		sizeMM  float64
	)
	if axis == Width {
		lineLen, across, sizeMM = photo.Width(), roi.Vertical, cfg.SheetWidthMM
	} else {
		lineLen, across, sizeMM = photo.Height(), roi.Horizontal, cfg.SheetHeightMM
	}

	var spans []float64
	for _, f := range cfg.SampleFractions {
		pos := across.Origin + int(f*float64(across.Length))
		paper := func(i int) bool {
			if axis == Width {
				return bounds.isPaper(hsv, i, pos)
			}
			return bounds.isPaper(hsv, pos, i)
		}
		if span, ok := paperSpan(lineLen, cfg.ConsecutivePixels, paper); ok {
			spans = append(spans, float64(span))
		}
	}
	if len(spans) == 0 {
		return 0, detectionFailure("scale", "no paper run of %d pixels along the %s", cfg.ConsecutivePixels, axis)
	}

	px := median(spans)
	p.log.Debug().
		Str("axis", axis.String()).
		Float64("paper_px", px).
		Float64("max_saturation", bounds.maxSaturation).
		Float64("min_value", bounds.minValue).
		Msg("paper span measured")

	return sizeMM / px, nil
}

// paperBounds derives the saturation ceiling and value floor of paper from
// the ROI pixels that are not near the leaf.
func (p *Pipeline) paperBounds(photo *imaging.Photo, roi geometry.Box) (paperBounds, error) {
	cfg := p.cfg.Scale
	hsv := photo.HSV()
	r := roi.Rect()

	leaf := imaging.MaskWhere(hsv, r, p.cfg.Leaf.IsLeafColor)
	leaf = imaging.Dilate(leaf, cfg.LeafMargin)

	n := r.Dx() * r.Dy()
	sats := make([]float64, 0, n)
	vals := make([]float64, 0, n)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := leaf.Pix[(y-r.Min.Y)*leaf.Stride:]
		for x := r.Min.X; x < r.Max.X; x++ {
			if row[x-r.Min.X] != 0 {
				continue
			}
			_, s, v := hsv.At(x, y)
			sats = append(sats, float64(s))
			vals = append(vals, float64(v))
		}
	}
	if len(sats) == 0 {
		return paperBounds{}, detectionFailure("scale", "no paper pixels left in %v", roi)
	}

	sort.Float64s(sats)
	sort.Float64s(vals)
	return paperBounds{
		maxSaturation: stat.Quantile(cfg.SaturationPercentile, stat.Empirical, sats, nil) + cfg.SaturationSlack,
		minValue:      stat.Quantile(cfg.ValuePercentile, stat.Empirical, vals, nil) - cfg.ValueSlack,
	}, nil
}

// paperSpan finds the first run of `run` paper pixels from each end of a line
// of n pixels and returns the number of pixels between the two runs,
// inclusive.
func paperSpan(n, run int, paper func(int) bool) (int, bool) {
	start, count := -1, 0
	for i := 0; i < n; i++ {
		if !paper(i) {
			count = 0
			continue
		}
		if count++; count == run {
			start = i - run + 1
			break
		}
	}
	if start < 0 {
		return 0, false
	}

	end := -1
	count = 0
	for i := n - 1; i >= start; i-- {
		if !paper(i) {
			count = 0
			continue
		}
		if count++; count == run {
			end = i + run - 1
			break
		}
	}
	if end < start {
		return 0, false
	}
	return end - start + 1, true
}

// PixelSizes measures both axes.
func (p *Pipeline) PixelSizes(photo *imaging.Photo, roi geometry.Box) (width, height float64, err error) {
	if width, err = p.PixelSize(photo, roi, Width); err != nil {
		return 0, 0, fmt.Errorf("failed to measure pixel width: %w", err)
	}
	if height, err = p.PixelSize(photo, roi, Height); err != nil {
		return 0, 0, fmt.Errorf("failed to measure pixel height: %w", err)
	}
	return width, height, nil
}
