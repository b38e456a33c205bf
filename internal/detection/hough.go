//go:build !gocv

package detection

import (
	"image"
	"math"
	"math/rand"
)

const houghShift = 16

// HoughSegments finds line segments in a binary edge image (non-zero pixels
// are edges) with the progressive probabilistic Hough transform.
func HoughSegments(edges *image.Gray, p HoughParams) ([]Segment, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	width, height := edges.Rect.Dx(), edges.Rect.Dy()
	numAngle := int(math.Round(math.Pi / p.Theta))
	numRho := int(math.Round(float64((width+height)*2+1) / p.Rho))
	if numAngle < 1 || numRho < 1 {
		return nil, nil
	}

	irho := 1 / p.Rho
	cosTab := make([]float64, numAngle)
	sinTab := make([]float64, numAngle)
	for n := 0; n < numAngle; n++ {
		angle := float64(n) * p.Theta
		cosTab[n] = math.Cos(angle) * irho
		sinTab[n] = math.Sin(angle) * irho
	}

	mask := make([]bool, width*height)
	var points []image.Point
	for y := 0; y < height; y++ {
		row := edges.Pix[y*edges.Stride : y*edges.Stride+width]
		for x, v := range row {
			if v != 0 {
				mask[y*width+x] = true
				points = append(points, image.Pt(x, y))
			}
		}
	}

	accum := make([]int32, numAngle*numRho)
	rhoOffset := (numRho - 1) / 2
	rhoIndex := func(n, x, y int) int {
		return int(math.RoundToEven(float64(x)*cosTab[n]+float64(y)*sinTab[n])) + rhoOffset
	}

	rng := rand.New(rand.NewSource(p.Seed))
	var lines []Segment

	for count := len(points); count > 0; count-- {
		idx := rng.Intn(count)
		pt := points[idx]
		points[idx] = points[count-1]

		// already consumed by an earlier segment
		if !mask[pt.Y*width+pt.X] {
			continue
		}

		maxVal, maxN := p.Threshold-1, 0
		for n := 0; n < numAngle; n++ {
			i := n*numRho + rhoIndex(n, pt.X, pt.Y)
			accum[i]++
			if v := int(accum[i]); v > maxVal {
				maxVal, maxN = v, n
			}
		}
		if maxVal < p.Threshold {
			continue
		}

		w := newLineWalk(pt, -sinTab[maxN], cosTab[maxN])

		var ends [2]image.Point
		for k := 0; k < 2; k++ {
			gap := 0
			for x, y := w.start(k); ; x, y = w.step(x, y, k) {
				px, py := w.pixel(x, y)
				if px < 0 || px >= width || py < 0 || py >= height {
					break
				}
				if mask[py*width+px] {
					gap = 0
					ends[k] = image.Pt(px, py)
				} else if gap++; gap > p.MaxLineGap {
					break
				}
			}
		}

		good := abs(ends[1].X-ends[0].X) >= p.MinLineLength ||
			abs(ends[1].Y-ends[0].Y) >= p.MinLineLength

		for k := 0; k < 2; k++ {
			for x, y := w.start(k); ; x, y = w.step(x, y, k) {
				px, py := w.pixel(x, y)
				if px < 0 || px >= width || py < 0 || py >= height {
					break
				}
				if mask[py*width+px] {
					if good {
						for n := 0; n < numAngle; n++ {
							accum[n*numRho+rhoIndex(n, px, py)]--
						}
					}
					mask[py*width+px] = false
				}
				if px == ends[k].X && py == ends[k].Y {
					break
				}
			}
		}

		if good {
			lines = append(lines, Segment{X1: ends[0].X, Y1: ends[0].Y, X2: ends[1].X, Y2: ends[1].Y})
			if p.MaxLines > 0 && len(lines) >= p.MaxLines {
				break
			}
		}
	}

	return lines, nil
}

// lineWalk steps along a line one pixel at a time on its major axis, keeping
// the minor axis in 16.16 fixed point.
type lineWalk struct {
	xMajor bool
	x0, y0 int
	dx, dy int
}

func newLineWalk(pt image.Point, a, b float64) lineWalk {
	w := lineWalk{x0: pt.X, y0: pt.Y}
	if math.Abs(a) > math.Abs(b) {
		w.xMajor = true
		w.dx = 1
		if a <= 0 {
			w.dx = -1
		}
		w.dy = int(math.RoundToEven(b * (1 << houghShift) / math.Abs(a)))
		w.y0 = (w.y0 << houghShift) + (1 << (houghShift - 1))
	} else {
		w.dy = 1
		if b <= 0 {
			w.dy = -1
		}
		w.dx = int(math.RoundToEven(a * (1 << houghShift) / math.Abs(b)))
		w.x0 = (w.x0 << houghShift) + (1 << (houghShift - 1))
	}
	return w
}

func (w lineWalk) start(int) (int, int) { return w.x0, w.y0 }

func (w lineWalk) step(x, y, k int) (int, int) {
	if k > 0 {
		return x - w.dx, y - w.dy
	}
	return x + w.dx, y + w.dy
}

func (w lineWalk) pixel(x, y int) (int, int) {
	if w.xMajor {
		return x, y >> houghShift
	}
	return x >> houghShift, y
}
