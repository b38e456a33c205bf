//go:build gocv

package detection

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// HoughSegments finds line segments in a binary edge image using OpenCV's
// probabilistic Hough transform. Seed is ignored; OpenCV seeds internally.
func HoughSegments(edges *image.Gray, p HoughParams) ([]Segment, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	width, height := edges.Rect.Dx(), edges.Rect.Dy()
	buf := make([]byte, width*height)
	for y := 0; y < height; y++ {
		copy(buf[y*width:(y+1)*width], edges.Pix[y*edges.Stride:])
	}

	src, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to convert edge image: %w", err)
	}
	defer src.Close()

	lines := gocv.NewMat()
	defer lines.Close()

	gocv.HoughLinesPWithParams(src, &lines, float32(p.Rho), float32(p.Theta), p.Threshold,
		float32(p.MinLineLength), float32(p.MaxLineGap))

	segs := make([]Segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		segs = append(segs, Segment{X1: int(v[0]), Y1: int(v[1]), X2: int(v[2]), Y2: int(v[3])})
		if p.MaxLines > 0 && len(segs) >= p.MaxLines {
			break
		}
	}
	return segs, nil
}
