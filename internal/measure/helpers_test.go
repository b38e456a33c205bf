package measure

import (
	"image"
	"image/color"
	"testing"
)

var (
	backgroundColor = color.RGBA{30, 30, 30, 255}
	paperColor      = color.RGBA{245, 245, 245, 255}
	leafColor       = color.RGBA{40, 120, 30, 255}
)

// newScene paints a dark background with a sheet of paper covering paper.
func newScene(width, height int, paper image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if image.Pt(x, y).In(paper) {
				img.SetRGBA(x, y, paperColor)
			} else {
				img.SetRGBA(x, y, backgroundColor)
			}
		}
	}
	return img
}

// fill paints every pixel for which inside returns true.
func fill(img *image.RGBA, c color.RGBA, inside func(x, y int) bool) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if inside(x, y) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func ellipse(cx, cy, rx, ry int) func(x, y int) bool {
	return func(x, y int) bool {
		dx := float64(x-cx) / float64(rx)
		dy := float64(y-cy) / float64(ry)
		return dx*dx+dy*dy <= 1
	}
}

// rhombus covers |x-cx|/a + |y-cy|/b <= 1 in exact integer arithmetic.
func rhombus(cx, cy, a, b int) func(x, y int) bool {
	return func(x, y int) bool {
		return b*iabs(x-cx)+a*iabs(y-cy) <= a*b
	}
}

func rect(r image.Rectangle) func(x, y int) bool {
	return func(x, y int) bool { return image.Pt(x, y).In(r) }
}

func iabs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// maskFrom builds a binary mask of the given size.
func maskFrom(width, height int, inside func(x, y int) bool) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if inside(x, y) {
				m.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return m
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}
