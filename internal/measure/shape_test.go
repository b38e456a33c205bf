package measure

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/imaging"
)

func TestIsLikelyConvex(t *testing.T) {
	tests := []struct {
		name   string
		inside func(x, y int) bool
		want   bool
	}{
		{"ellipse", ellipse(50, 50, 30, 45), true},
		{"bowtie", func(x, y int) bool {
			dx, dy := iabs(x-50), iabs(y-50)
			return dx <= 40 && 5*dy <= 4*dx
		}, false},
		{"crescent", func(x, y int) bool {
			return ellipse(50, 50, 40, 40)(x, y) && !ellipse(50, 70, 35, 35)(x, y)
		}, false},
		{"empty", func(int, int) bool { return false }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mask := maskFrom(100, 100, tt.inside)
			if got := IsLikelyConvex(mask, 21); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaskSolidity(t *testing.T) {
	full, ok := MaskSolidity(maskFrom(100, 100, rect(image.Rect(20, 30, 80, 70))))
	if !ok {
		t.Fatal("rectangle should have pixels")
	}
	if full < 0.999 {
		t.Errorf("rectangle solidity: got %f, want 1", full)
	}

	lShape := func(x, y int) bool {
		return rect(image.Rect(10, 10, 90, 30))(x, y) || rect(image.Rect(10, 10, 30, 90))(x, y)
	}
	l, _ := MaskSolidity(maskFrom(100, 100, lShape))
	if l < 0.5 || l > 0.7 {
		t.Errorf("L-shape solidity: got %f, want about 0.61", l)
	}

	if _, ok := MaskSolidity(image.NewGray(image.Rect(0, 0, 10, 10))); ok {
		t.Error("empty mask should report no solidity")
	}
}

func TestAverageColor(t *testing.T) {
	leafRect := image.Rect(50, 60, 150, 140)
	img := newScene(200, 200, image.Rect(0, 0, 200, 200))
	fill(img, leafColor, rect(leafRect))
	photo := imaging.NewPhoto(img)
	p := newTestPipeline(t)

	mean, err := p.AverageColor(photo, geometry.BoxFromRect(leafRect))
	if err != nil {
		t.Fatalf("AverageColor failed: %v", err)
	}

	wh, ws, wv := imaging.RGBToHSV(leafColor.R, leafColor.G, leafColor.B)
	if mean.Hue != float64(wh) || mean.Saturation != float64(ws) || mean.Value != float64(wv) {
		t.Errorf("got (%f,%f,%f), want (%d,%d,%d)", mean.Hue, mean.Saturation, mean.Value, wh, ws, wv)
	}
	if mean.Pixels != leafRect.Dx()*leafRect.Dy() {
		t.Errorf("pixels: got %d, want %d", mean.Pixels, leafRect.Dx()*leafRect.Dy())
	}
}

func TestAverageColor_NoLeaf(t *testing.T) {
	photo := imaging.NewPhoto(newScene(100, 100, image.Rect(0, 0, 100, 100)))
	p := newTestPipeline(t)

	_, err := p.AverageColor(photo, geometry.BoxFromRect(image.Rect(10, 10, 50, 50)))
	if !errors.Is(err, ErrDetection) {
		t.Errorf("Expected detection failure, got %v", err)
	}
}

func TestSolidity_Photo(t *testing.T) {
	img := newScene(300, 300, image.Rect(0, 0, 300, 300))
	fill(img, leafColor, ellipse(150, 150, 60, 100))
	photo := imaging.NewPhoto(img)
	p := newTestPipeline(t)

	leafBox := geometry.BoxFromRect(image.Rect(90, 50, 211, 251))
	s, err := p.Solidity(photo, leafBox, geometry.BoxFromRect(photo.Bounds()))
	if err != nil {
		t.Fatalf("Solidity failed: %v", err)
	}
	if math.Abs(s-1) > 0.05 {
		t.Errorf("ellipse solidity: got %f, want near 1", s)
	}
}

func TestPerimeter_Photo(t *testing.T) {
	img := newScene(300, 300, image.Rect(0, 0, 300, 300))
	fill(img, leafColor, rect(image.Rect(100, 100, 160, 200)))
	photo := imaging.NewPhoto(img)
	p := newTestPipeline(t)
	leafBox := geometry.BoxFromRect(image.Rect(100, 100, 160, 200))
	roi := geometry.BoxFromRect(photo.Bounds())

	got, err := p.Perimeter(photo, leafBox, roi, 0.5, 0.25)
	if err != nil {
		t.Fatalf("Perimeter failed: %v", err)
	}
	// 59 steps across and 99 down on each side.
	if want := 2*59*0.5 + 2*99*0.25; math.Abs(got-want) > 1e-9 {
		t.Errorf("perimeter: got %f mm, want %f", got, want)
	}

	if _, err := p.Perimeter(photo, leafBox, roi, 0, 0.25); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero pixel width: expected invalid input, got %v", err)
	}

	empty := imaging.NewPhoto(newScene(300, 300, image.Rect(0, 0, 300, 300)))
	if _, err := p.Perimeter(empty, leafBox, roi, 0.5, 0.25); !errors.Is(err, ErrDetection) {
		t.Errorf("no leaf: expected detection failure, got %v", err)
	}
}

func TestLargestContour(t *testing.T) {
	mask := maskFrom(50, 50, func(x, y int) bool {
		speck := x >= 2 && x < 4 && y >= 2 && y < 4
		blob := x >= 20 && x < 30 && y >= 10 && y < 40
		return speck || blob
	})

	c, ok := LargestContour(mask)
	if !ok {
		t.Fatal("expected a contour")
	}
	if c.Area != 300 || c.Points[0] != image.Pt(20, 10) {
		t.Errorf("got blob of %d pixels starting at %v, want 300 at (20,10)", c.Area, c.Points[0])
	}

	if _, ok := LargestContour(maskFrom(10, 10, func(int, int) bool { return false })); ok {
		t.Error("empty mask should have no contour")
	}
}

func TestScaledLength(t *testing.T) {
	square := []image.Point{{0, 0}, {4, 0}, {4, 3}, {0, 3}}
	tests := []struct {
		name   string
		sx, sy float64
		want   float64
	}{
		{"unit", 1, 1, 14},
		{"anisotropic", 0.5, 2, 2*4*0.5 + 2*3*2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScaledLength(square, tt.sx, tt.sy); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
	if got := ScaledLength([]image.Point{{1, 1}}, 1, 1); got != 0 {
		t.Errorf("single point: got %f", got)
	}
}
