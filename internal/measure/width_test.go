package measure

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/imaging"
)

func TestProfileWidths_Rhombus(t *testing.T) {
	const cx, cy, a, b = 200, 200, 100, 150
	img := newScene(400, 400, image.Rect(0, 0, 400, 400))
	fill(img, leafColor, rhombus(cx, cy, a, b))
	photo := imaging.NewPhoto(img)
	roi := geometry.BoxFromRect(photo.Bounds())
	leaf := geometry.Span(cy-b, cy+b+1)
	p := newTestPipeline(t)

	widths, err := p.ProfileWidths(photo, roi, leaf)
	if err != nil {
		t.Fatalf("ProfileWidths failed: %v", err)
	}
	if len(widths) != 11 {
		t.Fatalf("got %d widths, want 11", len(widths))
	}

	for i, w := range widths {
		y := SampleRow(leaf, i, 11)
		half := (a*b - a*iabs(y-cy)) / b
		want := geometry.Span(cx-half, cx+half+1)
		if w != want {
			t.Errorf("width %d (row %d): got %v, want %v", i, y, w, want)
		}
	}

	if widths[0].Length != 1 || widths[10].Length != 1 {
		t.Errorf("tips should be one pixel wide, got %d and %d", widths[0].Length, widths[10].Length)
	}
	if widths[5].Length != 2*a+1 {
		t.Errorf("middle width: got %d, want %d", widths[5].Length, 2*a+1)
	}
}

func TestProfileWidths_Errors(t *testing.T) {
	photo := imaging.NewPhoto(newScene(100, 100, image.Rect(0, 0, 100, 100)))
	roi := geometry.BoxFromRect(photo.Bounds())
	p := newTestPipeline(t)

	if _, err := p.ProfileWidths(photo, roi, geometry.Span(10, 90)); !errors.Is(err, ErrDetection) {
		t.Errorf("no leaf: expected detection failure, got %v", err)
	}
	if _, err := p.ProfileWidths(photo, roi, geometry.Interval{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty rows: expected invalid input, got %v", err)
	}
}

func TestWidthRatios(t *testing.T) {
	widths := []geometry.Interval{
		{Origin: 5, Length: 0},
		{Origin: 5, Length: 50},
		{Origin: 5, Length: 100},
		{Origin: 5, Length: 25},
	}
	want := []float64{0, 0.5, 1, 0.25}
	got := WidthRatios(widths)
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("ratio %d: got %f, want %f", i, got[i], want[i])
		}
	}

	for _, r := range WidthRatios(make([]geometry.Interval, 3)) {
		if r != 0 {
			t.Errorf("all-empty widths should give zero ratios, got %f", r)
		}
	}
}

func TestBoundLeaf_GrowsPastSampledRows(t *testing.T) {
	img := newScene(400, 400, image.Rect(0, 0, 400, 400))
	fill(img, leafColor, rhombus(200, 200, 100, 150))
	// a lobe reaching left, with a stem climbing to an arm above it
	fill(img, leafColor, rect(image.Rect(60, 115, 161, 126)))
	fill(img, leafColor, rect(image.Rect(55, 60, 60, 126)))
	fill(img, leafColor, rect(image.Rect(40, 60, 60, 71)))
	photo := imaging.NewPhoto(img)
	roi := geometry.BoxFromRect(photo.Bounds())
	leaf := geometry.Span(50, 351)
	p := newTestPipeline(t)

	widths := []geometry.Interval{geometry.Span(100, 301)}
	box, err := p.BoundLeaf(photo, roi, widths, leaf)
	if err != nil {
		t.Fatalf("BoundLeaf failed: %v", err)
	}
	if want := geometry.Span(40, 301); box.Horizontal != want {
		t.Errorf("horizontal: got %v, want %v", box.Horizontal, want)
	}
	if box.Vertical != leaf {
		t.Errorf("vertical: got %v, want %v", box.Vertical, leaf)
	}
}

func TestBoundLeaf_NoWidths(t *testing.T) {
	photo := imaging.NewPhoto(newScene(50, 50, image.Rect(0, 0, 50, 50)))
	p := newTestPipeline(t)

	_, err := p.BoundLeaf(photo, geometry.BoxFromRect(photo.Bounds()), make([]geometry.Interval, 11), geometry.Span(0, 50))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected invalid input, got %v", err)
	}
}
