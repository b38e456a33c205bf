package imaging

import (
	"image"
	"math"
	"testing"
)

func TestMeasureDistance(t *testing.T) {
	bounds := image.Rect(0, 0, 200, 200)

	res, err := MeasureDistance(bounds, Point{0, 0}, Point{30, 40}, 0, 0)
	if err != nil {
		t.Fatalf("MeasureDistance failed: %v", err)
	}
	if res.DistancePixels != 50 {
		t.Errorf("DistancePixels: got %f, want 50", res.DistancePixels)
	}
	if res.DeltaX != 30 || res.DeltaY != 40 {
		t.Errorf("Deltas: got %d,%d", res.DeltaX, res.DeltaY)
	}
	if res.DistanceMM != 0 {
		t.Errorf("DistanceMM should be omitted without a scale, got %f", res.DistanceMM)
	}
}

func TestMeasureDistance_Calibrated(t *testing.T) {
	bounds := image.Rect(0, 0, 200, 200)

	res, err := MeasureDistance(bounds, Point{10, 10}, Point{10, 110}, 0.1, 0.2)
	if err != nil {
		t.Fatalf("MeasureDistance failed: %v", err)
	}
	if math.Abs(res.DistanceMM-20) > 1e-9 {
		t.Errorf("DistanceMM: got %f, want 20", res.DistanceMM)
	}
	if res.AngleDegrees != 90 {
		t.Errorf("AngleDegrees: got %f, want 90", res.AngleDegrees)
	}
}

func TestMeasureDistance_OutOfBounds(t *testing.T) {
	if _, err := MeasureDistance(image.Rect(0, 0, 10, 10), Point{0, 0}, Point{10, 5}, 0, 0); err == nil {
		t.Error("Expected error for point outside bounds")
	}
	if _, err := MeasureDistance(image.Rect(0, 0, 10, 10), Point{0, 0}, Point{1, 1}, -1, 1); err == nil {
		t.Error("Expected error for negative scale")
	}
}
