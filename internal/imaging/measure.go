package imaging

import (
	"fmt"
	"image"
	"math"
)

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DistanceResult reports the distance between two points in pixels and, once a
// scale is known, in millimetres.
type DistanceResult struct {
	DistancePixels float64 `json:"distance_pixels"`
	DeltaX         int     `json:"delta_x"`
	DeltaY         int     `json:"delta_y"`
	AngleDegrees   float64 `json:"angle_degrees"`
	DistanceMM     float64 `json:"distance_mm,omitempty"`
	DeltaXMM       float64 `json:"delta_x_mm,omitempty"`
	DeltaYMM       float64 `json:"delta_y_mm,omitempty"`
}

// MeasureDistance measures the segment from a to b. mmPerPxX and mmPerPxY
// convert each axis to millimetres; pass zero for both to skip the
// calibrated fields.
func MeasureDistance(bounds image.Rectangle, a, b Point, mmPerPxX, mmPerPxY float64) (*DistanceResult, error) {
	for _, p := range []Point{a, b} {
		if !image.Pt(p.X, p.Y).In(bounds) {
			return nil, fmt.Errorf("point (%d,%d) outside image bounds %v", p.X, p.Y, bounds)
		}
	}
	if mmPerPxX < 0 || mmPerPxY < 0 {
		return nil, fmt.Errorf("negative scale %.4f x %.4f", mmPerPxX, mmPerPxY)
	}

	dx := b.X - a.X
	dy := b.Y - a.Y
	distance := math.Hypot(float64(dx), float64(dy))

	// 0 = right, 90 = down
	angle := math.Atan2(float64(dy), float64(dx)) * 180 / math.Pi

	res := &DistanceResult{
		DistancePixels: math.Round(distance*100) / 100,
		DeltaX:         dx,
		DeltaY:         dy,
		AngleDegrees:   math.Round(angle*10) / 10,
	}
	if mmPerPxX > 0 && mmPerPxY > 0 {
		xmm := float64(dx) * mmPerPxX
		ymm := float64(dy) * mmPerPxY
		res.DeltaXMM = math.Round(xmm*100) / 100
		res.DeltaYMM = math.Round(ymm*100) / 100
		res.DistanceMM = math.Round(math.Hypot(xmm, ymm)*100) / 100
	}
	return res, nil
}
