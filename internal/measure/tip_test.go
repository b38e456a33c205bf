package measure

import (
	"errors"
	"math"
	"testing"

	"github.com/ironsheep/leafmetrics/internal/detection"
)

func deg(rad float64) float64 { return rad * 180 / math.Pi }

func TestTipAngleFromSegments(t *testing.T) {
	cfg := DefaultConfig().Tip
	side := math.Atan(50.0 / 87.0)

	tests := []struct {
		name string
		segs []detection.Segment
		want float64
	}{
		{
			name: "symmetric tip",
			segs: []detection.Segment{
				{X1: 150, Y1: 30, X2: 100, Y2: 117},
				{X1: 150, Y1: 30, X2: 200, Y2: 117},
			},
			want: deg(2 * side),
		},
		{
			name: "same edge skipped",
			segs: []detection.Segment{
				{X1: 150, Y1: 30, X2: 100, Y2: 117},
				{X1: 148, Y1: 31, X2: 102, Y2: 115},
				{X1: 150, Y1: 32, X2: 200, Y2: 117},
			},
			want: deg(side + math.Atan(50.0/85.0)),
		},
		{
			name: "flat edge adds",
			segs: []detection.Segment{
				{X1: 100, Y1: 50, X2: 200, Y2: 52},
				{X1: 150, Y1: 60, X2: 150, Y2: 160},
			},
			want: deg(math.Atan(100.0 / 2.0)),
		},
		{
			name: "same slope subtracts",
			segs: []detection.Segment{
				{X1: 100, Y1: 40, X2: 110, Y2: 140},
				{X1: 150, Y1: 50, X2: 250, Y2: 150},
			},
			want: deg(math.Pi/4 - math.Atan(10.0/100.0)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TipAngleFromSegments(tt.segs, cfg)
			if err != nil {
				t.Fatalf("TipAngleFromSegments failed: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestTipAngleFromSegments_NoPair(t *testing.T) {
	cfg := DefaultConfig().Tip
	tests := []struct {
		name string
		segs []detection.Segment
	}{
		{"empty", nil},
		{"single", []detection.Segment{{X1: 0, Y1: 0, X2: 10, Y2: 100}}},
		{"one edge", []detection.Segment{
			{X1: 150, Y1: 30, X2: 100, Y2: 117},
			{X1: 148, Y1: 31, X2: 102, Y2: 115},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := TipAngleFromSegments(tt.segs, cfg); !errors.Is(err, ErrDetection) {
				t.Errorf("Expected detection failure, got %v", err)
			}
		})
	}
}

func TestTipAngleFromMask_Triangle(t *testing.T) {
	const apexX, apexY, baseY = 150, 30, 260
	halfTan := math.Tan(30 * math.Pi / 180)
	mask := maskFrom(300, 300, func(x, y int) bool {
		if y < apexY || y > baseY {
			return false
		}
		return math.Abs(float64(x-apexX)) <= float64(y-apexY)*halfTan
	})
	p := newTestPipeline(t)

	got, err := p.TipAngleFromMask(mask)
	if err != nil {
		t.Fatalf("TipAngleFromMask failed: %v", err)
	}
	if got < 50 || got > 70 {
		t.Errorf("tip angle: got %.1f, want about 60", got)
	}
}

func TestAngleFromVertical(t *testing.T) {
	tests := []struct {
		seg  detection.Segment
		want float64
	}{
		{detection.Segment{X1: 5, Y1: 0, X2: 5, Y2: 10}, 0},
		{detection.Segment{X1: 0, Y1: 5, X2: 10, Y2: 5}, math.Pi / 2},
		{detection.Segment{X1: 0, Y1: 0, X2: 10, Y2: 10}, math.Pi / 4},
		{detection.Segment{X1: 10, Y1: 0, X2: 0, Y2: 10}, math.Pi / 4},
	}
	for _, tt := range tests {
		if got := angleFromVertical(tt.seg); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("angleFromVertical(%+v): got %f, want %f", tt.seg, got, tt.want)
		}
	}
}
