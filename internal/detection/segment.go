package detection

import (
	"fmt"
	"math"
)

// Segment is a detected line segment between two pixel endpoints.
type Segment struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return math.Hypot(float64(s.X2-s.X1), float64(s.Y2-s.Y1))
}

// TopY returns the smaller of the two endpoint rows.
func (s Segment) TopY() int {
	return min(s.Y1, s.Y2)
}

// IsVertical reports whether both endpoints lie within tol columns.
func (s Segment) IsVertical(tol int) bool {
	return abs(s.X2-s.X1) < tol
}

// IsHorizontal reports whether both endpoints lie within tol rows.
func (s Segment) IsHorizontal(tol int) bool {
	return abs(s.Y2-s.Y1) < tol
}

// HoughParams configures HoughSegments.
type HoughParams struct {
	// Rho is the distance resolution of the accumulator in pixels.
	Rho float64 `mapstructure:"rho" json:"rho"`

	// Theta is the angle resolution of the accumulator in radians.
	Theta float64 `mapstructure:"theta" json:"theta"`

	// Threshold is the number of votes a line needs before it is traced.
	Threshold int `mapstructure:"threshold" json:"threshold"`

	// MinLineLength discards traced segments shorter than this on both axes.
	MinLineLength int `mapstructure:"min_line_length" json:"min_line_length"`

	// MaxLineGap is the largest run of missing pixels bridged while tracing.
	MaxLineGap int `mapstructure:"max_line_gap" json:"max_line_gap"`

	// MaxLines stops the search early; zero means unlimited.
	MaxLines int `mapstructure:"max_lines" json:"max_lines"`

	// Seed fixes the order in which edge pixels are visited.
	Seed int64 `mapstructure:"seed" json:"seed"`
}

func (p HoughParams) validate() error {
	if p.Rho <= 0 || p.Theta <= 0 || p.Theta > math.Pi {
		return fmt.Errorf("invalid hough resolution rho=%v theta=%v", p.Rho, p.Theta)
	}
	if p.Threshold <= 0 {
		return fmt.Errorf("hough threshold must be positive, got %d", p.Threshold)
	}
	if p.MinLineLength < 0 || p.MaxLineGap < 0 {
		return fmt.Errorf("negative hough length limits")
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
