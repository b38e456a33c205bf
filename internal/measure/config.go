package measure

import (
	"errors"
	"math"

	"github.com/ironsheep/leafmetrics/internal/detection"
)

// Config holds every tunable of the pipeline.
type Config struct {
	Sheet SheetConfig `mapstructure:"sheet" json:"sheet"`
	Scale ScaleConfig `mapstructure:"scale" json:"scale"`
	Leaf  LeafConfig  `mapstructure:"leaf" json:"leaf"`
	Tip   TipConfig   `mapstructure:"tip" json:"tip"`
}

// SheetConfig tunes the paper locator.
type SheetConfig struct {
	// BlurSize is the box filter size applied before thresholding. Default 8.
	BlurSize int `mapstructure:"blur_size" json:"blur_size"`

	// WhiteThreshold separates paper from background on the blurred gray
	// image: brighter pixels are paper. Default 120.
	WhiteThreshold int `mapstructure:"white_threshold" json:"white_threshold"`

	// NoiseKernel is the opening kernel that removes small bright specks.
	// Default 26.
	NoiseKernel int `mapstructure:"noise_kernel" json:"noise_kernel"`

	// EdgeKernel is the gradient and dilation kernel for the edge image.
	// Default 3.
	EdgeKernel int `mapstructure:"edge_kernel" json:"edge_kernel"`

	// Hough detects the paper edges. Default: 1 px, 90 degrees, 50 votes,
	// min length 150, max gap 80.
	Hough detection.HoughParams `mapstructure:"hough" json:"hough"`

	// MarginSamples is the number of rows (and columns) sampled for the
	// approximate margins. Default 30.
	MarginSamples int `mapstructure:"margin_samples" json:"margin_samples"`

	// SampleStart and SampleSpan place the sample lines over the central part of
	// the image, as fractions of its size. Defaults 0.2 and 0.6.
	SampleStart float64 `mapstructure:"sample_start" json:"sample_start"`
	SampleSpan  float64 `mapstructure:"sample_span" json:"sample_span"`

	// AxisTolerance is the largest endpoint offset, in pixels, for a
	// segment to count as vertical or horizontal. Default 20.
	AxisTolerance int `mapstructure:"axis_tolerance" json:"axis_tolerance"`

	// SideDistancePercent is how close, as a percentage of the smaller image
	// side, a line must be to an approximate margin to belong to that side.
	// Default 1.8.
	SideDistancePercent float64 `mapstructure:"side_distance_percent" json:"side_distance_percent"`

	// PaddingPercent shrinks the final ROI on every side, as a percentage of
	// the smaller image side. Default 0.9.
	PaddingPercent float64 `mapstructure:"padding_percent" json:"padding_percent"`
}

// ScaleConfig tunes the pixel size calibration.
type ScaleConfig struct {
	// SheetWidthMM and SheetHeightMM are the physical paper size. A4.
	SheetWidthMM  float64 `mapstructure:"sheet_width_mm" json:"sheet_width_mm"`
	SheetHeightMM float64 `mapstructure:"sheet_height_mm" json:"sheet_height_mm"`

	// SampleFractions position the sample lines across the ROI.
	// Default 0.40, 0.45, 0.50, 0.55, 0.60.
	SampleFractions []float64 `mapstructure:"sample_fractions" json:"sample_fractions"`

	// ConsecutivePixels is the run of paper pixels that marks the paper
	// edge. Default 20.
	ConsecutivePixels int `mapstructure:"consecutive_pixels" json:"consecutive_pixels"`

	// LeafMargin dilates the leaf mask before sampling paper colour.
	// Default 15.
	LeafMargin int `mapstructure:"leaf_margin" json:"leaf_margin"`

	// Paper saturation may reach the SaturationPercentile of sampled paper
	// plus SaturationSlack; paper value must reach the ValuePercentile
	// minus ValueSlack. Defaults 0.98/10 and 0.02/10.
	SaturationPercentile float64 `mapstructure:"saturation_percentile" json:"saturation_percentile"`
	SaturationSlack      float64 `mapstructure:"saturation_slack" json:"saturation_slack"`
	ValuePercentile      float64 `mapstructure:"value_percentile" json:"value_percentile"`
	ValueSlack           float64 `mapstructure:"value_slack" json:"value_slack"`
}

// LeafConfig tunes leaf segmentation and the leaf geometry stages.
type LeafConfig struct {
	// The leaf colour predicate in 8-bit HSV. Defaults: hue 0-80,
	// saturation at least 110, value at most 150.
	HueMin        int `mapstructure:"hue_min" json:"hue_min"`
	HueMax        int `mapstructure:"hue_max" json:"hue_max"`
	SaturationMin int `mapstructure:"saturation_min" json:"saturation_min"`
	ValueMax      int `mapstructure:"value_max" json:"value_max"`

	// MaskCloseKernel closes holes in the leaf mask. Default 21.
	MaskCloseKernel int `mapstructure:"mask_close_kernel" json:"mask_close_kernel"`

	// RetrySpanFraction: the vertical search re-examines the other half of
	// any region at least this fraction of the image height. Default 0.05.
	RetrySpanFraction float64 `mapstructure:"retry_span_fraction" json:"retry_span_fraction"`

	// WidthSamples is the number of evenly spaced width measurements.
	// Default 11.
	WidthSamples int `mapstructure:"width_samples" json:"width_samples"`

	// ConvexityRows is the number of rows sampled by the convexity test.
	// Default 21.
	ConvexityRows int `mapstructure:"convexity_rows" json:"convexity_rows"`

	// CropPadding widens the leaf box before building masks. Default 10.
	CropPadding int `mapstructure:"crop_padding" json:"crop_padding"`
}

// TipConfig tunes the tip angle estimator.
type TipConfig struct {
	// EdgeKernel is the gradient kernel for the leaf outline. Default 3.
	EdgeKernel int `mapstructure:"edge_kernel" json:"edge_kernel"`

	// Hough detects outline segments. Default: 1 px, 1 degree, 50 votes,
	// min length 40, max gap 30.
	Hough detection.HoughParams `mapstructure:"hough" json:"hough"`

	// TopSegments keeps the segments nearest the top. Default 14.
	TopSegments int `mapstructure:"top_segments" json:"top_segments"`

	// FlatAngle: segments further than this from vertical, in radians,
	// count as flat. Default 1.39626 (80 degrees).
	FlatAngle float64 `mapstructure:"flat_angle" json:"flat_angle"`

	// SameAngle: segments whose angles differ by less than this, in radians,
	// belong to the same edge. Default 0.2356 (13.5 degrees).
	SameAngle float64 `mapstructure:"same_angle" json:"same_angle"`

	// EndpointTolerance: segments whose endpoints are this close on x belong
	// to the same edge. Default 8.
	EndpointTolerance int `mapstructure:"endpoint_tolerance" json:"endpoint_tolerance"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Sheet: SheetConfig{
			BlurSize:       8,
			WhiteThreshold: 120,
			NoiseKernel:    26,
			EdgeKernel:     3,
			Hough: detection.HoughParams{
				Rho:           1,
				Theta:         math.Pi / 2,
				Threshold:     50,
				MinLineLength: 150,
				MaxLineGap:    80,
				Seed:          1,
			},
			MarginSamples:       30,
			SampleStart:         0.2,
			SampleSpan:          0.6,
			AxisTolerance:       20,
			SideDistancePercent: 1.8,
			PaddingPercent:      0.9,
		},
		Scale: ScaleConfig{
			SheetWidthMM:         210,
			SheetHeightMM:        297,
			SampleFractions:      []float64{0.40, 0.45, 0.50, 0.55, 0.60},
			ConsecutivePixels:    20,
			LeafMargin:           15,
			SaturationPercentile: 0.98,
			SaturationSlack:      10,
			ValuePercentile:      0.02,
			ValueSlack:           10,
		},
		Leaf: LeafConfig{
			HueMin:            0,
			HueMax:            80,
			SaturationMin:     110,
			ValueMax:          150,
			MaskCloseKernel:   21,
			RetrySpanFraction: 0.05,
			WidthSamples:      11,
			ConvexityRows:     21,
			CropPadding:       10,
		},
		Tip: TipConfig{
			EdgeKernel: 3,
			Hough: detection.HoughParams{
				Rho:           1,
				Theta:         math.Pi / 180,
				Threshold:     50,
				MinLineLength: 40,
				MaxLineGap:    30,
				Seed:          1,
			},
			TopSegments:       14,
			FlatAngle:         1.39626,
			SameAngle:         0.2356,
			EndpointTolerance: 8,
		},
	}
}

// Validate rejects configurations the stages cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Sheet.MarginSamples <= 0:
		return &InvalidInputError{What: "config", Err: errors.New("sheet.margin_samples must be positive")}
	case c.Sheet.WhiteThreshold < 0 || c.Sheet.WhiteThreshold > 255:
		return &InvalidInputError{What: "config", Err: errors.New("sheet.white_threshold out of range")}
	case c.Scale.SheetWidthMM <= 0 || c.Scale.SheetHeightMM <= 0:
		return &InvalidInputError{What: "config", Err: errors.New("sheet size must be positive")}
	case len(c.Scale.SampleFractions) == 0:
		return &InvalidInputError{What: "config", Err: errors.New("scale.sample_fractions is empty")}
	case c.Scale.ConsecutivePixels <= 0:
		return &InvalidInputError{What: "config", Err: errors.New("scale.consecutive_pixels must be positive")}
	case c.Leaf.WidthSamples < 2:
		return &InvalidInputError{What: "config", Err: errors.New("leaf.width_samples must be at least 2")}
	case c.Leaf.ConvexityRows < 2:
		return &InvalidInputError{What: "config", Err: errors.New("leaf.convexity_rows must be at least 2")}
	case c.Tip.TopSegments <= 0:
		return &InvalidInputError{What: "config", Err: errors.New("tip.top_segments must be positive")}
	}
	return nil
}
