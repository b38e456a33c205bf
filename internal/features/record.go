package features

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/measure"
)

// Record is the persisted state of one photograph. Absent values are
// omitted and mean "not computed yet".
type Record struct {
	Internal Internal      `json:"internal"`
	Features FeatureValues `json:"features"`
}

// Internal holds the intermediate values the features are derived from.
type Internal struct {
	PxWidthInMM      *float64              `json:"px_width_in_mm,omitempty"`
	PxHeightInMM     *float64              `json:"px_height_in_mm,omitempty"`
	PaperROI         *geometry.Box         `json:"paper_roi,omitempty"`
	PaperROIFallback *measure.SideFallback `json:"paper_roi_fallback,omitempty"`
	LeafVertical     *geometry.Interval    `json:"leaf_vertical,omitempty"`
	Widths           []geometry.Interval   `json:"widths,omitempty"`
	LeafBox          *geometry.Box         `json:"leaf_box,omitempty"`
}

// FeatureValues holds the output features.
type FeatureValues struct {
	Height            *float64  `json:"height,omitempty"`
	MaxWidth          *float64  `json:"max_width,omitempty"`
	WidthRatios       []float64 `json:"width_ratios,omitempty"`
	AverageHue        *float64  `json:"average_hue,omitempty"`
	AverageSaturation *float64  `json:"average_saturation,omitempty"`
	AverageValue      *float64  `json:"average_value,omitempty"`
	TipAngle          *float64  `json:"tip_angle,omitempty"`
	LikelyConvex      *bool     `json:"likely_convex,omitempty"`
	Solidity          *float64  `json:"solidity,omitempty"`
	Perimeter         *float64  `json:"perimeter,omitempty"`
}

// DecodeRecord parses a persisted record. Both the "internal" and the
// "features" groups must be present; intervals and boxes must carry all their
// keys. Failures are reported as *measure.InvalidInputError.
func DecodeRecord(data []byte) (*Record, error) {
	var raw struct {
		Internal json.RawMessage `json:"internal"`
		Features json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, invalidRecord(err)
	}
	if raw.Internal == nil || raw.Features == nil {
		return nil, invalidRecord(errors.New(`record needs both "internal" and "features"`))
	}

	var rec Record
	if err := json.Unmarshal(raw.Internal, &rec.Internal); err != nil {
		return nil, invalidRecord(fmt.Errorf("internal: %w", err))
	}
	if err := json.Unmarshal(raw.Features, &rec.Features); err != nil {
		return nil, invalidRecord(fmt.Errorf("features: %w", err))
	}
	return &rec, nil
}

// Encode renders the record as indented JSON.
func (r *Record) Encode() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ClearRecord returns a copy of rec without n and every value derived from
// it. Stores seeded from the result recompute them.
func ClearRecord(rec *Record, n Node) (*Record, error) {
	if !Valid(n) {
		return nil, &measure.InvalidInputError{What: "node", Err: fmt.Errorf("unknown node %q", n)}
	}
	values := make(map[Node]any)
	for _, m := range dag.order {
		if v, ok := nodes[m].load(rec); ok {
			values[m] = v
		}
	}
	delete(values, n)
	for _, m := range dag.downstream(n) {
		delete(values, m)
	}
	return recordFrom(values), nil
}

func recordFrom(values map[Node]any) *Record {
	rec := &Record{}
	for _, n := range dag.order {
		if v, ok := values[n]; ok {
			nodes[n].save(rec, v)
		}
	}
	return rec
}

func invalidRecord(err error) error {
	return &measure.InvalidInputError{What: "record", Err: err}
}

func ptr[T any](v T) *T { return &v }
