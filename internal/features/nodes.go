package features

import (
	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/imaging"
	"github.com/ironsheep/leafmetrics/internal/measure"
)

// nodeDef ties a node to its computation and its place in a Record.
type nodeDef struct {
	compute func(s *Store) (any, error)
	load    func(r *Record) (any, bool)
	save    func(r *Record, v any)
}

var nodes = map[Node]nodeDef{
	PaperROI: {
		compute: func(s *Store) (any, error) {
			return s.pipeline.LocateSheet(s.photo)
		},
		load: func(r *Record) (any, bool) {
			if r.Internal.PaperROI == nil {
				return nil, false
			}
			res := measure.SheetResult{ROI: *r.Internal.PaperROI}
			if r.Internal.PaperROIFallback != nil {
				res.Fallback = *r.Internal.PaperROIFallback
			}
			return res, true
		},
		save: func(r *Record, v any) {
			res := v.(measure.SheetResult)
			r.Internal.PaperROI = ptr(res.ROI)
			r.Internal.PaperROIFallback = ptr(res.Fallback)
		},
	},
	PxWidthInMM: {
		compute: func(s *Store) (any, error) {
			return s.pipeline.PixelSize(s.photo, s.roi(), measure.Width)
		},
		load: func(r *Record) (any, bool) { return loadFloat(r.Internal.PxWidthInMM) },
		save: func(r *Record, v any) { r.Internal.PxWidthInMM = ptr(v.(float64)) },
	},
	PxHeightInMM: {
		compute: func(s *Store) (any, error) {
			return s.pipeline.PixelSize(s.photo, s.roi(), measure.Height)
		},
		load: func(r *Record) (any, bool) { return loadFloat(r.Internal.PxHeightInMM) },
		save: func(r *Record, v any) { r.Internal.PxHeightInMM = ptr(v.(float64)) },
	},
	LeafVertical: {
		compute: func(s *Store) (any, error) {
			return s.pipeline.LocateLeafVertical(s.photo, s.roi())
		},
		load: func(r *Record) (any, bool) {
			if r.Internal.LeafVertical == nil {
				return nil, false
			}
			return *r.Internal.LeafVertical, true
		},
		save: func(r *Record, v any) { r.Internal.LeafVertical = ptr(v.(geometry.Interval)) },
	},
	Widths: {
		compute: func(s *Store) (any, error) {
			return s.pipeline.ProfileWidths(s.photo, s.roi(), s.vertical())
		},
		load: func(r *Record) (any, bool) {
			if len(r.Internal.Widths) == 0 {
				return nil, false
			}
			return append([]geometry.Interval(nil), r.Internal.Widths...), true
		},
		save: func(r *Record, v any) {
			r.Internal.Widths = append([]geometry.Interval(nil), v.([]geometry.Interval)...)
		},
	},
	LeafBox: {
		compute: func(s *Store) (any, error) {
			return s.pipeline.BoundLeaf(s.photo, s.roi(), s.widths(), s.vertical())
		},
		load: func(r *Record) (any, bool) {
			if r.Internal.LeafBox == nil {
				return nil, false
			}
			return *r.Internal.LeafBox, true
		},
		save: func(r *Record, v any) { r.Internal.LeafBox = ptr(v.(geometry.Box)) },
	},
	Height: {
		compute: func(s *Store) (any, error) {
			return float64(s.vertical().Length) * s.values[PxHeightInMM].(float64), nil
		},
		load: func(r *Record) (any, bool) { return loadFloat(r.Features.Height) },
		save: func(r *Record, v any) { r.Features.Height = ptr(v.(float64)) },
	},
	MaxWidth: {
		compute: func(s *Store) (any, error) {
			return float64(measure.MaxWidth(s.widths())) * s.values[PxWidthInMM].(float64), nil
		},
		load: func(r *Record) (any, bool) { return loadFloat(r.Features.MaxWidth) },
		save: func(r *Record, v any) { r.Features.MaxWidth = ptr(v.(float64)) },
	},
	WidthRatios: {
		compute: func(s *Store) (any, error) {
			return measure.WidthRatios(s.widths()), nil
		},
		load: func(r *Record) (any, bool) {
			if len(r.Features.WidthRatios) == 0 {
				return nil, false
			}
			return append([]float64(nil), r.Features.WidthRatios...), true
		},
		save: func(r *Record, v any) {
			r.Features.WidthRatios = append([]float64(nil), v.([]float64)...)
		},
	},
	AverageColor: {
		compute: func(s *Store) (any, error) {
			mean, err := s.pipeline.AverageColor(s.photo, s.leafBox())
			if err != nil {
				return nil, err
			}
			return *mean, nil
		},
		load: func(r *Record) (any, bool) {
			f := r.Features
			if f.AverageHue == nil || f.AverageSaturation == nil || f.AverageValue == nil {
				return nil, false
			}
			return imaging.MeanHSV{Hue: *f.AverageHue, Saturation: *f.AverageSaturation, Value: *f.AverageValue}, true
		},
		save: func(r *Record, v any) {
			mean := v.(imaging.MeanHSV)
			r.Features.AverageHue = ptr(mean.Hue)
			r.Features.AverageSaturation = ptr(mean.Saturation)
			r.Features.AverageValue = ptr(mean.Value)
		},
	},
	TipAngle: {
		compute: func(s *Store) (any, error) {
			return s.pipeline.TipAngle(s.photo, s.leafBox(), s.roi())
		},
		load: func(r *Record) (any, bool) { return loadFloat(r.Features.TipAngle) },
		save: func(r *Record, v any) { r.Features.TipAngle = ptr(v.(float64)) },
	},
	Convexity: {
		compute: func(s *Store) (any, error) {
			return s.pipeline.LikelyConvex(s.photo, s.leafBox())
		},
		load: func(r *Record) (any, bool) {
			if r.Features.LikelyConvex == nil {
				return nil, false
			}
			return *r.Features.LikelyConvex, true
		},
		save: func(r *Record, v any) { r.Features.LikelyConvex = ptr(v.(bool)) },
	},
	Solidity: {
		compute: func(s *Store) (any, error) {
			return s.pipeline.Solidity(s.photo, s.leafBox(), s.roi())
		},
		load: func(r *Record) (any, bool) { return loadFloat(r.Features.Solidity) },
		save: func(r *Record, v any) { r.Features.Solidity = ptr(v.(float64)) },
	},
	Perimeter: {
		compute: func(s *Store) (any, error) {
			pxW, pxH := s.values[PxWidthInMM].(float64), s.values[PxHeightInMM].(float64)
			return s.pipeline.Perimeter(s.photo, s.leafBox(), s.roi(), pxW, pxH)
		},
		load: func(r *Record) (any, bool) { return loadFloat(r.Features.Perimeter) },
		save: func(r *Record, v any) { r.Features.Perimeter = ptr(v.(float64)) },
	},
}

func loadFloat(v *float64) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}
