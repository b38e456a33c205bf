package features

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/imaging"
	"github.com/ironsheep/leafmetrics/internal/measure"
)

// Pipeline is the set of measurement stages a Store calls into.
// *measure.Pipeline implements it.
type Pipeline interface {
	Config() measure.Config
	LocateSheet(photo *imaging.Photo) (measure.SheetResult, error)
	PixelSize(photo *imaging.Photo, roi geometry.Box, axis measure.Axis) (float64, error)
	LocateLeafVertical(photo *imaging.Photo, roi geometry.Box) (geometry.Interval, error)
	ProfileWidths(photo *imaging.Photo, roi geometry.Box, leaf geometry.Interval) ([]geometry.Interval, error)
	BoundLeaf(photo *imaging.Photo, roi geometry.Box, widths []geometry.Interval, leaf geometry.Interval) (geometry.Box, error)
	AverageColor(photo *imaging.Photo, leafBox geometry.Box) (*imaging.MeanHSV, error)
	TipAngle(photo *imaging.Photo, leafBox, roi geometry.Box) (float64, error)
	LikelyConvex(photo *imaging.Photo, leafBox geometry.Box) (bool, error)
	Solidity(photo *imaging.Photo, leafBox, roi geometry.Box) (float64, error)
	Perimeter(photo *imaging.Photo, leafBox, roi geometry.Box, pxWidth, pxHeight float64) (float64, error)
}

var _ Pipeline = (*measure.Pipeline)(nil)

// Store lazily computes and caches the measurements of one photograph.
type Store struct {
	photo    *imaging.Photo
	pipeline Pipeline
	values   map[Node]any
	modified bool
	log      zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to trace computations.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates an empty store for photo.
func New(photo *imaging.Photo, p Pipeline, opts ...Option) *Store {
	s := &Store{
		photo:    photo,
		pipeline: p,
		values:   make(map[Node]any),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolve makes sure every target is present. Missing values are computed
// in dependency order, and only where a target actually needs them: a
// present value is trusted without looking at its inputs. Computing a value
// drops everything downstream of it, so the plan is rebuilt after each step.
func (s *Store) resolve(targets ...Node) error {
	for {
		plan := s.missing(targets)
		if len(plan) == 0 {
			return nil
		}
		n := plan[0]

		start := time.Now()
		v, err := nodes[n].compute(s)
		if err != nil {
			return fmt.Errorf("failed to compute %s: %w", n, err)
		}
		dropped := s.drop(dag.downstream(n))
		s.values[n] = v
		s.modified = true

		s.log.Debug().
			Str("node", string(n)).
			Dur("took", time.Since(start)).
			Int("invalidated", dropped).
			Msg("computed")
	}
}

// missing lists, in dependency order, the absent nodes needed to produce
// targets.
func (s *Store) missing(targets []Node) []Node {
	seen := make(map[Node]bool)
	var out []Node
	stack := append([]Node(nil), targets...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] || s.Has(n) {
			continue
		}
		seen[n] = true
		out = append(out, n)
		stack = append(stack, dag.deps[n]...)
	}
	dag.sort(out)
	return out
}

func (s *Store) drop(ns []Node) int {
	dropped := 0
	for _, n := range ns {
		if _, ok := s.values[n]; ok {
			delete(s.values, n)
			dropped++
		}
	}
	return dropped
}

// GetFeatures returns every output feature by name, computing what is
// missing. Width ratios are reported as width_ratio_0 ... width_ratio_100 by
// percentage of leaf height; likely_convex is 1 or 0.
func (s *Store) GetFeatures() (map[string]float64, error) {
	if err := s.resolve(featureNodes...); err != nil {
		return nil, err
	}

	out := map[string]float64{
		"height":    s.values[Height].(float64),
		"max_width": s.values[MaxWidth].(float64),
		"tip_angle": s.values[TipAngle].(float64),
		"solidity":  s.values[Solidity].(float64),
		"perimeter": s.values[Perimeter].(float64),
	}
	ratios := s.values[WidthRatios].([]float64)
	for i, r := range ratios {
		pct := 0
		if len(ratios) > 1 {
			pct = i * 100 / (len(ratios) - 1)
		}
		out[fmt.Sprintf("width_ratio_%d", pct)] = r
	}
	mean := s.values[AverageColor].(imaging.MeanHSV)
	out["average_hue"] = mean.Hue
	out["average_saturation"] = mean.Saturation
	out["average_value"] = mean.Value
	out["likely_convex"] = 0
	if s.values[Convexity].(bool) {
		out["likely_convex"] = 1
	}
	return out, nil
}

// ToRecord computes everything that is missing and returns a full snapshot.
func (s *Store) ToRecord() (*Record, error) {
	if err := s.resolve(dag.order...); err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

// Snapshot returns the values present right now without computing anything.
func (s *Store) Snapshot() *Record {
	return recordFrom(s.values)
}

// LoadPartial adopts the values present in rec as already computed. A record
// that does not fit the pipeline configuration is rejected with
// *measure.InvalidInputError and the store is left as it was.
func (s *Store) LoadPartial(rec *Record) error {
	if rec == nil {
		return invalidRecord(errors.New("nil record"))
	}
	if err := s.checkRecord(rec); err != nil {
		return invalidRecord(err)
	}

	loaded := 0
	for _, n := range dag.order {
		if v, ok := nodes[n].load(rec); ok {
			s.values[n] = v
			loaded++
		}
	}
	s.log.Debug().Int("loaded", loaded).Msg("record adopted")
	return nil
}

func (s *Store) checkRecord(rec *Record) error {
	samples := s.pipeline.Config().Leaf.WidthSamples
	in, f := rec.Internal, rec.Features
	switch {
	case len(in.Widths) != 0 && len(in.Widths) != samples:
		return fmt.Errorf("widths: got %d entries, want %d", len(in.Widths), samples)
	case len(f.WidthRatios) != 0 && len(f.WidthRatios) != samples:
		return fmt.Errorf("width_ratios: got %d entries, want %d", len(f.WidthRatios), samples)
	case in.PxWidthInMM != nil && *in.PxWidthInMM <= 0:
		return errors.New("px_width_in_mm must be positive")
	case in.PxHeightInMM != nil && *in.PxHeightInMM <= 0:
		return errors.New("px_height_in_mm must be positive")
	case in.PaperROI != nil && in.PaperROI.IsEmpty():
		return errors.New("paper_roi is empty")
	case in.LeafBox != nil && in.LeafBox.IsEmpty():
		return errors.New("leaf_box is empty")
	}
	return nil
}

// WasModified reports whether any value was computed rather than loaded.
func (s *Store) WasModified() bool { return s.modified }

// Has reports whether n is currently cached.
func (s *Store) Has(n Node) bool {
	_, ok := s.values[n]
	return ok
}

// Invalidate drops n and everything derived from it.
func (s *Store) Invalidate(n Node) error {
	if !Valid(n) {
		return &measure.InvalidInputError{What: "node", Err: fmt.Errorf("unknown node %q", n)}
	}
	dropped := s.drop(append([]Node{n}, dag.downstream(n)...))
	s.log.Debug().Str("node", string(n)).Int("dropped", dropped).Msg("invalidated")
	return nil
}

// Photo returns the photograph the store measures.
func (s *Store) Photo() *imaging.Photo { return s.photo }

// Sheet returns the paper ROI with its per-side fallback flags.
func (s *Store) Sheet() (measure.SheetResult, error) {
	return get[measure.SheetResult](s, PaperROI)
}

// PixelSize returns millimetres per pixel along axis.
func (s *Store) PixelSize(axis measure.Axis) (float64, error) {
	if axis == measure.Height {
		return get[float64](s, PxHeightInMM)
	}
	return get[float64](s, PxWidthInMM)
}

// LeafBox returns the leaf bounding box.
func (s *Store) LeafBox() (geometry.Box, error) {
	return get[geometry.Box](s, LeafBox)
}

// LeafVertical returns the rows the leaf spans.
func (s *Store) LeafVertical() (geometry.Interval, error) {
	return get[geometry.Interval](s, LeafVertical)
}

// Widths returns the sampled width intervals.
func (s *Store) Widths() ([]geometry.Interval, error) {
	return get[[]geometry.Interval](s, Widths)
}

func get[T any](s *Store, n Node) (T, error) {
	if err := s.resolve(n); err != nil {
		var zero T
		return zero, err
	}
	return s.values[n].(T), nil
}

// Accessors for values already resolved as dependencies.

func (s *Store) roi() geometry.Box {
	return s.values[PaperROI].(measure.SheetResult).ROI
}

func (s *Store) vertical() geometry.Interval {
	return s.values[LeafVertical].(geometry.Interval)
}

func (s *Store) widths() []geometry.Interval {
	return s.values[Widths].([]geometry.Interval)
}

func (s *Store) leafBox() geometry.Box {
	return s.values[LeafBox].(geometry.Box)
}
