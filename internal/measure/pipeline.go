package measure

import (
	"image"

	"github.com/rs/zerolog"

	"github.com/ironsheep/leafmetrics/internal/geometry"
	"github.com/ironsheep/leafmetrics/internal/imaging"
)

// Pipeline runs the measurement stages with a fixed configuration. It holds
// no per-photo state and is safe for concurrent use.
type Pipeline struct {
	cfg Config
	log zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for stage diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New creates a pipeline. The configuration is validated up front.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: cfg, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// IsLeafColor reports whether an HSV triple belongs to the leaf. Every stage
// segments the leaf with this one predicate.
func (c LeafConfig) IsLeafColor(hue, sat, val uint8) bool {
	return int(hue) >= c.HueMin && int(hue) <= c.HueMax &&
		int(sat) >= c.SaturationMin && int(val) <= c.ValueMax
}

// isLeaf reports whether (x, y) is a leaf pixel. Coordinates outside the
// photo are never leaf.
func (p *Pipeline) isLeaf(hsv *imaging.HSV, x, y int) bool {
	if !image.Pt(x, y).In(hsv.Rect) {
		return false
	}
	return p.cfg.Leaf.IsLeafColor(hsv.At(x, y))
}

// LeafMask segments the leaf inside region and closes small holes. The
// mask is anchored at region.Min.
//
// The closing runs on region widened by one kernel, so the crop border never
// acts as foreground for the erosion; only the photo border does.
func (p *Pipeline) LeafMask(photo *imaging.Photo, region image.Rectangle) *image.Gray {
	region = region.Intersect(photo.Bounds())
	k := p.cfg.Leaf.MaskCloseKernel
	outer := region.Inset(-k).Intersect(photo.Bounds())
	mask := imaging.MaskWhere(photo.HSV(), outer, p.cfg.Leaf.IsLeafColor)
	closed := imaging.Close(mask, k)
	return imaging.CropMask(closed, region.Sub(outer.Min))
}

// leafRegion widens the leaf box by the crop padding, staying inside bound.
func (p *Pipeline) leafRegion(leaf, bound geometry.Box) image.Rectangle {
	pad := p.cfg.Leaf.CropPadding
	return geometry.Box{
		Horizontal: leaf.Horizontal.Grow(pad, bound.Horizontal),
		Vertical:   leaf.Vertical.Grow(pad, bound.Vertical),
	}.Rect()
}

func checkPhoto(photo *imaging.Photo) error {
	if photo == nil || photo.Width() == 0 || photo.Height() == 0 {
		return &InvalidInputError{What: "photo", Err: errEmptyPhoto}
	}
	return nil
}

func checkBox(photo *imaging.Photo, what string, b geometry.Box) error {
	if b.IsEmpty() || !b.Rect().In(photo.Bounds()) {
		return &InvalidInputError{What: what, Err: errBoxOutside(b, photo.Bounds())}
	}
	return nil
}
