package imaging

import (
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// Photo is a decoded photograph with lazily derived colour planes.
type Photo struct {
	img *image.NRGBA

	hsvOnce sync.Once
	hsv     *HSV
}

// NewPhoto copies img into a new Photo anchored at the origin.
func NewPhoto(img image.Image) *Photo {
	return &Photo{img: imaging.Clone(img)}
}

// Image returns the RGB pixels. Callers must not modify them.
func (p *Photo) Image() *image.NRGBA { return p.img }

// Bounds returns the photo rectangle, always anchored at (0,0).
func (p *Photo) Bounds() image.Rectangle { return p.img.Bounds() }

// Width returns the photo width in pixels.
func (p *Photo) Width() int { return p.img.Rect.Dx() }

// Height returns the photo height in pixels.
func (p *Photo) Height() int { return p.img.Rect.Dy() }

// HSV returns the photo's HSV planes, computing them on first use.
func (p *Photo) HSV() *HSV {
	p.hsvOnce.Do(func() {
		p.hsv = ToHSV(p.img)
	})
	return p.hsv
}
