package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"
)

// HSV stores three interleaved 8-bit planes: hue (0-179), saturation and value.
type HSV struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// NewHSV allocates an all-zero HSV image.
func NewHSV(r image.Rectangle) *HSV {
	w, h := r.Dx(), r.Dy()
	return &HSV{Pix: make([]uint8, 3*w*h), Stride: 3 * w, Rect: r}
}

// ToHSV converts an RGB image to HSV, row bands in parallel.
func ToHSV(img *image.NRGBA) *HSV {
	bounds := img.Bounds()
	out := NewHSV(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	width := bounds.Dx()

	parallel.Line(bounds.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			src := img.Pix[y*img.Stride : y*img.Stride+4*width]
			dst := out.Pix[y*out.Stride : y*out.Stride+3*width]
			for x := 0; x < width; x++ {
				h, s, v := RGBToHSV(src[4*x], src[4*x+1], src[4*x+2])
				dst[3*x], dst[3*x+1], dst[3*x+2] = h, s, v
			}
		}
	})
	return out
}

// ToNRGBA converts the HSV planes back to an opaque RGB image.
func (h *HSV) ToNRGBA() *image.NRGBA {
	width, height := h.Rect.Dx(), h.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, width, height))

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			src := h.Pix[y*h.Stride:]
			dst := out.Pix[y*out.Stride:]
			for x := 0; x < width; x++ {
				r, g, b := HSVToRGB(src[3*x], src[3*x+1], src[3*x+2])
				dst[4*x], dst[4*x+1], dst[4*x+2], dst[4*x+3] = r, g, b, 0xff
			}
		}
	})
	return out
}

// At returns the hue, saturation and value at (x, y).
func (h *HSV) At(x, y int) (hue, sat, val uint8) {
	i := y*h.Stride + 3*x
	return h.Pix[i], h.Pix[i+1], h.Pix[i+2]
}

// Hue returns the hue channel at (x, y).
func (h *HSV) Hue(x, y int) uint8 { return h.Pix[y*h.Stride+3*x] }

// Saturation returns the saturation channel at (x, y).
func (h *HSV) Saturation(x, y int) uint8 { return h.Pix[y*h.Stride+3*x+1] }

// Value returns the value channel at (x, y).
func (h *HSV) Value(x, y int) uint8 { return h.Pix[y*h.Stride+3*x+2] }

// Set writes an HSV triple at (x, y).
func (h *HSV) Set(x, y int, hue, sat, val uint8) {
	i := y*h.Stride + 3*x
	h.Pix[i], h.Pix[i+1], h.Pix[i+2] = hue, sat, val
}

// RGBToHSV converts an 8-bit RGB triple to 8-bit HSV (hue halved).
func RGBToHSV(r, g, b uint8) (hue, sat, val uint8) {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	hf, sf, vf := c.Hsv()
	h := math.Round(hf / 2)
	if h >= 180 {
		h = 0
	}
	return uint8(h), uint8(math.Round(sf * 255)), uint8(math.Round(vf * 255))
}

// HSVToRGB converts an 8-bit HSV triple (hue halved) back to RGB.
func HSVToRGB(hue, sat, val uint8) (r, g, b uint8) {
	c := colorful.Hsv(float64(hue)*2, float64(sat)/255, float64(val)/255)
	return c.Clamped().RGB255()
}

// MeanHSV is the average colour of a set of pixels in 8-bit HSV units.
type MeanHSV struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Value      float64 `json:"value"`
	Pixels     int     `json:"pixels"`
}

// Hex renders the mean colour as "#RRGGBB".
func (m MeanHSV) Hex() string {
	return colorful.Hsv(m.Hue*2, m.Saturation/255, m.Value/255).Clamped().Hex()
}

// MeanUnderMask averages the HSV channels of every pixel inside region whose
// mask value is non-zero. The mask is indexed relative to region.Min.
func MeanUnderMask(h *HSV, mask *image.Gray, region image.Rectangle) (*MeanHSV, error) {
	region = region.Intersect(h.Rect)
	if region.Empty() {
		return nil, fmt.Errorf("empty sampling region")
	}
	if mask.Rect.Dx() < region.Dx() || mask.Rect.Dy() < region.Dy() {
		return nil, fmt.Errorf("mask %v smaller than region %v", mask.Rect, region)
	}

	n := region.Dx() * region.Dy()
	hues := make([]float64, 0, n)
	sats := make([]float64, 0, n)
	vals := make([]float64, 0, n)
	for y := region.Min.Y; y < region.Max.Y; y++ {
		row := mask.Pix[(y-region.Min.Y)*mask.Stride:]
		for x := region.Min.X; x < region.Max.X; x++ {
			if row[x-region.Min.X] == 0 {
				continue
			}
			hu, s, v := h.At(x, y)
			hues = append(hues, float64(hu))
			sats = append(sats, float64(s))
			vals = append(vals, float64(v))
		}
	}
	if len(hues) == 0 {
		return nil, fmt.Errorf("no masked pixels in region %v", region)
	}

	return &MeanHSV{
		Hue:        stat.Mean(hues, nil),
		Saturation: stat.Mean(sats, nil),
		Value:      stat.Mean(vals, nil),
		Pixels:     len(hues),
	}, nil
}

// MaskWhere builds a mask over region whose pixels are set where keep returns
// true for the pixel's HSV values. The mask is anchored at the origin.
func MaskWhere(h *HSV, region image.Rectangle, keep func(hue, sat, val uint8) bool) *image.Gray {
	region = region.Intersect(h.Rect)
	mask := image.NewGray(image.Rect(0, 0, region.Dx(), region.Dy()))

	parallel.Line(region.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			row := mask.Pix[y*mask.Stride:]
			for x := 0; x < region.Dx(); x++ {
				if keep(h.At(region.Min.X+x, region.Min.Y+y)) {
					row[x] = 0xff
				}
			}
		}
	})
	return mask
}
