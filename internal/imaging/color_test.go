package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createSolidImage creates an in-memory image filled with a single colour.
func createSolidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRGBToHSV_KnownColors(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		h, s, v uint8
	}{
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 255, 255, 255, 0, 0, 255},
		{"red", 255, 0, 0, 0, 255, 255},
		{"green", 0, 255, 0, 60, 255, 255},
		{"blue", 0, 0, 255, 120, 255, 255},
		{"leaf green", 40, 120, 30, 57, 191, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := RGBToHSV(tt.r, tt.g, tt.b)
			if h != tt.h || s != tt.s || v != tt.v {
				t.Errorf("RGBToHSV(%d,%d,%d): got (%d,%d,%d), want (%d,%d,%d)",
					tt.r, tt.g, tt.b, h, s, v, tt.h, tt.s, tt.v)
			}
		})
	}
}

func TestHSVRoundTrip(t *testing.T) {
	colors := [][3]uint8{{40, 120, 30}, {240, 240, 235}, {60, 60, 60}, {200, 30, 90}}
	for _, c := range colors {
		h, s, v := RGBToHSV(c[0], c[1], c[2])
		r, g, b := HSVToRGB(h, s, v)
		for i, got := range []uint8{r, g, b} {
			if diff := math.Abs(float64(got) - float64(c[i])); diff > 4 {
				t.Errorf("round trip of %v: channel %d got %d", c, i, got)
			}
		}
	}
}

func TestPhoto_HSV(t *testing.T) {
	img := createSolidImage(20, 10, color.RGBA{40, 120, 30, 255})
	p := NewPhoto(img)

	hsv := p.HSV()
	if hsv != p.HSV() {
		t.Error("HSV should be computed once and reused")
	}
	if hsv.Rect.Dx() != 20 || hsv.Rect.Dy() != 10 {
		t.Fatalf("HSV size: got %v", hsv.Rect)
	}
	h, s, v := hsv.At(19, 9)
	if h != 57 || s != 191 || v != 120 {
		t.Errorf("At(19,9): got (%d,%d,%d)", h, s, v)
	}
	if hsv.Hue(0, 0) != h || hsv.Saturation(0, 0) != s || hsv.Value(0, 0) != v {
		t.Error("channel accessors disagree with At")
	}

	back := hsv.ToNRGBA()
	c := back.NRGBAAt(5, 5)
	if math.Abs(float64(c.G)-120) > 3 {
		t.Errorf("ToNRGBA green channel: got %d, want ~120", c.G)
	}
}

func TestPhoto_NormalisesOrigin(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 30, 20))
	p := NewPhoto(img)
	if p.Bounds().Min != (image.Point{}) {
		t.Errorf("Bounds should start at origin, got %v", p.Bounds())
	}
	if p.Width() != 20 || p.Height() != 10 {
		t.Errorf("Dimensions: got %dx%d", p.Width(), p.Height())
	}
}

func TestMeanUnderMask(t *testing.T) {
	hsv := NewHSV(image.Rect(0, 0, 4, 4))
	hsv.Set(1, 1, 10, 100, 50)
	hsv.Set(2, 1, 30, 200, 150)
	hsv.Set(3, 3, 170, 255, 255)

	mask := image.NewGray(image.Rect(0, 0, 3, 2))
	mask.SetGray(0, 0, color.Gray{Y: 255}) // (1,1)
	mask.SetGray(1, 0, color.Gray{Y: 255}) // (2,1)

	mean, err := MeanUnderMask(hsv, mask, image.Rect(1, 1, 4, 3))
	if err != nil {
		t.Fatalf("MeanUnderMask failed: %v", err)
	}
	if mean.Pixels != 2 {
		t.Errorf("Pixels: got %d, want 2", mean.Pixels)
	}
	if mean.Hue != 20 || mean.Saturation != 150 || mean.Value != 100 {
		t.Errorf("Mean: got %+v", mean)
	}
	if len(mean.Hex()) != 7 {
		t.Errorf("Hex: got %q", mean.Hex())
	}
}

func TestMeanUnderMask_EmptyMask(t *testing.T) {
	hsv := NewHSV(image.Rect(0, 0, 4, 4))
	mask := image.NewGray(image.Rect(0, 0, 4, 4))
	if _, err := MeanUnderMask(hsv, mask, hsv.Rect); err == nil {
		t.Error("Expected error when no pixel is masked")
	}
}

func TestMaskWhere(t *testing.T) {
	img := createSolidImage(10, 10, color.White)
	for y := 2; y < 5; y++ {
		for x := 3; x < 7; x++ {
			img.Set(x, y, color.RGBA{40, 120, 30, 255})
		}
	}
	hsv := NewPhoto(img).HSV()

	mask := MaskWhere(hsv, image.Rect(2, 2, 10, 10), func(h, s, v uint8) bool { return s > 100 })
	if mask.Rect != image.Rect(0, 0, 8, 8) {
		t.Fatalf("mask rect: got %v", mask.Rect)
	}
	if got := CountSet(mask); got != 12 {
		t.Errorf("CountSet: got %d, want 12", got)
	}
	if mask.GrayAt(1, 0).Y != 255 {
		t.Error("pixel (3,2) should be in the mask")
	}
}
