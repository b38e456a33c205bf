package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createMask returns a w x h mask with the rectangle r set.
func createMask(w, h int, r image.Rectangle) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, w, h))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return m
}

func TestDilate_SinglePixel(t *testing.T) {
	m := createMask(30, 30, image.Rect(10, 10, 11, 11))

	if got := CountSet(Dilate(m, 3)); got != 9 {
		t.Errorf("Dilate 3: got %d pixels, want 9", got)
	}
	// Even kernels are anchored at size/2, like the usual toolkits.
	d := Dilate(m, 4)
	if got := CountSet(d); got != 16 {
		t.Errorf("Dilate 4: got %d pixels, want 16", got)
	}
	if d.GrayAt(9, 9).Y != 255 || d.GrayAt(12, 12).Y != 255 || d.GrayAt(8, 8).Y != 0 {
		t.Error("Dilate 4: unexpected anchor position")
	}
}

func TestErode_Block(t *testing.T) {
	m := createMask(30, 30, image.Rect(5, 5, 10, 10))
	if got := CountSet(Erode(m, 3)); got != 9 {
		t.Errorf("Erode: got %d pixels, want 9", got)
	}
}

func TestErode_BorderCountsAsSet(t *testing.T) {
	m := createMask(12, 8, image.Rect(0, 0, 12, 8))
	if got := CountSet(Erode(m, 5)); got != 96 {
		t.Errorf("Erode of a full mask: got %d pixels, want 96", got)
	}
}

func TestDilate_DoesNotModifyInput(t *testing.T) {
	m := createMask(20, 20, image.Rect(5, 5, 6, 6))
	_ = Dilate(m, 5)
	if got := CountSet(m); got != 1 {
		t.Errorf("input changed: %d pixels set", got)
	}
}

func TestOpen_RemovesSpecks(t *testing.T) {
	m := createMask(40, 40, image.Rect(20, 20, 30, 30))
	m.SetGray(3, 3, color.Gray{Y: 255})
	m.SetGray(4, 3, color.Gray{Y: 255})
	m.SetGray(3, 4, color.Gray{Y: 255})
	m.SetGray(4, 4, color.Gray{Y: 255})

	opened := Open(m, 5)
	if got := CountSet(opened); got != 100 {
		t.Errorf("Open: got %d pixels, want 100", got)
	}
	if opened.GrayAt(3, 3).Y != 0 {
		t.Error("Open should remove the speck")
	}
}

func TestClose_FillsHoles(t *testing.T) {
	m := createMask(20, 20, image.Rect(5, 5, 15, 15))
	m.SetGray(10, 10, color.Gray{Y: 0})

	closed := Close(m, 3)
	if got := CountSet(closed); got != 100 {
		t.Errorf("Close: got %d pixels, want 100", got)
	}
}

func TestGradient_Outline(t *testing.T) {
	m := createMask(20, 20, image.Rect(5, 5, 15, 15))
	g := Gradient(m, 3)
	if got := CountSet(g); got != 144-64 {
		t.Errorf("Gradient: got %d pixels, want %d", got, 144-64)
	}
	if g.GrayAt(10, 10).Y != 0 {
		t.Error("Gradient interior should be clear")
	}
	if g.GrayAt(4, 10).Y != 255 || g.GrayAt(5, 10).Y != 255 {
		t.Error("Gradient should straddle the boundary")
	}
}

func TestMorph_SizeOneCopies(t *testing.T) {
	m := createMask(10, 10, image.Rect(2, 2, 4, 4))
	if got := CountSet(Erode(m, 1)); got != 4 {
		t.Errorf("Erode 1: got %d pixels, want 4", got)
	}
}

func TestPaperMask(t *testing.T) {
	img := createSolidImage(40, 40, color.RGBA{20, 20, 20, 255})
	for y := 10; y < 30; y++ {
		for x := 10; x < 30; x++ {
			img.Set(x, y, color.White)
		}
	}

	mask := PaperMask(img, 1, 120)
	if got := CountSet(mask); got != 400 {
		t.Errorf("PaperMask without blur: got %d pixels, want 400", got)
	}

	blurred := PaperMask(img, 8, 120)
	if blurred.GrayAt(20, 20).Y != 255 {
		t.Error("centre of the sheet should be paper")
	}
	if blurred.GrayAt(2, 2).Y != 0 {
		t.Error("corner should be background")
	}
}

func TestPaperMask_ThresholdIsExclusive(t *testing.T) {
	img := createSolidImage(4, 4, color.Gray{Y: 120})
	if got := CountSet(PaperMask(img, 1, 120)); got != 0 {
		t.Errorf("pixels equal to the threshold should stay background, got %d", got)
	}
}

func TestCropMask(t *testing.T) {
	m := createMask(10, 8, image.Rect(2, 3, 6, 5))

	tests := []struct {
		name   string
		r      image.Rectangle
		wantW  int
		wantH  int
		wantOn int
	}{
		{"inner", image.Rect(1, 2, 7, 6), 6, 4, 8},
		{"partial", image.Rect(4, 4, 10, 8), 6, 4, 2},
		{"clipped", image.Rect(-5, -5, 3, 4), 3, 4, 1},
		{"outside", image.Rect(20, 20, 30, 30), 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CropMask(m, tt.r)
			if got.Rect.Min != (image.Point{}) {
				t.Errorf("crop should be anchored at the origin, got %v", got.Rect)
			}
			if got.Rect.Dx() != tt.wantW || got.Rect.Dy() != tt.wantH {
				t.Errorf("size: got %dx%d, want %dx%d", got.Rect.Dx(), got.Rect.Dy(), tt.wantW, tt.wantH)
			}
			if n := CountSet(got); n != tt.wantOn {
				t.Errorf("set pixels: got %d, want %d", n, tt.wantOn)
			}
		})
	}
}
