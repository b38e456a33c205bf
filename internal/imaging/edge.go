package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/parallel"
	"github.com/anthonynsimon/bild/segment"
)

// PaperMask separates bright paper from a darker background.
//
// The image is converted to grayscale, averaged with a blurSize x blurSize box
// filter and thresholded: pixels brighter than threshold become 255, the rest 0.
func PaperMask(img image.Image, blurSize int, threshold uint8) *image.Gray {
	gray := effect.Grayscale(img)
	if blurSize > 1 {
		gray = blur.Box(gray, float64(blurSize-1)/2)
	}
	level := threshold
	if level < 0xff {
		level++
	}
	mask := segment.Threshold(gray, level)
	mask.Rect = image.Rect(0, 0, mask.Rect.Dx(), mask.Rect.Dy())
	return mask
}

// Erode clears every pixel whose size x size neighbourhood contains a clear
// pixel. Pixels beyond the border count as set.
func Erode(mask *image.Gray, size int) *image.Gray {
	return morph(mask, size, false)
}

// Dilate sets every pixel whose size x size neighbourhood contains a set
// pixel. Pixels beyond the border count as clear.
func Dilate(mask *image.Gray, size int) *image.Gray {
	return morph(mask, size, true)
}

// Open removes specks smaller than the kernel: erode then dilate.
func Open(mask *image.Gray, size int) *image.Gray {
	return Dilate(Erode(mask, size), size)
}

// Close fills holes smaller than the kernel: dilate then erode.
func Close(mask *image.Gray, size int) *image.Gray {
	return Erode(Dilate(mask, size), size)
}

// Gradient keeps the outline of the mask: pixels set in the dilation but
// not in the erosion.
func Gradient(mask *image.Gray, size int) *image.Gray {
	dilated := Dilate(mask, size)
	eroded := Erode(mask, size)
	for i, v := range eroded.Pix {
		if v != 0 {
			dilated.Pix[i] = 0
		}
	}
	return dilated
}

// CropMask copies the part of mask inside r into a new mask anchored at the
// origin. r is clipped to the mask.
func CropMask(mask *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(mask.Rect)
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		src := mask.PixOffset(r.Min.X, r.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+r.Dx()], mask.Pix[src:src+r.Dx()])
	}
	return out
}

// CountSet returns the number of non-zero mask pixels.
func CountSet(mask *image.Gray) int {
	n := 0
	for y := 0; y < mask.Rect.Dy(); y++ {
		for _, v := range mask.Pix[y*mask.Stride : y*mask.Stride+mask.Rect.Dx()] {
			if v != 0 {
				n++
			}
		}
	}
	return n
}

// morph runs a separable square erosion or dilation: a row pass followed by a
// column pass, each linear in the line length.
func morph(src *image.Gray, size int, grow bool) *image.Gray {
	width, height := src.Rect.Dx(), src.Rect.Dy()
	rect := image.Rect(0, 0, width, height)
	if size <= 1 {
		dst := image.NewGray(rect)
		for y := 0; y < height; y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+width], src.Pix[y*src.Stride:])
		}
		return dst
	}

	before := size / 2
	after := size - 1 - before

	rows := image.NewGray(rect)
	parallel.Line(height, func(start, end int) {
		next := make([]int, width+1)
		for y := start; y < end; y++ {
			sweep(src.Pix, rows.Pix, y*src.Stride, y*rows.Stride, 1, width, before, after, grow, next)
		}
	})

	dst := image.NewGray(rect)
	parallel.Line(width, func(start, end int) {
		next := make([]int, height+1)
		for x := start; x < end; x++ {
			sweep(rows.Pix, dst.Pix, x, x, rows.Stride, height, before, after, grow, next)
		}
	})
	return dst
}

// sweep processes one line of n pixels. For dilation it looks for set pixels
// inside the window [i-before, i+after]; for erosion it looks for clear ones.
// next[i] holds the index of the first matching pixel at or after i.
func sweep(in, out []uint8, inOff, outOff, step, n, before, after int, grow bool, next []int) {
	next[n] = n
	for i := n - 1; i >= 0; i-- {
		set := in[inOff+i*step] != 0
		if set == grow {
			next[i] = i
		} else {
			next[i] = next[i+1]
		}
	}

	for i := 0; i < n; i++ {
		lo := max(i-before, 0)
		hi := min(i+after, n-1)
		found := next[lo] <= hi
		if found == grow {
			out[outOff+i*step] = 0xff
		} else {
			out[outOff+i*step] = 0
		}
	}
}
