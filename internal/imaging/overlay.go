package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// OverlayShape is a rectangle outline drawn on top of a photo. A rectangle one
// pixel high renders as a horizontal line.
type OverlayShape struct {
	Rect  image.Rectangle
	Color string // "#RRGGBB" or "#RRGGBBAA"
	Label string
}

// Overlay draws the outlines of shapes with the given stroke thickness and
// returns the annotated image as base64 PNG scaled by scale.
func Overlay(img image.Image, shapes []OverlayShape, thickness int, scale float64) (*EncodedImage, error) {
	if thickness < 1 {
		thickness = 1
	}
	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)

	for _, s := range shapes {
		c, err := parseHexColor(s.Color)
		if err != nil {
			c = color.RGBA{255, 0, 0, 255}
		}
		strokeRect(canvas, s.Rect, thickness, c)
		if s.Label != "" {
			drawLabel(canvas, s.Rect.Min.X+thickness+1, s.Rect.Min.Y+thickness+1, s.Label, c)
		}
	}

	return EncodePNG(canvas, scale)
}

func strokeRect(dst *image.RGBA, r image.Rectangle, thickness int, c color.RGBA) {
	r = r.Canon().Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	t := min(thickness, r.Dy(), r.Dx())
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Over)
	}
}

// drawLabel writes text with its top-left corner at (x, y) on a dark backing
// box so it stays legible over paper and leaf alike.
func drawLabel(dst *image.RGBA, x, y int, text string, fg color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(fg), Face: face}
	width := d.MeasureString(text).Ceil()
	height := face.Metrics().Height.Ceil()

	backing := image.Rect(x-1, y-1, x+width+1, y+height+1).Intersect(dst.Bounds())
	draw.Draw(dst, backing, image.NewUniform(color.RGBA{0, 0, 0, 180}), image.Point{}, draw.Over)

	d.Dot = fixed.P(x, y+face.Metrics().Ascent.Ceil())
	d.DrawString(text)
}

// parseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, err
	}

	switch len(hex) {
	case 6:
		return color.RGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
	case 8:
		return color.RGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
	}
	return color.RGBA{}, fmt.Errorf("invalid hex color length")
}
