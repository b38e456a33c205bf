package detection

import (
	"image"
	"math"
	"sort"
)

// Outline returns the set pixels of mask that touch a clear pixel or the
// border through one of their four neighbours, in row-major order.
func Outline(mask *image.Gray) []image.Point {
	width, height := mask.Rect.Dx(), mask.Rect.Dy()
	set := func(x, y int) bool {
		if x < 0 || x >= width || y < 0 || y >= height {
			return false
		}
		return mask.Pix[y*mask.Stride+x] != 0
	}

	var outline []image.Point
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !set(x, y) {
				continue
			}
			if !set(x-1, y) || !set(x+1, y) || !set(x, y-1) || !set(x, y+1) {
				outline = append(outline, image.Pt(x, y))
			}
		}
	}
	return outline
}

// ConvexHull returns the convex hull of points in counter-clockwise order
// (in image coordinates, y down) without collinear vertices.
func ConvexHull(points []image.Point) []image.Point {
	if len(points) < 3 {
		return append([]image.Point(nil), points...)
	}

	pts := append([]image.Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	cross := func(o, a, b image.Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]image.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// PolygonArea returns the area enclosed by a simple polygon.
func PolygonArea(poly []image.Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	sum := 0
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// PolygonPerimeter returns the length of the closed polygon boundary.
func PolygonPerimeter(poly []image.Point) float64 {
	if len(poly) < 2 {
		return 0
	}
	total := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		total += math.Hypot(float64(poly[j].X-poly[i].X), float64(poly[j].Y-poly[i].Y))
	}
	return total
}

// Contour is the outer boundary of one 8-connected blob of set pixels.
type Contour struct {
	// Points run around the blob in order, starting at its top-left pixel.
	// Pixels on one-pixel-wide parts are visited once per side.
	Points []image.Point

	// Area is the number of pixels in the blob, holes excluded.
	Area int
}

// Length returns the length of the closed boundary.
func (c Contour) Length() float64 {
	return PolygonPerimeter(c.Points)
}

// neighbours in clockwise order on screen, starting east.
var neighbours = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// Contours labels the 8-connected blobs of mask and traces the outer
// boundary of each. Blobs are returned in the row-major order of their
// top-left pixel.
func Contours(mask *image.Gray) []Contour {
	width, height := mask.Rect.Dx(), mask.Rect.Dy()
	set := func(p image.Point) bool {
		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			return false
		}
		return mask.Pix[p.Y*mask.Stride+p.X] != 0
	}

	seen := make([]bool, width*height)
	var out []Contour
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			start := image.Pt(x, y)
			if seen[y*width+x] || !set(start) {
				continue
			}

			area := 0
			queue := []image.Point{start}
			seen[y*width+x] = true
			for len(queue) > 0 {
				p := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				area++
				for _, d := range neighbours {
					q := p.Add(d)
					if set(q) && !seen[q.Y*width+q.X] {
						seen[q.Y*width+q.X] = true
						queue = append(queue, q)
					}
				}
			}
			out = append(out, Contour{Points: traceBoundary(set, start), Area: area})
		}
	}
	return out
}

// traceBoundary follows the outer boundary clockwise from start, which must
// be the top-left pixel of its blob. It stops when it is about to repeat its
// first move from start.
func traceBoundary(set func(image.Point) bool, start image.Point) []image.Point {
	next := func(p image.Point, dir int) (image.Point, int, bool) {
		from := (dir + 7) % 8
		if dir%2 == 1 {
			from = (dir + 6) % 8
		}
		for i := 0; i < 8; i++ {
			k := (from + i) % 8
			if q := p.Add(neighbours[k]); set(q) {
				return q, k, true
			}
		}
		return p, dir, false
	}

	firstPt, firstDir, ok := next(start, 0)
	if !ok {
		return []image.Point{start}
	}
	points := []image.Point{start}
	cur, dir := firstPt, firstDir
	for {
		q, k, _ := next(cur, dir)
		if cur == start && q == firstPt && k == firstDir {
			return points
		}
		points = append(points, cur)
		cur, dir = q, k
	}
}
