package domain

import (
	"github.com/paulmach/orb"
)

// Point2D is a position in canvas pixel space. Y grows downward.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is the axis-aligned extent of a ring in canvas space.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
}

// PointInPolygon runs an even-odd ray cast from (x, y) toward +X and counts
// edge crossings. The ring may be open or closed, convex or not, and may
// self-intersect. Rings with fewer than 3 distinct vertices contain nothing.
func PointInPolygon(x, y float64, ring []Point2D) bool {
	if distinctPoints(ring) < 3 {
		return false
	}
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i].X, ring[i].Y
		xj, yj := ring[j].X, ring[j].Y
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// BoundsOf returns the extent of ring. ok is false for an empty ring.
func BoundsOf(ring []Point2D) (b Bounds, ok bool) {
	if len(ring) == 0 {
		return Bounds{}, false
	}
	bound := toOrbRing(ring).Bound()
	return Bounds{
		MinX: bound.Min.X(),
		MaxX: bound.Max.X(),
		MinY: bound.Min.Y(),
		MaxY: bound.Max.Y(),
	}, true
}

// CentroidOf returns the arithmetic mean of the ring's vertices. It is a label
// anchor, not an area-weighted centroid. A closed ring's repeated first vertex
// is counted once.
func CentroidOf(ring []Point2D) Point2D {
	pts := openRing(ring)
	if len(pts) == 0 {
		return Point2D{}
	}
	var c Point2D
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(pts))
	return Point2D{X: c.X / n, Y: c.Y / n}
}

// closeRing returns a copy of ring whose last point repeats the first.
func closeRing(ring []Point2D) []Point2D {
	out := make([]Point2D, len(ring), len(ring)+1)
	copy(out, ring)
	if len(out) > 0 && out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}
	return out
}

// openRing drops the closing vertex of a closed ring.
func openRing(ring []Point2D) []Point2D {
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		return ring[:len(ring)-1]
	}
	return ring
}

func distinctPoints(ring []Point2D) int {
	seen := make(map[Point2D]struct{}, len(ring))
	for _, p := range ring {
		seen[p] = struct{}{}
	}
	return len(seen)
}

func toOrbRing(ring []Point2D) orb.Ring {
	r := make(orb.Ring, len(ring))
	for i, p := range ring {
		r[i] = orb.Point{p.X, p.Y}
	}
	return r
}
