package geo

import (
	"errors"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/herdfence/simulator/internal/model/core"
)

// GEO POINTS
// Arena coordinates are planar units. When a session is anchored to a
// real-world origin we store exported geometry as 3857, because SQLite has
// no spatial awareness and WKB round-trips cleanly through a blob column.

// raycastEpsilon pads the x-intersection denominator so edges that are
// horizontal at the ray height do not divide by zero. Keeping it here
// (rather than special-casing those edges) keeps vertex-on-ray inputs
// deterministic.
const raycastEpsilon = 1e-12

// ErrFenceTooSmall is returned when a polygon with fewer than three
// vertices is offered for activation.
var ErrFenceTooSmall = errors.New("fence polygon needs at least 3 vertices")

// PointInPolygon reports whether p lies inside the polygon described by
// poly using the ray casting (crossing number) test. Fewer than three
// vertices is vacuous containment: every point is inside.
func PointInPolygon(p core.Point, poly []core.Point) bool {
	n := len(poly)
	if n < 3 {
		return true
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := poly[i].X, poly[i].Y
		xj, yj := poly[j].X, poly[j].Y
		if (yi > p.Y) != (yj > p.Y) &&
			p.X < (xj-xi)*(p.Y-yi)/(yj-yi+raycastEpsilon)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// BoundingBox returns the axis-aligned extent of poly. ok is false for an
// empty vertex list.
func BoundingBox(poly []core.Point) (min, max core.Point, ok bool) {
	if len(poly) == 0 {
		return core.Point{}, core.Point{}, false
	}
	min, max = poly[0], poly[0]
	for _, v := range poly[1:] {
		if v.X < min.X {
			min.X = v.X
		}
		if v.Y < min.Y {
			min.Y = v.Y
		}
		if v.X > max.X {
			max.X = v.X
		}
		if v.Y > max.Y {
			max.Y = v.Y
		}
	}
	return min, max, true
}

// GeomPoint converts an arena point to a simplefeatures XY point for WKB
// storage.
func GeomPoint(p core.Point) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Y},
		Type: geom.DimXY,
	})
}

// FenceRing converts a fence vertex sequence into a closed
// simplefeatures ring for WKB storage. The ring is closed by repeating
// the first vertex.
func FenceRing(poly []core.Point) (geom.LineString, error) {
	if len(poly) < 3 {
		return geom.LineString{}, ErrFenceTooSmall
	}
	coords := make([]float64, 0, (len(poly)+1)*2)
	for _, v := range poly {
		coords = append(coords, v.X, v.Y)
	}
	coords = append(coords, poly[0].X, poly[0].Y)
	seq := geom.NewSequence(coords, geom.DimXY)
	return geom.NewLineString(seq), nil
}

// Coords3857From4326 projects a longitude/latitude origin into EPSG:3857
// so arena-local offsets can be georeferenced on export.
func Coords3857From4326(longitude, latitude float64) geom.Point {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Type: geom.DimXY,
	})
}
