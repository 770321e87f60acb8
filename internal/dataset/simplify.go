package dataset

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"github.com/twpayne/go-geom"
)

// Simplify returns a copy of c with polygon geometries reduced by
// Douglas-Peucker at the given tolerance (in coordinate units). A
// non-positive tolerance returns c unchanged.
func Simplify(c *Collection, tolerance float64) *Collection {
	if c == nil || tolerance <= 0 {
		return c
	}
	s := simplify.DouglasPeucker(tolerance)

	out := &Collection{Source: c.Source, LoadedAt: c.LoadedAt}
	for _, f := range c.Features {
		cp := *f
		cp.Geometry = simplifyGeometry(s, f.Geometry)
		out.Features = append(out.Features, &cp)
	}
	return out
}

func simplifyGeometry(s *simplify.DouglasPeuckerSimplifier, g geom.T) geom.T {
	switch t := g.(type) {
	case *geom.Polygon:
		poly := simplifyPolygon(s, toOrbPolygon(t.Coords()))
		if poly == nil {
			return g
		}
		out, err := geom.NewPolygon(geom.XY).SetCoords(fromOrbPolygon(poly))
		if err != nil {
			return g
		}
		return out.SetSRID(t.SRID())
	case *geom.MultiPolygon:
		var coords [][][]geom.Coord
		for _, pc := range t.Coords() {
			if poly := simplifyPolygon(s, toOrbPolygon(pc)); poly != nil {
				coords = append(coords, fromOrbPolygon(poly))
			}
		}
		if len(coords) == 0 {
			return g
		}
		out, err := geom.NewMultiPolygon(geom.XY).SetCoords(coords)
		if err != nil {
			return g
		}
		return out.SetSRID(t.SRID())
	default:
		return g
	}
}

// simplifyPolygon drops holes that collapse and returns nil if the shell does.
func simplifyPolygon(s *simplify.DouglasPeuckerSimplifier, p orb.Polygon) orb.Polygon {
	var out orb.Polygon
	for i, ring := range p {
		r := s.Ring(ring.Clone())
		if len(r) < 4 {
			if i == 0 {
				return nil
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

func toOrbPolygon(rings [][]geom.Coord) orb.Polygon {
	p := make(orb.Polygon, 0, len(rings))
	for _, ring := range rings {
		r := make(orb.Ring, 0, len(ring))
		for _, c := range ring {
			r = append(r, orb.Point{c.X(), c.Y()})
		}
		p = append(p, r)
	}
	return p
}

func fromOrbPolygon(p orb.Polygon) [][]geom.Coord {
	rings := make([][]geom.Coord, 0, len(p))
	for _, r := range p {
		ring := make([]geom.Coord, 0, len(r))
		for _, pt := range r {
			ring = append(ring, geom.Coord{pt[0], pt[1]})
		}
		rings = append(rings, ring)
	}
	return rings
}
