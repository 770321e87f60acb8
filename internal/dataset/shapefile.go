package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// ImportOptions configures ImportShapefile.
type ImportOptions struct {
	// Charset of the DBF attribute table. Empty means UTF-8.
	Charset string
	// Fields restricts which attributes become properties. Nil keeps all.
	Fields []string
}

// ImportShapefile reads an FSA boundary shapefile into a Collection.
// Numeric DBF columns become numbers; polygon shapes become MultiPolygons.
func ImportShapefile(path string, opts ImportOptions) (*Collection, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	dec, err := charsetDecoder(opts.Charset)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool, len(opts.Fields))
	for _, f := range opts.Fields {
		keep[strings.ToUpper(f)] = true
	}

	fields := reader.Fields()
	coll := &Collection{Source: path, LoadedAt: time.Now().UTC()}
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		props := make(map[string]any, len(fields))
		for i, f := range fields {
			name := strings.TrimRight(f.String(), "\x00")
			if len(keep) > 0 && !keep[strings.ToUpper(name)] {
				continue
			}
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				continue
			}
			props[name] = attributeValue(dec, f.Fieldtype, val)
		}

		var g geom.T
		if poly, ok := shape.(*shp.Polygon); ok {
			g = polygonToMultiPolygon(poly)
		}
		if g == nil {
			skipped++
		}

		coll.Features = append(coll.Features, &geojson.Feature{
			Geometry:   g,
			Properties: props,
		})
	}

	if skipped > 0 {
		zap.L().Debug("dataset: shapefile records without polygon geometry",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return coll, nil
}

func charsetDecoder(charset string) (*encoding.Decoder, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") {
		return nil, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: unsupported charset %q", charset)
	}
	return enc.NewDecoder(), nil
}

// attributeValue converts a DBF attribute to a property value. N and F
// columns parse as finite numbers; everything else is decoded text.
func attributeValue(dec *encoding.Decoder, fieldType byte, val string) any {
	if fieldType == 'N' || fieldType == 'F' {
		if n, err := strconv.ParseFloat(val, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
			return n
		}
	}
	if dec != nil {
		if s, err := dec.String(val); err == nil {
			return s
		}
	}
	return val
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon,
// one polygon per part.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("dataset: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("dataset: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// Join copies properties from attrs into base for features with the same
// identifier. Existing keys in base are overwritten. Returns the match count.
func Join(base, attrs *Collection) int {
	if base == nil || attrs == nil {
		return 0
	}
	index := make(map[string]map[string]any, attrs.Len())
	for _, f := range attrs.Features {
		index[Identifier(f.Properties)] = f.Properties
	}

	var matched int
	for _, f := range base.Features {
		src, ok := index[Identifier(f.Properties)]
		if !ok {
			continue
		}
		if f.Properties == nil {
			f.Properties = make(map[string]any, len(src))
		}
		for k, v := range src {
			f.Properties[k] = v
		}
		matched++
	}
	return matched
}
