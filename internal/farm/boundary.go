package farm

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/windcost/internal/model"
)

// LoadBoundary reads the first polygon of a shapefile as a site boundary.
// Coordinates must be in a projected metric system matching the layout.
func LoadBoundary(path string) (*geom.Polygon, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "farm: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	for reader.Next() {
		n, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			zap.L().Debug("farm: skipping non-polygon shape", zap.Int("index", n))
			continue
		}
		p := polygonFromShape(poly)
		if p == nil {
			continue
		}
		return p, nil
	}
	return nil, eris.Wrapf(model.ErrInvalidInput, "farm: no polygon in %s", path)
}

// polygonFromShape converts a shapefile polygon to a geom.Polygon. The
// first part is the outer ring; later parts become holes.
func polygonFromShape(sp *shp.Polygon) *geom.Polygon {
	if sp == nil || sp.NumParts == 0 || len(sp.Points) == 0 {
		return nil
	}

	p := geom.NewPolygon(geom.XY)
	for i := int32(0); i < sp.NumParts; i++ {
		start := sp.Parts[i]
		end := int32(len(sp.Points))
		if i+1 < sp.NumParts {
			end = sp.Parts[i+1]
		}
		if end-start < 3 {
			continue
		}

		flat := make([]float64, 0, 2*(end-start+1))
		for j := start; j < end; j++ {
			flat = append(flat, sp.Points[j].X, sp.Points[j].Y)
		}
		if flat[0] != flat[len(flat)-2] || flat[1] != flat[len(flat)-1] {
			flat = append(flat, flat[0], flat[1])
		}

		if err := p.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("farm: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
		}
	}

	if p.NumLinearRings() == 0 {
		return nil
	}
	return p
}
