package geo

import (
	"fmt"

	"github.com/OCAP2/royale/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// PathLineString builds a 2D line string from a path such as the dropship route.
func PathLineString(path []core.Vec3) (geom.LineString, error) {
	if len(path) < 2 {
		return geom.LineString{}, fmt.Errorf("path must have at least 2 points, got %d: %w", len(path), ErrInvalidCoordinates)
	}

	flat := make([]float64, 0, len(path)*2)
	for _, p := range path {
		flat = append(flat, p.X, p.Y)
	}

	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return ls, nil
}

// PathFromLineString is the inverse of PathLineString. Heights are zero.
func PathFromLineString(ls geom.LineString) []core.Vec3 {
	seq := ls.Coordinates()
	out := make([]core.Vec3, seq.Length())
	for i := range out {
		xy := seq.GetXY(i)
		out[i] = core.V(xy.X, xy.Y, 0)
	}
	return out
}
