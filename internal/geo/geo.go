package geo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/OCAP2/royale/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// The arena is a flat cartesian plane measured in game units with Z as height.
// Persisted positions use simplefeatures geometry so the history store can
// keep them as WKB, the same way on SQLite and Postgres.

// ErrInvalidCoordinates is returned when a geometry cannot be built from the given points
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Bounds is an axis-aligned box on the ground plane. Z is ignored.
type Bounds struct {
	Min core.Vec3
	Max core.Vec3
}

// Square returns bounds from the origin to (size, size).
func Square(size float64) Bounds {
	return Bounds{Max: core.V(size, size, 0)}
}

// Contains reports whether p lies inside the bounds on the ground plane.
func (b Bounds) Contains(p core.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Clamp moves p to the nearest point inside the bounds, keeping its height.
func (b Bounds) Clamp(p core.Vec3) core.Vec3 {
	return core.Vec3{
		X: clamp(p.X, b.Min.X, b.Max.X),
		Y: clamp(p.Y, b.Min.Y, b.Max.Y),
		Z: p.Z,
	}
}

func (b Bounds) Center() core.Vec3 {
	return core.V((b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2, 0)
}

func (b Bounds) Width() float64 {
	return b.Max.X - b.Min.X
}

func (b Bounds) Height() float64 {
	return b.Max.Y - b.Min.Y
}

// Envelope converts the bounds to a simplefeatures envelope. Non-finite
// corners return ErrInvalidCoordinates.
func (b Bounds) Envelope() (geom.Envelope, error) {
	env, err := geom.NewEnvelope([]geom.XY{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
	})
	if err != nil {
		return geom.Envelope{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return env, nil
}

// ClampToCircle moves p onto the circle's edge when it lies outside it.
// Only the ground plane is considered.
func ClampToCircle(p, center core.Vec3, radius float64) core.Vec3 {
	d := p.Flat().Sub(center.Flat())
	dist := d.Len()
	if dist <= radius || dist == 0 {
		return p
	}
	out := center.Flat().Add(d.Scale(radius / dist))
	out.Z = p.Z
	return out
}

// SegmentPointDistance returns the distance from p to the segment ab and the
// parameter t in [0,1] of the closest point on the segment.
func SegmentPointDistance(a, b, p core.Vec3) (dist float64, t float64) {
	ab := b.Sub(a)
	den := ab.Dot(ab)
	if den == 0 {
		return p.Dist(a), 0
	}
	t = clamp(p.Sub(a).Dot(ab)/den, 0, 1)
	return p.Dist(a.Add(ab.Scale(t))), t
}

// Spread perturbs a unit direction by a random yaw and pitch each drawn
// uniformly from [-maxAngle, maxAngle] radians.
func Spread(dir core.Vec3, maxAngle float64, rng *rand.Rand) core.Vec3 {
	if maxAngle <= 0 || rng == nil {
		return dir.Normalize()
	}
	yaw := (rng.Float64()*2 - 1) * maxAngle
	pitch := (rng.Float64()*2 - 1) * maxAngle

	d := dir.Normalize()
	horiz := d.Len2D()
	heading := math.Atan2(d.Y, d.X) + yaw
	elevation := math.Atan2(d.Z, horiz) + pitch

	return core.Vec3{
		X: math.Cos(elevation) * math.Cos(heading),
		Y: math.Cos(elevation) * math.Sin(heading),
		Z: math.Sin(elevation),
	}
}

// RandomInCircle returns a uniformly distributed point on the ground plane
// within radius of center.
func RandomInCircle(center core.Vec3, radius float64, rng *rand.Rand) core.Vec3 {
	r := radius * math.Sqrt(rng.Float64())
	a := rng.Float64() * 2 * math.Pi
	return core.V(center.X+r*math.Cos(a), center.Y+r*math.Sin(a), center.Z)
}

// Centroid returns the mean of the given points, or fallback when empty.
func Centroid(points []core.Vec3, fallback core.Vec3) core.Vec3 {
	if len(points) == 0 {
		return fallback
	}
	var sum core.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(points)))
}

// ToPoint converts a position to an XYZ point. A non-finite position
// returns an empty point and ErrInvalidCoordinates.
func ToPoint(v core.Vec3) (geom.Point, error) {
	if !v.IsFinite() {
		return geom.NewEmptyPoint(geom.DimXYZ), ErrInvalidCoordinates
	}
	point, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: v.X, Y: v.Y},
		Z:    v.Z,
		Type: geom.DimXYZ,
	})
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXYZ), fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return point, nil
}

// FromPoint converts a point back into a position. Empty points return false.
func FromPoint(p geom.Point) (core.Vec3, bool) {
	c, ok := p.Coordinates()
	if !ok {
		return core.Vec3{}, false
	}
	return core.V(c.XY.X, c.XY.Y, c.Z), true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
