package sim

import "math"

// Pos is a position in the radar frame in millimeters. X points right,
// Y away from the sensor and Z up.
type Pos struct {
	X, Y, Z float64
}

// Add is a helper to add Pos.
func (p Pos) Add(p1 Pos) Pos {
	return Pos{X: p.X + p1.X, Y: p.Y + p1.Y, Z: p.Z + p1.Z}
}

// Scale multiplies each axis by k.
func (p Pos) Scale(k float64) Pos {
	return Pos{X: p.X * k, Y: p.Y * k, Z: p.Z * k}
}

// OffsetBy performs Add in-place.
func (p *Pos) OffsetBy(p1 Pos) *Pos {
	p.X += p1.X
	p.Y += p1.Y
	p.Z += p1.Z
	return p
}

// Dot is the dot product.
func (p Pos) Dot(p1 Pos) float64 {
	return p.X*p1.X + p.Y*p1.Y + p.Z*p1.Z
}

// Norm is the length of the vector.
func (p Pos) Norm() float64 {
	return math.Sqrt(p.Dot(p))
}

// Range is the ground distance from the sensor.
func (p Pos) Range() float64 {
	return math.Hypot(p.X, p.Y)
}

// Azimuth is the horizontal angle from the boresight, positive to the right.
func (p Pos) Azimuth() Angle {
	return AngleFromRadians(math.Atan2(p.X, p.Y))
}

// IsZero returns true when all axes are zero.
func (p Pos) IsZero() bool {
	return p.X == 0 && p.Y == 0 && p.Z == 0
}

// Target is a reflecting object moving in the scene.
type Target struct {
	ID  uint8
	Pos Pos
	// Vel is in mm/s.
	Vel Pos
	// Turn rotates the horizontal heading, in degrees/s.
	Turn float64
	// Size is the radius in mm over which points are spread.
	Size float64
}

// Moving returns true if the target has a velocity.
func (t *Target) Moving() bool {
	return !t.Vel.IsZero()
}

// RadialVelocity is the velocity along the line of sight, positive away.
func (t *Target) RadialVelocity() float64 {
	n := t.Pos.Norm()
	if n == 0 {
		return 0
	}
	return t.Pos.Dot(t.Vel) / n
}
