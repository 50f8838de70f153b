package space

// Quat is a rotation quaternion (w + xi + yj + zk).
// Mocap bridges deliver solved orientations in this form.
type Quat struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Identity returns the no-rotation quaternion.
func Identity() Quat {
	return Quat{W: 1}
}

// IsZero reports whether q is the zero value (an unset rotation,
// as opposed to the identity).
func (q Quat) IsZero() bool {
	return q.W == 0 && q.X == 0 && q.Y == 0 && q.Z == 0
}

// Rotate applies the rotation q to v.
// Uses the expansion q*v*q', assuming q is unit length (mocap
// solvers emit normalized quaternions).
func (q Quat) Rotate(v Vec3) Vec3 {
	// t = 2 * cross(q.xyz, v)
	tx := 2 * (q.Y*v.Z - q.Z*v.Y)
	ty := 2 * (q.Z*v.X - q.X*v.Z)
	tz := 2 * (q.X*v.Y - q.Y*v.X)

	// v' = v + w*t + cross(q.xyz, t)
	return Vec3{
		X: v.X + q.W*tx + (q.Y*tz - q.Z*ty),
		Y: v.Y + q.W*ty + (q.Z*tx - q.X*tz),
		Z: v.Z + q.W*tz + (q.X*ty - q.Y*tx),
	}
}
