package space

// Approach moves current toward target by the fraction rate*dt,
// capped at 1 so a long frame can land exactly on the target but
// never overshoot it. This is the standard exponential-smoothing
// step used for all prop motion.
func Approach(current, target, rate, dt float64) float64 {
	t := rate * dt
	if t >= 1 {
		return target
	}
	if t <= 0 {
		return current
	}
	return current + (target-current)*t
}

// ApproachVec applies Approach per axis.
func ApproachVec(current, target Vec3, rate, dt float64) Vec3 {
	return Vec3{
		X: Approach(current.X, target.X, rate, dt),
		Y: Approach(current.Y, target.Y, rate, dt),
		Z: Approach(current.Z, target.Z, rate, dt),
	}
}
