package attrblend

import (
	"math"

	"golang.org/x/image/math/f64"
)

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi

	// singularityThreshold guards the gimbal-lock poles when converting a
	// quaternion to pitch/yaw/roll.
	singularityThreshold = 0.4999995
)

// Quat is a rotation quaternion with W as the real part.
type Quat struct {
	X, Y, Z, W float64
}

// IdentityQuat returns the rotation that does nothing.
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// Dot returns the 4D dot product of two quaternions.
func (q Quat) Dot(o Quat) float64 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

// Neg returns the quaternion with every component negated.
// It represents the same rotation.
func (q Quat) Neg() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
}

// Normalize returns a unit quaternion.
// A zero quaternion normalizes to identity.
func (q Quat) Normalize() Quat {
	n := math.Sqrt(q.Dot(q))
	if n == 0 {
		return IdentityQuat()
	}
	return Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}

// Mul returns the Hamilton product q*o (apply o, then q).
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// SameRotation reports whether q and o describe the same rotation within
// epsilon, treating q and -q as equal.
func (q Quat) SameRotation(o Quat, epsilon float64) bool {
	return math.Abs(math.Abs(q.Normalize().Dot(o.Normalize()))-1) <= epsilon
}

// Slerp interpolates along the shortest arc from q (t=0) to o (t=1). The
// endpoints are returned unchanged.
func (q Quat) Slerp(o Quat, t float64) Quat {
	switch t {
	case 0:
		return q
	case 1:
		return o
	}

	cos := q.Dot(o)
	if cos < 0 {
		o = o.Neg()
		cos = -cos
	}

	var s0, s1 float64
	if cos > 0.9999 {
		// Nearly parallel: fall back to a normalized lerp.
		s0, s1 = 1-t, t
	} else {
		omega := math.Acos(cos)
		sin := math.Sin(omega)
		s0 = math.Sin((1-t)*omega) / sin
		s1 = math.Sin(t*omega) / sin
	}

	return Quat{
		X: s0*q.X + s1*o.X,
		Y: s0*q.Y + s1*o.Y,
		Z: s0*q.Z + s1*o.Z,
		W: s0*q.W + s1*o.W,
	}.Normalize()
}

// Rotator converts the quaternion to pitch/yaw/roll degrees.
func (q Quat) Rotator() Rotator {
	singularity := q.Z*q.X - q.W*q.Y
	yawY := 2 * (q.W*q.Z + q.X*q.Y)
	yawX := 1 - 2*(q.Y*q.Y+q.Z*q.Z)

	var r Rotator
	r.Yaw = math.Atan2(yawY, yawX) * radToDeg

	switch {
	case singularity < -singularityThreshold:
		r.Pitch = -90
		r.Roll = normalizeAxis(-r.Yaw - 2*math.Atan2(q.X, q.W)*radToDeg)
	case singularity > singularityThreshold:
		r.Pitch = 90
		r.Roll = normalizeAxis(r.Yaw - 2*math.Atan2(q.X, q.W)*radToDeg)
	default:
		r.Pitch = math.Asin(2*singularity) * radToDeg
		r.Roll = math.Atan2(-2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y)) * radToDeg
	}
	return r
}

// Rotator is a rotation expressed in degrees.
type Rotator struct {
	Pitch, Yaw, Roll float64
}

// Quat converts the rotator to a unit quaternion.
func (r Rotator) Quat() Quat {
	sp, cp := math.Sincos(r.Pitch * degToRad / 2)
	sy, cy := math.Sincos(r.Yaw * degToRad / 2)
	sr, cr := math.Sincos(r.Roll * degToRad / 2)

	return Quat{
		X: cr*sp*sy - sr*cp*cy,
		Y: -cr*sp*cy - sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
		W: cr*cp*cy + sr*sp*sy,
	}
}

// Normalize wraps every axis into (-180, 180].
func (r Rotator) Normalize() Rotator {
	return Rotator{
		Pitch: normalizeAxis(r.Pitch),
		Yaw:   normalizeAxis(r.Yaw),
		Roll:  normalizeAxis(r.Roll),
	}
}

func (r Rotator) vec() f64.Vec3 {
	return f64.Vec3{r.Pitch, r.Yaw, r.Roll}
}

func rotatorFromVec(v f64.Vec3) Rotator {
	return Rotator{Pitch: v[0], Yaw: v[1], Roll: v[2]}
}

// normalizeAxis wraps an angle in degrees into (-180, 180].
func normalizeAxis(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	if angle > 180 {
		angle -= 360
	}
	return angle
}

// Transform is a rigid transform: scale, then rotate, then translate.
type Transform struct {
	Rotation    Quat
	Translation f64.Vec3
	Scale       f64.Vec3
}

// IdentityTransform returns the transform that leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{
		Rotation: IdentityQuat(),
		Scale:    f64.Vec3{1, 1, 1},
	}
}
