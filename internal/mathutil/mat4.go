package mathutil

import "math"

// Mat4 is a 4×4 matrix stored row-major. Used for node world transforms;
// the bottom row is always [0 0 0 1].
type Mat4 [16]float64

// gimbalEpsilon is the |cos(ry)| bound below which yaw and roll can no
// longer be separated. Kept at the value the i3d exporter tooling uses.
const gimbalEpsilon = 0.001

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Mul returns a × b. With a = parent world and b = local, the result is
// the local transform expressed in world space.
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = a[r*4+0]*b[0*4+c] + a[r*4+1]*b[1*4+c] +
				a[r*4+2]*b[2*4+c] + a[r*4+3]*b[3*4+c]
		}
	}
	return m
}

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float64 {
	return m[r*4+c]
}

// MulPoint transforms a 3D point (w=1) by the 4×4 matrix.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

// Translation returns column 3 of rows 0–2.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[3], m[7], m[11]}
}

// FromMat3Translation builds a 4×4 affine matrix from a 3×3 rotation and translation.
func FromMat3Translation(r Mat3, t Vec3) Mat4 {
	return Mat4{
		r[0], r[1], r[2], t[0],
		r[3], r[4], r[5], t[1],
		r[6], r[7], r[8], t[2],
		0, 0, 0, 1,
	}
}

// LocalTransform builds a node's local matrix from i3d translation, rotation
// (degrees) and scale. Rotation rows are scaled by the matching scale
// component before the translation is placed in column 3.
func LocalTransform(translation, rotationDeg, scale Vec3) Mat4 {
	r := EulerZYX(rotationDeg)
	for row := 0; row < 3; row++ {
		for c := 0; c < 3; c++ {
			r[row*3+c] *= scale[row]
		}
	}
	return FromMat3Translation(r, translation)
}

// DecomposeWorld extracts the world position and Euler rotation (degrees)
// from a world matrix. Assumes no shear; with non-uniform ancestor scale the
// angles are approximate.
func DecomposeWorld(m Mat4) (position, rotationDeg Vec3) {
	position = m.Translation()

	ry := math.Asin(clamp(m.At(0, 2), -1, 1))
	var rx, rz float64
	if math.Abs(math.Cos(ry)) > gimbalEpsilon {
		rx = math.Atan2(-m.At(1, 2), m.At(2, 2))
		rz = math.Atan2(-m.At(0, 1), m.At(0, 0))
	} else {
		// Gimbal lock: fold everything into rx.
		rx = math.Atan2(m.At(2, 1), m.At(1, 1))
		rz = 0
	}

	rotationDeg = Vec3{Rad2Deg(rx), Rad2Deg(ry), Rad2Deg(rz)}
	return position, rotationDeg
}

// ApproxEqual reports whether every element of a and b differs by at most eps.
func (m Mat4) ApproxEqual(o Mat4, eps float64) bool {
	for i := 0; i < 16; i++ {
		d := m[i] - o[i]
		if d > eps || d < -eps {
			return false
		}
	}
	return true
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
