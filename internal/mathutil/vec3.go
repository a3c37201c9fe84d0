package mathutil

import (
	"strconv"
	"strings"
)

// Vec3 is a 3-component vector (value type, stack-allocated).
type Vec3 [3]float64

// Zero and unit defaults for i3d transform attributes.
var (
	Vec3Zero = Vec3{0, 0, 0}
	Vec3One  = Vec3{1, 1, 1}
)

// Add returns a + b.
func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Sub returns a - b.
func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// ParseVec3 parses a space-separated "x y z" attribute value. Empty or
// unparsable text, or fewer than three components, yields def.
func ParseVec3(s string, def Vec3) Vec3 {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return def
	}
	var v Vec3
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return def
		}
		v[i] = f
	}
	return v
}
