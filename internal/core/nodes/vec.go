package nodes

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"github.com/zeusync/nodetree/internal/core/codec"
)

// Vec3 is a 3D vector of float32 components.
type Vec3 struct {
	X, Y, Z float32
}

var (
	Zero    = Vec3{}
	One     = Vec3{1, 1, 1}
	Right   = Vec3{1, 0, 0}
	Up      = Vec3{0, 1, 0}
	Forward = Vec3{0, 0, 1}
)

func V(x, y, z float32) Vec3 {
	return Vec3{x, y, z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Mul multiplies component-wise.
func (v Vec3) Mul(o Vec3) Vec3 {
	return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z}
}

func (v Vec3) Scale(f float32) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

func (v Vec3) Magnitude() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Unit returns v scaled to length one, or the zero vector for zero input.
func (v Vec3) Unit() Vec3 {
	m := v.Magnitude()
	if m == 0 {
		return Zero
	}
	return v.Scale(1 / m)
}

func Cross(a, b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// MarshalJSON writes {"X":..,"Y":..,"Z":..} with NaN and infinities as quoted
// names.
func (v Vec3) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 32)
	b = append(b, `{"X":`...)
	b = codec.AppendFloat(b, float64(v.X), 32)
	b = append(b, `,"Y":`...)
	b = codec.AppendFloat(b, float64(v.Y), 32)
	b = append(b, `,"Z":`...)
	b = codec.AppendFloat(b, float64(v.Z), 32)
	return append(b, '}'), nil
}

// UnmarshalJSON accepts numbers or quoted float names per component. Missing
// components keep their current value.
func (v *Vec3) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw struct {
		X, Y, Z json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, c := range []struct {
		data json.RawMessage
		dst  *float32
	}{{raw.X, &v.X}, {raw.Y, &v.Y}, {raw.Z, &v.Z}} {
		if len(c.data) == 0 {
			continue
		}
		f, err := codec.ParseFloat(c.data)
		if err != nil {
			return err
		}
		*c.dst = float32(f)
	}
	return nil
}
