package math

import (
	m "math"
)

const (
	/** @brief An approximate representation of PI. */
	K_PI float32 = 3.14159265358979323846
	/** @brief An approximate representation of PI multiplied by 2. */
	K_PI_2 float32 = 2.0 * K_PI
	/** @brief A multiplier used to convert degrees to radians. */
	K_DEG2RAD_MULTIPLIER float32 = K_PI / 180.0
	/** @brief Smallest positive number where 1.0 + FLOAT_EPSILON != 0 */
	K_FLOAT_EPSILON float32 = 1.192092896e-07
)

func ksin(x float32) float32 {
	return float32(m.Sin(float64(x)))
}

func kcos(x float32) float32 {
	return float32(m.Cos(float64(x)))
}

func ksqrt(x float32) float32 {
	return float32(m.Sqrt(float64(x)))
}

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

func NewVec2(x, y float32) Vec2 {
	return Vec2{x, y}
}

/**
 * @brief Creates and returns a new 3-element vector using the supplied values.
 *
 * @param x The x value.
 * @param y The y value.
 * @param z The z value.
 * @return A new 3-element vector.
 */
func NewVec3(x, y, z float32) Vec3 {
	return Vec3{x, y, z}
}

func (v Vec3) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vec3) Length() float32 {
	return ksqrt(v.LengthSquared())
}

/**
 * @brief Returns a unit vector with the direction of v. The zero vector is
 * returned unchanged.
 */
func (v Vec3) Normalize() Vec3 {
	length := v.Length()
	if length < K_FLOAT_EPSILON {
		return v
	}
	return Vec3{
		v.X / length,
		v.Y / length,
		v.Z / length}
}

// RotateY rotates v around the Y axis by angle radians.
func (v Vec3) RotateY(angle float32) Vec3 {
	s, c := ksin(angle), kcos(angle)
	return Vec3{
		v.X*c + v.Z*s,
		v.Y,
		-v.X*s + v.Z*c}
}

func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

/**
 * @brief Returns element index of the Halton low discrepancy sequence in the
 * given base, in [0, 1).
 */
func Halton(index uint32, base uint32) float32 {
	var result float32
	f := float32(1.0)
	for i := index; i > 0; i /= base {
		f /= float32(base)
		result += f * float32(i%base)
	}
	return result
}

// HaltonJitter returns a sub-pixel offset in [-0.5, 0.5) for the frame, cycling every period frames.
func HaltonJitter(frame uint32, period uint32) Vec2 {
	i := frame%period + 1
	return Vec2{Halton(i, 2) - 0.5, Halton(i, 3) - 0.5}
}
