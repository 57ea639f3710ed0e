package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Align rounds size up to the next multiple of alignment.
// An alignment of zero returns size unchanged.
func Align[T constraints.Integer](size, alignment T) T {
	if alignment == 0 {
		return size
	}
	return ((size + alignment - 1) / alignment) * alignment
}

// DivideUp returns ceil(x / y) for positive y.
func DivideUp[T constraints.Integer](x, y T) T {
	return (x + y - 1) / y
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}
