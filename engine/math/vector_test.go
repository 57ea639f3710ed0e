package math

import (
	m "math"
	"testing"
)

func near(a, b float32) bool {
	return m.Abs(float64(a-b)) < 1e-5
}

func TestHalton(t *testing.T) {
	tests := []struct {
		index, base uint32
		want        float32
	}{
		{0, 2, 0},
		{1, 2, 0.5},
		{2, 2, 0.25},
		{3, 2, 0.75},
		{1, 3, 1.0 / 3.0},
		{2, 3, 2.0 / 3.0},
		{4, 3, 4.0 / 9.0},
	}
	for _, tt := range tests {
		if got := Halton(tt.index, tt.base); !near(got, tt.want) {
			t.Errorf("Halton(%d, %d) = %v, want %v", tt.index, tt.base, got, tt.want)
		}
	}
}

func TestHaltonJitter(t *testing.T) {
	for frame := uint32(0); frame < 32; frame++ {
		j := HaltonJitter(frame, 8)
		if j.X < -0.5 || j.X >= 0.5 || j.Y < -0.5 || j.Y >= 0.5 {
			t.Fatalf("frame %d jitter %v out of range", frame, j)
		}
		if j != HaltonJitter(frame+8, 8) {
			t.Fatalf("frame %d jitter does not repeat with the period", frame)
		}
	}
}

func TestVec3(t *testing.T) {
	v := NewVec3(3, 0, 4).Normalize()
	if !near(v.Length(), 1) || !near(v.X, 0.6) || !near(v.Z, 0.8) {
		t.Errorf("Normalize = %v", v)
	}
	if z := NewVec3(0, 0, 0).Normalize(); z != (Vec3{}) {
		t.Errorf("zero vector normalized to %v", z)
	}

	r := NewVec3(1, 2, 0).RotateY(K_PI / 2)
	if !near(r.X, 0) || !near(r.Y, 2) || !near(r.Z, -1) {
		t.Errorf("RotateY = %v", r)
	}
	if a := NewVec3(1, 2, 3).Array(); a != [3]float32{1, 2, 3} {
		t.Errorf("Array = %v", a)
	}
}
