package math

import "testing"

func TestAlign(t *testing.T) {
	tests := []struct {
		size, alignment, want uint32
	}{
		{0, 256, 0},
		{1, 256, 256},
		{256, 256, 256},
		{257, 256, 512},
		{100, 0, 100},
		{7, 4, 8},
	}
	for _, tt := range tests {
		if got := Align(tt.size, tt.alignment); got != tt.want {
			t.Errorf("Align(%d, %d): got %d, want %d", tt.size, tt.alignment, got, tt.want)
		}
	}
}

func TestDivideUp(t *testing.T) {
	tests := []struct {
		x, y, want uint16
	}{
		{1920, 1, 1920},
		{1920, 16, 120},
		{1080, 16, 68},
		{1, 16, 1},
		{17, 16, 2},
	}
	for _, tt := range tests {
		if got := DivideUp(tt.x, tt.y); got != tt.want {
			t.Errorf("DivideUp(%d, %d): got %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("Clamp high: got %d, want 3", got)
	}
	if got := Clamp(-1.5, 0.0, 1.0); got != 0.0 {
		t.Errorf("Clamp low: got %f, want 0", got)
	}
	if got := Clamp(uint8(2), 1, 4); got != 2 {
		t.Errorf("Clamp inside: got %d, want 2", got)
	}
}

func TestMax(t *testing.T) {
	if got := Max(3, 9); got != 9 {
		t.Errorf("Max: got %d, want 9", got)
	}
}
