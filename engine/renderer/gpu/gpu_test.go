package gpu

import "testing"

func TestStateIsUnknown(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"zero", State{}, true},
		{"no access", State{Access: AccessNone, Layout: LayoutShaderResource}, true},
		{"undefined layout", State{Access: AccessShaderResource, Layout: LayoutUndefined}, true},
		{"sampled", State{Access: AccessShaderResource, Layout: LayoutShaderResource, Stages: StageComputeShader}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsUnknown(); got != tt.want {
				t.Errorf("IsUnknown: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStateTransitions(t *testing.T) {
	a := State{Access: AccessShaderResource, Layout: LayoutShaderResource, Stages: StageComputeShader}
	b := a
	b.Stages = StageFragmentShader
	if a.Transitions(b) {
		t.Error("a stage only change is not a transition")
	}
	b.Layout = LayoutGeneral
	if !a.Transitions(b) {
		t.Error("a layout change is a transition")
	}
}

func TestFormatBytesPerBlock(t *testing.T) {
	tests := []struct {
		format Format
		want   uint32
	}{
		{FormatUnknown, 0},
		{FormatR8Unorm, 1},
		{FormatRG8Unorm, 2},
		{FormatR16Sfloat, 2},
		{FormatRGBA8Unorm, 4},
		{FormatR11G11B10Ufloat, 4},
		{FormatRGBA16Sfloat, 8},
		{FormatRGB32Sfloat, 12},
		{FormatRGBA32Sfloat, 16},
	}
	for _, tt := range tests {
		if got := tt.format.BytesPerBlock(); got != tt.want {
			t.Errorf("%s.BytesPerBlock(): got %d, want %d", tt.format, got, tt.want)
		}
	}
}

func TestAccessString(t *testing.T) {
	if got := (AccessShaderResource | AccessShaderResourceStorage).String(); got != "ShaderResource|ShaderResourceStorage" {
		t.Errorf("got %q", got)
	}
	if got := AccessNone.String(); got != "None" {
		t.Errorf("got %q", got)
	}
}
