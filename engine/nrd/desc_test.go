package nrd

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

func TestIntegrationDescValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*IntegrationDesc)
		want   error
	}{
		{"valid", func(*IntegrationDesc) {}, nil},
		{"name at limit", func(d *IntegrationDesc) { d.Name = strings.Repeat("a", 63) }, nil},
		{"name too long", func(d *IntegrationDesc) { d.Name = strings.Repeat("a", 64) }, core.ErrNameTooLong},
		{"zero queued frames", func(d *IntegrationDesc) { d.QueuedFrameNum = 0 }, core.ErrZeroQueuedFrames},
		{"zero width", func(d *IntegrationDesc) { d.ResourceWidth = 0 }, core.ErrZeroResourceSize},
		{"zero height", func(d *IntegrationDesc) { d.ResourceHeight = 0 }, core.ErrZeroResourceSize},
		{"both float policies", func(d *IntegrationDesc) { d.DemoteFloat32to16, d.PromoteFloat16to32 = true, true }, core.ErrFloatPolicyConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDesc(3)
			tt.modify(&d)
			err := d.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) || !errors.Is(err, core.ErrInvalidConfig) {
				t.Fatalf("got %v, want %v marked as invalid config", err, tt.want)
			}
		})
	}
}

func TestFormatTableComplete(t *testing.T) {
	seen := make(map[gpu.Format]denoiser.Format)
	for f := denoiser.Format(0); f < denoiser.FormatCount; f++ {
		g := FormatToGPU(f)
		if g == gpu.FormatUnknown {
			t.Errorf("format %d has no mapping", f)
			continue
		}
		if prev, ok := seen[g]; ok {
			t.Errorf("formats %d and %d both map to %s", prev, f, g)
		}
		seen[g] = f
	}
	if FormatToGPU(denoiser.FormatCount) != gpu.FormatUnknown {
		t.Errorf("out of range format mapped")
	}
}

func TestFloatPolicy(t *testing.T) {
	tests := []struct {
		policy floatPolicy
		in     gpu.Format
		want   gpu.Format
	}{
		{floatPolicyNone, gpu.FormatR16Sfloat, gpu.FormatR16Sfloat},
		{floatPolicyPromote16to32, gpu.FormatR16Sfloat, gpu.FormatR32Sfloat},
		{floatPolicyPromote16to32, gpu.FormatRG16Sfloat, gpu.FormatRG32Sfloat},
		{floatPolicyPromote16to32, gpu.FormatRGBA16Sfloat, gpu.FormatRGBA32Sfloat},
		{floatPolicyPromote16to32, gpu.FormatRGBA16Unorm, gpu.FormatRGBA16Unorm},
		{floatPolicyDemote32to16, gpu.FormatR32Sfloat, gpu.FormatR16Sfloat},
		{floatPolicyDemote32to16, gpu.FormatRG32Sfloat, gpu.FormatRG16Sfloat},
		{floatPolicyDemote32to16, gpu.FormatRGBA32Sfloat, gpu.FormatRGBA16Sfloat},
		{floatPolicyDemote32to16, gpu.FormatR32Uint, gpu.FormatR32Uint},
	}
	for _, tt := range tests {
		if got := tt.policy.apply(tt.in); got != tt.want {
			t.Errorf("policy %d on %s: got %s, want %s", tt.policy, tt.in, got, tt.want)
		}
	}

	d := testDesc(1)
	d.DemoteFloat32to16 = true
	if d.floatPolicy() != floatPolicyDemote32to16 {
		t.Errorf("demote flag not picked up")
	}
}

func TestNormalFormatMatches(t *testing.T) {
	tests := []struct {
		enc    denoiser.NormalEncoding
		format gpu.Format
		want   bool
	}{
		{denoiser.NormalEncodingRGBA8Unorm, gpu.FormatRGBA8Unorm, true},
		{denoiser.NormalEncodingRGBA8Unorm, gpu.FormatRGBA8Snorm, false},
		{denoiser.NormalEncodingRGBA8Snorm, gpu.FormatRGBA8Snorm, true},
		{denoiser.NormalEncodingR10G10B10A2Unorm, gpu.FormatR10G10B10A2Unorm, true},
		{denoiser.NormalEncodingR10G10B10A2Unorm, gpu.FormatRGBA8Unorm, false},
		{denoiser.NormalEncodingRGBA16Unorm, gpu.FormatRGBA16Unorm, true},
		{denoiser.NormalEncodingRGBA16Snorm, gpu.FormatRGBA16Sfloat, true},
		{denoiser.NormalEncodingRGBA16Snorm, gpu.FormatRGBA32Sfloat, true},
		{denoiser.NormalEncodingRGBA16Snorm, gpu.FormatRGBA16Unorm, false},
	}
	for _, tt := range tests {
		if got := normalFormatMatches(tt.enc, tt.format); got != tt.want {
			t.Errorf("encoding %d with %s: got %v", tt.enc, tt.format, got)
		}
	}
}

func TestShaderKind(t *testing.T) {
	tests := map[gpu.API]int{
		gpu.APID3D11:  denoiser.ShaderDXBC,
		gpu.APID3D12:  denoiser.ShaderDXIL,
		gpu.APIVulkan: denoiser.ShaderSPIRV,
	}
	for api, want := range tests {
		if got := shaderKind(api); got != want {
			t.Errorf("%s: got %d, want %d", api, got, want)
		}
	}
}
