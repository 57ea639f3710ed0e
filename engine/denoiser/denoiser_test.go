package denoiser

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func newSigma(t *testing.T) Instance {
	t.Helper()
	lib := NewCatalog(StaticShaders{"SIGMA_Shadow_Blur": {0xde, 0xad}})
	inst, err := lib.CreateInstance(InstanceCreationDesc{Denoisers: []DenoiserDesc{{Identifier: 7, Denoiser: SigmaShadow}}})
	if err != nil {
		t.Fatal(err)
	}
	return inst
}

func TestSigmaShadowDesc(t *testing.T) {
	desc := newSigma(t).Desc()

	if got := len(desc.TransientPool); got != 7 {
		t.Fatalf("transient pool: got %d textures, want 7", got)
	}
	if desc.TransientPool[sigmaTiles] != (TextureDesc{FormatRGBA8Unorm, 16}) {
		t.Errorf("tiles texture: got %+v", desc.TransientPool[sigmaTiles])
	}
	if len(desc.PermanentPool) != 0 {
		t.Errorf("permanent pool: got %d textures, want 0", len(desc.PermanentPool))
	}
	// Both post-blur permutations share one pipeline.
	if got := len(desc.Pipelines); got != 6 {
		t.Fatalf("pipelines: got %d, want 6", got)
	}
	if desc.ConstantBufferMaxDataSize != 112 {
		t.Errorf("constant buffer size: got %d, want 112", desc.ConstantBufferMaxDataSize)
	}
	pd := desc.DescriptorPoolDesc
	if pd.SetsMaxNum != 7 || pd.PerSetTexturesMaxNum != 6 || pd.PerSetStorageTexturesMaxNum != 3 {
		t.Errorf("descriptor pool desc: got %+v", pd)
	}
	if desc.ResourcesSpaceIndex == desc.ConstantBufferAndSamplersSpaceIndex {
		t.Errorf("resource and root spaces must differ")
	}
	for _, p := range desc.Pipelines {
		if p.ShaderFileName == "SIGMA_Shadow_Blur" {
			if got := p.ComputeShaders[ShaderSPIRV].Bytecode; len(got) != 2 {
				t.Errorf("blur bytecode: got %v", got)
			}
		}
	}
}

func TestSigmaShadowDispatches(t *testing.T) {
	tests := []struct {
		name     string
		settings SigmaSettings
		split    float32
		want     []string
	}{
		{
			name:     "stabilized",
			settings: DefaultSigmaSettings(),
			want:     []string{"Classify tiles", "Smooth tiles", "Blur", "Post-blur", "Temporal stabilization"},
		},
		{
			name:     "unstabilized",
			settings: SigmaSettings{PlaneDistanceSensitivity: 0.02},
			want:     []string{"Classify tiles", "Smooth tiles", "Blur", "Post-blur"},
		},
		{
			name:     "split screen",
			settings: DefaultSigmaSettings(),
			split:    0.5,
			want:     []string{"Classify tiles", "Smooth tiles", "Blur", "Post-blur", "Temporal stabilization", "Split screen"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := newSigma(t)
			common := DefaultCommonSettings()
			common.ResourceSize = [2]uint16{1920, 1080}
			common.SplitScreen = tt.split
			if err := inst.SetCommonSettings(common); err != nil {
				t.Fatal(err)
			}
			if err := inst.SetDenoiserSettings(7, tt.settings); err != nil {
				t.Fatal(err)
			}
			dispatches, err := inst.ComputeDispatches([]Identifier{7})
			if err != nil {
				t.Fatal(err)
			}
			if len(dispatches) != len(tt.want) {
				t.Fatalf("got %d dispatches, want %d", len(dispatches), len(tt.want))
			}
			for n, d := range dispatches {
				if want := "SIGMA_SHADOW - " + tt.want[n]; d.Name != want {
					t.Errorf("dispatch %d: got %q, want %q", n, d.Name, want)
				}
				if len(d.ConstantBufferData) != 112 {
					t.Errorf("dispatch %d: constant data is %d bytes", n, len(d.ConstantBufferData))
				}
			}
			if dispatches[0].ConstantBufferDataMatchesPreviousDispatch {
				t.Errorf("first dispatch cannot match a previous one")
			}
			if !dispatches[1].ConstantBufferDataMatchesPreviousDispatch {
				t.Errorf("smooth tiles shares constants with classify tiles")
			}
			if dispatches[2].ConstantBufferDataMatchesPreviousDispatch {
				t.Errorf("blur has its own radius scale")
			}
		})
	}
}

func TestGridSize(t *testing.T) {
	inst := newSigma(t)
	common := DefaultCommonSettings()
	common.ResourceSize = [2]uint16{1920, 1080}
	common.RectSize = [2]uint16{1280, 720}
	common.RectSizePrev = [2]uint16{1600, 900}
	if err := inst.SetCommonSettings(common); err != nil {
		t.Fatal(err)
	}
	dispatches, err := inst.ComputeDispatches([]Identifier{7})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		index int
		w, h  uint16
	}{
		{0, 80, 45},  // 1280/16, 720/16
		{1, 5, 3},    // tiles then threads
		{2, 100, 57}, // max of current and previous rect
	}
	for _, tt := range tests {
		d := dispatches[tt.index]
		if d.GridWidth != tt.w || d.GridHeight != tt.h {
			t.Errorf("%s: got %dx%d, want %dx%d", d.Name, d.GridWidth, d.GridHeight, tt.w, tt.h)
		}
	}
}

func TestPostBlurOutputs(t *testing.T) {
	inst := newSigma(t).(*instance)
	plain := inst.passes[sigmaPassPostBlur].resources
	stab := inst.passes[sigmaPassPostBlurStabilized].resources

	if last := plain[len(plain)-1]; last.Type != OutShadowTranslucency || last.DescriptorType != DescriptorStorageTexture {
		t.Errorf("unstabilized post-blur must write the output, got %+v", last)
	}
	if last := stab[len(stab)-1]; last.Type != TransientPool || last.IndexInPool != sigmaTemp2 {
		t.Errorf("stabilized post-blur must write TEMP_2, got %+v", last)
	}
}

func TestInstanceErrors(t *testing.T) {
	lib := NewCatalog(nil)

	_, err := lib.CreateInstance(InstanceCreationDesc{Denoisers: []DenoiserDesc{{1, SigmaShadow}, {1, SigmaShadow}}})
	if !errors.Is(err, ErrDuplicateIdentifier) {
		t.Errorf("duplicate identifier: got %v", err)
	}
	_, err = lib.CreateInstance(InstanceCreationDesc{Denoisers: []DenoiserDesc{{1, Denoiser(42)}}})
	if !errors.Is(err, ErrUnsupportedDenoiser) {
		t.Errorf("unsupported denoiser: got %v", err)
	}

	inst := newSigma(t)
	if _, err := inst.ComputeDispatches([]Identifier{8}); !errors.Is(err, ErrUnknownIdentifier) {
		t.Errorf("unknown identifier: got %v", err)
	}
	if err := inst.SetDenoiserSettings(7, CommonSettings{}); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("wrong settings type: got %v", err)
	}
	if err := inst.SetCommonSettings(CommonSettings{}); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("zero resource size: got %v", err)
	}
}

// twoPools declares one permanent and one transient texture and a single pass over both.
type twoPools struct{}

func (twoPools) defaultSettings() any    { return nil }
func (twoPools) checkSettings(any) error { return nil }
func (twoPools) declare(b *passBuilder) error {
	b.addPermanent(FormatRGBA16Sfloat, 1)
	b.addTransient(FormatR8Unorm, 2)
	b.pushPass("Copy")
	b.inputPermanent(0)
	b.outputTransient(0)
	return b.addDispatch("Copy", 1, [2]uint16{8, 8})
}
func (twoPools) schedule(CommonSettings, any) []scheduledPass {
	return []scheduledPass{{pass: 0, constants: []byte{1, 2, 3, 4}}}
}

func TestPoolIndicesAreShifted(t *testing.T) {
	inst, err := newInstance(StaticShaders{}, InstanceCreationDesc{Denoisers: []DenoiserDesc{{1, SigmaShadow}}})
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.add(DenoiserDesc{Identifier: 2}, twoPools{}); err != nil {
		t.Fatal(err)
	}
	dispatches, err := inst.ComputeDispatches([]Identifier{2})
	if err != nil {
		t.Fatal(err)
	}
	res := dispatches[0].Resources
	if res[0].Type != PermanentPool || res[0].IndexInPool != 0 {
		t.Errorf("permanent input: got %+v", res[0])
	}
	if res[1].Type != TransientPool || res[1].IndexInPool != 7 {
		t.Errorf("transient output must follow the SIGMA pool: got %+v", res[1])
	}
}

func TestResourceTypeString(t *testing.T) {
	if got := InViewZ.String(); got != "IN_VIEWZ" {
		t.Errorf("got %q", got)
	}
	if got := OutShadowTranslucency.String(); got != "OUT_SHADOW_TRANSLUCENCY" {
		t.Errorf("got %q", got)
	}
	if !OutValidation.IsRole() || TransientPool.IsRole() {
		t.Errorf("role boundary is wrong")
	}
	if len(resourceTypeNames) != int(PermanentPool)+1 {
		t.Errorf("names table has %d entries", len(resourceTypeNames))
	}
}
