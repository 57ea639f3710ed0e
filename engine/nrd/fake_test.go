package nrd

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu/gputest"
)

var errCreateInstance = errors.New("create instance failed")

// fakeLibrary returns one scripted instance.
type fakeLibrary struct {
	desc      denoiser.LibraryDesc
	instance  *fakeInstance
	createErr error
}

func (l *fakeLibrary) Desc() denoiser.LibraryDesc { return l.desc }

func (l *fakeLibrary) CreateInstance(denoiser.InstanceCreationDesc) (denoiser.Instance, error) {
	if l.createErr != nil {
		return nil, l.createErr
	}
	l.instance.destroyed = false
	return l.instance, nil
}

type fakeInstance struct {
	desc       denoiser.InstanceDesc
	dispatches []denoiser.DispatchDesc
	common     denoiser.CommonSettings
	settings   map[denoiser.Identifier]any
	reloads    int
	destroyed  bool
}

func (f *fakeInstance) Desc() denoiser.InstanceDesc { return f.desc }

func (f *fakeInstance) SetCommonSettings(s denoiser.CommonSettings) error {
	f.common = s
	return nil
}

func (f *fakeInstance) SetDenoiserSettings(id denoiser.Identifier, s any) error {
	if f.settings == nil {
		f.settings = make(map[denoiser.Identifier]any)
	}
	f.settings[id] = s
	return nil
}

func (f *fakeInstance) ComputeDispatches([]denoiser.Identifier) ([]denoiser.DispatchDesc, error) {
	return f.dispatches, nil
}

func (f *fakeInstance) ReloadShaders() error {
	f.reloads++
	return nil
}

func (f *fakeInstance) Destroy() { f.destroyed = true }

func tex(t denoiser.ResourceType) denoiser.ResourceDesc {
	return denoiser.ResourceDesc{DescriptorType: denoiser.DescriptorTexture, Type: t}
}

func rw(t denoiser.ResourceType) denoiser.ResourceDesc {
	return denoiser.ResourceDesc{DescriptorType: denoiser.DescriptorStorageTexture, Type: t}
}

func pooled(t denoiser.ResourceType, index uint16, storage bool) denoiser.ResourceDesc {
	rd := denoiser.ResourceDesc{Type: t, IndexInPool: index}
	if storage {
		rd.DescriptorType = denoiser.DescriptorStorageTexture
	}
	return rd
}

var (
	readWriteRanges = []denoiser.ResourceRangeDesc{
		{DescriptorType: denoiser.DescriptorTexture, DescriptorsNum: 1},
		{DescriptorType: denoiser.DescriptorStorageTexture, DescriptorsNum: 1},
	}
	writeRanges = []denoiser.ResourceRangeDesc{
		{DescriptorType: denoiser.DescriptorStorageTexture, DescriptorsNum: 1},
	}
)

// newFakeLibrary scripts two passes over IN_VIEWZ: read it while writing T(0), then write it.
func newFakeLibrary() *fakeLibrary {
	shaders := [3]denoiser.ComputeShaderDesc{{Bytecode: []byte("dxbc")}, {Bytecode: []byte("dxil")}, {Bytecode: []byte("spirv")}}
	return &fakeLibrary{
		desc: denoiser.LibraryDesc{
			SPIRVBindingOffsets: denoiser.SPIRVBindingOffsets{
				SamplerOffset:                 100,
				TextureOffset:                 200,
				ConstantBufferOffset:          300,
				StorageTextureAndBufferOffset: 400,
			},
			VersionMajor:   denoiser.VersionMajor,
			VersionMinor:   denoiser.VersionMinor,
			NormalEncoding: denoiser.NormalEncodingR10G10B10A2Unorm,
		},
		instance: &fakeInstance{
			desc: denoiser.InstanceDesc{
				ConstantBufferMaxDataSize: 16,
				ResourcesSpaceIndex:       1,
				ShaderEntryPoint:          "main",
				Samplers:                  []denoiser.Sampler{denoiser.SamplerNearestClamp, denoiser.SamplerLinearClamp},
				Pipelines: []denoiser.PipelineDesc{
					{ShaderFileName: "read", ComputeShaders: shaders, ResourceRanges: readWriteRanges},
					{ShaderFileName: "write", ComputeShaders: shaders, ResourceRanges: writeRanges},
				},
				PermanentPool: []denoiser.TextureDesc{{Format: denoiser.FormatRGBA16Sfloat, DownsampleFactor: 1}},
				TransientPool: []denoiser.TextureDesc{{Format: denoiser.FormatR16Sfloat, DownsampleFactor: 2}},
				DescriptorPoolDesc: denoiser.DescriptorPoolDesc{
					SetsMaxNum:                  2,
					PerSetTexturesMaxNum:        1,
					PerSetStorageTexturesMaxNum: 1,
				},
			},
			dispatches: []denoiser.DispatchDesc{
				{
					Name:               "read",
					PipelineIndex:      0,
					Resources:          []denoiser.ResourceDesc{tex(denoiser.InViewZ), pooled(denoiser.TransientPool, 0, true)},
					ConstantBufferData: []byte{1, 2, 3, 4},
					GridWidth:          120,
					GridHeight:         68,
				},
				{
					Name:               "write",
					PipelineIndex:      1,
					Resources:          []denoiser.ResourceDesc{rw(denoiser.InViewZ)},
					ConstantBufferData: []byte{1, 2, 3, 4},
					GridWidth:          120,
					GridHeight:         68,

					ConstantBufferDataMatchesPreviousDispatch: true,
				},
			},
		},
	}
}

func testDesc(queued uint8) IntegrationDesc {
	desc := DefaultIntegrationDesc()
	desc.Name = "test"
	desc.ResourceWidth = 1920
	desc.ResourceHeight = 1080
	desc.QueuedFrameNum = queued
	return desc
}

// newTestIntegration recreates an integration on a recording device and starts frame 0.
func newTestIntegration(t *testing.T, lib denoiser.Library, desc IntegrationDesc, opts ...gputest.Option) (*Integration, *gputest.Device) {
	t.Helper()
	dev := gputest.NewDevice(opts...)
	i := New(lib)
	if err := i.Recreate(desc, denoiser.InstanceCreationDesc{}, dev); err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	if err := i.NewFrame(); err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	return i, dev
}

func undefined() gpu.State {
	return gpu.State{Access: gpu.AccessNone, Layout: gpu.LayoutUndefined, Stages: gpu.StageNone}
}
