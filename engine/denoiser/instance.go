package denoiser

import (
	"bytes"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/math"
)

const (
	defaultNumThreads = 16
	// useMaxDims sizes a dispatch by the larger of the current and previous rect.
	useMaxDims uint16 = 0xFFFF

	constantBufferRegisterIndex         = 0
	constantBufferAndSamplersSpaceIndex = 0
	resourcesSpaceIndex                 = 1
	shaderEntryPoint                    = "main"
)

// method is one denoising algorithm.
type method interface {
	// declare adds pools, pipelines and passes.
	declare(b *passBuilder) error
	defaultSettings() any
	checkSettings(settings any) error
	// schedule returns the passes to run, relative to the first declared pass, with their
	// constants.
	schedule(common CommonSettings, settings any) []scheduledPass
}

type scheduledPass struct {
	pass      int
	constants []byte
}

type pass struct {
	name       string
	pipeline   uint16
	resources  []ResourceDesc
	downsample uint16
	numThreads [2]uint16
}

type denoiserEntry struct {
	desc      DenoiserDesc
	method    method
	settings  any
	firstPass int
}

type instance struct {
	source     ShaderSource
	desc       InstanceDesc
	common     CommonSettings
	entries    []*denoiserEntry
	byID       map[Identifier]*denoiserEntry
	passes     []pass
	dispatches []DispatchDesc
}

func newMethod(d Denoiser) (method, error) {
	switch d {
	case SigmaShadow:
		return sigmaShadow{}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedDenoiser, "denoiser %d", d)
	}
}

func newInstance(source ShaderSource, desc InstanceCreationDesc) (*instance, error) {
	inst := &instance{
		source: source,
		common: DefaultCommonSettings(),
		byID:   make(map[Identifier]*denoiserEntry, len(desc.Denoisers)),
		desc: InstanceDesc{
			ConstantBufferRegisterIndex:         constantBufferRegisterIndex,
			ConstantBufferAndSamplersSpaceIndex: constantBufferAndSamplersSpaceIndex,
			ResourcesSpaceIndex:                 resourcesSpaceIndex,
			ShaderEntryPoint:                    shaderEntryPoint,
			Samplers:                            []Sampler{SamplerNearestClamp, SamplerLinearClamp},
		},
	}

	for _, dd := range desc.Denoisers {
		m, err := newMethod(dd.Denoiser)
		if err != nil {
			return nil, err
		}
		if err := inst.add(dd, m); err != nil {
			return nil, err
		}
	}

	inst.updatePoolDesc()
	if err := inst.ReloadShaders(); err != nil {
		return nil, err
	}
	return inst, nil
}

func (i *instance) add(dd DenoiserDesc, m method) error {
	if _, ok := i.byID[dd.Identifier]; ok {
		return errors.Wrapf(ErrDuplicateIdentifier, "identifier %d", dd.Identifier)
	}
	entry := &denoiserEntry{desc: dd, method: m, settings: m.defaultSettings(), firstPass: len(i.passes)}
	b := &passBuilder{
		inst:          i,
		prefix:        dd.Denoiser.String(),
		transientBase: uint16(len(i.desc.TransientPool)),
		permanentBase: uint16(len(i.desc.PermanentPool)),
	}
	if err := m.declare(b); err != nil {
		return errors.Wrapf(err, "declaring %s", dd.Denoiser)
	}
	i.entries = append(i.entries, entry)
	i.byID[dd.Identifier] = entry
	return nil
}

// updatePoolDesc sizes the descriptor pool for the worst case of every denoiser dispatching all
// of its passes in one call.
func (i *instance) updatePoolDesc() {
	pd := DescriptorPoolDesc{SetsMaxNum: uint32(len(i.passes))}
	for _, p := range i.desc.Pipelines {
		for _, r := range p.ResourceRanges {
			switch r.DescriptorType {
			case DescriptorTexture:
				pd.PerSetTexturesMaxNum = math.Max(pd.PerSetTexturesMaxNum, r.DescriptorsNum)
			case DescriptorStorageTexture:
				pd.PerSetStorageTexturesMaxNum = math.Max(pd.PerSetStorageTexturesMaxNum, r.DescriptorsNum)
			}
		}
	}
	i.desc.DescriptorPoolDesc = pd
}

func (i *instance) Desc() InstanceDesc {
	return i.desc
}

func (i *instance) SetCommonSettings(settings CommonSettings) error {
	if settings.ResourceSize[0] == 0 || settings.ResourceSize[1] == 0 {
		return errors.Wrap(ErrInvalidSettings, "resource size must be non-zero")
	}
	if settings.RectSize[0] == 0 || settings.RectSize[1] == 0 {
		settings.RectSize = settings.ResourceSize
	}
	if settings.RectSizePrev[0] == 0 || settings.RectSizePrev[1] == 0 {
		settings.RectSizePrev = settings.RectSize
	}
	if settings.RectSize[0] > settings.ResourceSize[0] || settings.RectSize[1] > settings.ResourceSize[1] {
		return errors.Wrapf(ErrInvalidSettings, "rect %v exceeds resource %v", settings.RectSize, settings.ResourceSize)
	}
	i.common = settings
	return nil
}

func (i *instance) SetDenoiserSettings(id Identifier, settings any) error {
	entry, ok := i.byID[id]
	if !ok {
		return errors.Wrapf(ErrUnknownIdentifier, "identifier %d", id)
	}
	if err := entry.method.checkSettings(settings); err != nil {
		return errors.Wrapf(err, "identifier %d", id)
	}
	entry.settings = settings
	return nil
}

func (i *instance) ComputeDispatches(ids []Identifier) ([]DispatchDesc, error) {
	i.dispatches = i.dispatches[:0]

	var prev []byte
	for _, id := range ids {
		entry, ok := i.byID[id]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownIdentifier, "identifier %d", id)
		}
		for _, sp := range entry.method.schedule(i.common, entry.settings) {
			p := &i.passes[entry.firstPass+sp.pass]
			w, h := i.gridSize(p)
			i.dispatches = append(i.dispatches, DispatchDesc{
				Name:               p.name,
				Identifier:         id,
				Resources:          p.resources,
				PipelineIndex:      p.pipeline,
				GridWidth:          w,
				GridHeight:         h,
				ConstantBufferData: sp.constants,
				ConstantBufferDataMatchesPreviousDispatch: prev != nil && bytes.Equal(prev, sp.constants),
			})
			prev = sp.constants
		}
	}
	return i.dispatches, nil
}

func (i *instance) gridSize(p *pass) (uint16, uint16) {
	w, h := i.common.RectSize[0], i.common.RectSize[1]
	downsample := p.downsample
	if downsample == useMaxDims {
		w = math.Max(w, i.common.RectSizePrev[0])
		h = math.Max(h, i.common.RectSizePrev[1])
		downsample = 1
	}
	w = math.DivideUp(w, downsample)
	h = math.DivideUp(h, downsample)
	return math.DivideUp(w, p.numThreads[0]), math.DivideUp(h, p.numThreads[1])
}

func (i *instance) ReloadShaders() error {
	for n := range i.desc.Pipelines {
		p := &i.desc.Pipelines[n]
		for kind := 0; kind < shaderKindCount; kind++ {
			code, err := i.source.Bytecode(p.ShaderFileName, kind)
			if err != nil {
				return errors.Wrapf(err, "loading %s", p.ShaderFileName)
			}
			p.ComputeShaders[kind].Bytecode = code
		}
	}
	return nil
}

func (i *instance) Destroy() {
	i.entries = nil
	i.byID = map[Identifier]*denoiserEntry{}
	i.passes = nil
	i.dispatches = nil
	i.desc = InstanceDesc{}
}

// passBuilder declares pools and passes for one denoiser. Pool indices are local to the
// denoiser and shifted by the pool sizes of the denoisers declared before it.
type passBuilder struct {
	inst          *instance
	prefix        string
	transientBase uint16
	permanentBase uint16

	name    string
	inputs  []ResourceDesc
	outputs []ResourceDesc
}

func (b *passBuilder) reserveConstants(size uint32) {
	b.inst.desc.ConstantBufferMaxDataSize = math.Max(b.inst.desc.ConstantBufferMaxDataSize, size)
}

func (b *passBuilder) addTransient(format Format, downsample uint16) {
	b.inst.desc.TransientPool = append(b.inst.desc.TransientPool, TextureDesc{Format: format, DownsampleFactor: downsample})
}

func (b *passBuilder) addPermanent(format Format, downsample uint16) {
	b.inst.desc.PermanentPool = append(b.inst.desc.PermanentPool, TextureDesc{Format: format, DownsampleFactor: downsample})
}

func (b *passBuilder) pushPass(name string) {
	b.name = b.prefix + " - " + name
	b.inputs = b.inputs[:0]
	b.outputs = b.outputs[:0]
}

func (b *passBuilder) input(t ResourceType) {
	b.inputs = append(b.inputs, ResourceDesc{DescriptorType: DescriptorTexture, Type: t})
}

func (b *passBuilder) inputTransient(index uint16) {
	b.inputs = append(b.inputs, ResourceDesc{DescriptorType: DescriptorTexture, Type: TransientPool, IndexInPool: b.transientBase + index})
}

func (b *passBuilder) inputPermanent(index uint16) {
	b.inputs = append(b.inputs, ResourceDesc{DescriptorType: DescriptorTexture, Type: PermanentPool, IndexInPool: b.permanentBase + index})
}

func (b *passBuilder) output(t ResourceType) {
	b.outputs = append(b.outputs, ResourceDesc{DescriptorType: DescriptorStorageTexture, Type: t})
}

func (b *passBuilder) outputTransient(index uint16) {
	b.outputs = append(b.outputs, ResourceDesc{DescriptorType: DescriptorStorageTexture, Type: TransientPool, IndexInPool: b.transientBase + index})
}

func (b *passBuilder) outputPermanent(index uint16) {
	b.outputs = append(b.outputs, ResourceDesc{DescriptorType: DescriptorStorageTexture, Type: PermanentPool, IndexInPool: b.permanentBase + index})
}

// addDispatch closes the current pass. Pipelines are shared by passes with the same shader
// and range layout.
func (b *passBuilder) addDispatch(shaderFileName string, downsample uint16, numThreads [2]uint16) error {
	if len(b.outputs) == 0 {
		return errors.Newf("pass %q has no outputs", b.name)
	}

	var ranges []ResourceRangeDesc
	if len(b.inputs) > 0 {
		ranges = append(ranges, ResourceRangeDesc{DescriptorType: DescriptorTexture, DescriptorsNum: uint32(len(b.inputs))})
	}
	ranges = append(ranges, ResourceRangeDesc{DescriptorType: DescriptorStorageTexture, DescriptorsNum: uint32(len(b.outputs))})

	resources := make([]ResourceDesc, 0, len(b.inputs)+len(b.outputs))
	resources = append(resources, b.inputs...)
	resources = append(resources, b.outputs...)

	b.inst.passes = append(b.inst.passes, pass{
		name:       b.name,
		pipeline:   b.inst.pipelineFor(shaderFileName, ranges),
		resources:  resources,
		downsample: downsample,
		numThreads: numThreads,
	})
	return nil
}

func (i *instance) pipelineFor(shaderFileName string, ranges []ResourceRangeDesc) uint16 {
	for n, p := range i.desc.Pipelines {
		if p.ShaderFileName == shaderFileName && sameRanges(p.ResourceRanges, ranges) {
			return uint16(n)
		}
	}
	i.desc.Pipelines = append(i.desc.Pipelines, PipelineDesc{ShaderFileName: shaderFileName, ResourceRanges: ranges})
	return uint16(len(i.desc.Pipelines) - 1)
}

func sameRanges(a, b []ResourceRangeDesc) bool {
	if len(a) != len(b) {
		return false
	}
	for n := range a {
		if a[n] != b[n] {
			return false
		}
	}
	return true
}
