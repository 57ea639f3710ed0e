package nrd

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
	"github.com/spaghettifunk/anima-denoiser/engine/math"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// texturePool owns the permanent textures followed by the transient ones.
type texturePool struct {
	resources    []Resource
	permanentNum int
	memories     []gpu.Memory

	permanentBytes uint64
	transientBytes uint64
}

// create builds every pool texture and binds them with one batched allocation. On failure
// everything created so far is destroyed.
func (p *texturePool) create(dev gpu.Device, name string, inst denoiser.InstanceDesc, width, height uint16, policy floatPolicy) (err error) {
	defer func() {
		if err != nil {
			p.destroy()
		}
	}()

	p.permanentNum = len(inst.PermanentPool)
	total := len(inst.PermanentPool) + len(inst.TransientPool)
	p.resources = make([]Resource, 0, total)
	textures := make([]gpu.Texture, 0, total)

	for i := 0; i < total; i++ {
		var td denoiser.TextureDesc
		var debugName string
		if i < p.permanentNum {
			td = inst.PermanentPool[i]
			debugName = fmt.Sprintf("%s::P(%d)", name, i)
		} else {
			td = inst.TransientPool[i-p.permanentNum]
			debugName = fmt.Sprintf("%s::T(%d)", name, i-p.permanentNum)
		}

		tex, err := dev.CreateTexture(gpu.TextureDesc{
			Format:   policy.apply(FormatToGPU(td.Format)),
			Width:    uint32(math.DivideUp(width, td.DownsampleFactor)),
			Height:   uint32(math.DivideUp(height, td.DownsampleFactor)),
			MipNum:   1,
			LayerNum: 1,
			Usage:    gpu.TextureUsageShaderResource | gpu.TextureUsageShaderResourceStorage,
		})
		if err != nil {
			return errors.Wrapf(err, "creating %s", debugName)
		}
		tex.SetDebugName(debugName)

		p.resources = append(p.resources, Resource{
			Texture: tex,
			State:   gpu.State{Access: gpu.AccessNone, Layout: gpu.LayoutUndefined, Stages: gpu.StageNone},
		})
		textures = append(textures, tex)

		if i < p.permanentNum {
			p.permanentBytes += tex.MemorySize()
		} else {
			p.transientBytes += tex.MemorySize()
		}
	}

	if len(textures) == 0 {
		return nil
	}
	p.memories, err = dev.AllocateAndBindMemory(gpu.ResourceGroup{Location: gpu.MemoryDevice, Textures: textures})
	if err != nil {
		return errors.Wrap(err, "binding pool memory")
	}
	return nil
}

// resolve returns the pool resource for a pool reference.
func (p *texturePool) resolve(t denoiser.ResourceType, index uint16) *Resource {
	switch t {
	case denoiser.PermanentPool:
		return &p.resources[index]
	case denoiser.TransientPool:
		return &p.resources[p.permanentNum+int(index)]
	}
	return nil
}

func (p *texturePool) destroy() {
	for _, r := range p.resources {
		r.Texture.Destroy()
	}
	for _, m := range p.memories {
		m.Destroy()
	}
	*p = texturePool{}
}
