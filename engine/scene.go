package engine

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
	"github.com/spaghettifunk/anima-denoiser/engine/nrd"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// sceneTexture is a resource the renderer would normally produce.
type sceneTexture struct {
	role   denoiser.ResourceType
	format gpu.Format
	usage  gpu.TextureUsage
}

var shadowInputs = []sceneTexture{
	{denoiser.InMV, gpu.FormatRGBA16Sfloat, gpu.TextureUsageShaderResource},
	{denoiser.InNormalRoughness, gpu.FormatR10G10B10A2Unorm, gpu.TextureUsageShaderResource},
	{denoiser.InViewZ, gpu.FormatR32Sfloat, gpu.TextureUsageShaderResource},
	{denoiser.InPenumbra, gpu.FormatR16Sfloat, gpu.TextureUsageShaderResource},
	{denoiser.OutShadowTranslucency, gpu.FormatRGBA8Unorm, gpu.TextureUsageShaderResource | gpu.TextureUsageShaderResourceStorage},
}

// scene owns the external textures and carries their states from one frame to the next.
type scene struct {
	roles    []denoiser.ResourceType
	textures map[denoiser.ResourceType]gpu.Texture
	states   map[denoiser.ResourceType]gpu.State
	memory   []gpu.Memory
}

func newScene(dev gpu.Device, width, height uint16, inputs []sceneTexture) (s *scene, err error) {
	s = &scene{
		textures: make(map[denoiser.ResourceType]gpu.Texture, len(inputs)),
		states:   make(map[denoiser.ResourceType]gpu.State, len(inputs)),
	}
	defer func() {
		if err != nil {
			s.destroy()
		}
	}()

	group := gpu.ResourceGroup{Location: gpu.MemoryDevice}
	for _, in := range inputs {
		tex, err := dev.CreateTexture(gpu.TextureDesc{
			Format:   in.format,
			Width:    uint32(width),
			Height:   uint32(height),
			MipNum:   1,
			LayerNum: 1,
			Usage:    in.usage,
		})
		if err != nil {
			return s, errors.Wrapf(err, "creating %s", in.role)
		}
		tex.SetDebugName(in.role.String())
		s.roles = append(s.roles, in.role)
		s.textures[in.role] = tex
		s.states[in.role] = gpu.State{}
		group.Textures = append(group.Textures, tex)
	}

	if s.memory, err = dev.AllocateAndBindMemory(group); err != nil {
		return s, errors.Wrap(err, "allocating scene memory")
	}
	return s, nil
}

// snapshot binds every scene texture in its current state, tagged with its role.
func (s *scene) snapshot() (nrd.ResourceSnapshot, error) {
	var snap nrd.ResourceSnapshot
	for _, role := range s.roles {
		r := nrd.Resource{Texture: s.textures[role], State: s.states[role], UserArg: role}
		if err := snap.SetResource(role, r); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

// update records the states Denoise left the textures in.
func (s *scene) update(snap *nrd.ResourceSnapshot) {
	for _, r := range snap.Unique() {
		if role, ok := r.UserArg.(denoiser.ResourceType); ok {
			s.states[role] = r.State
		}
	}
}

func (s *scene) destroy() {
	for _, role := range s.roles {
		s.textures[role].Destroy()
	}
	for _, m := range s.memory {
		m.Destroy()
	}
	s.roles = nil
	s.textures = nil
	s.memory = nil
}
