package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// Texture wraps a vk.Image. Textures created by the backend own their image; wrapped
// textures only borrow it.
type Texture struct {
	context      *VulkanContext
	Handle       vk.Image
	desc         gpu.TextureDesc
	requirements vk.MemoryRequirements
	owned        bool
	name         string
	memory       *Memory
}

// CreateTexture creates a 2D optimal tiling image in the undefined layout.
func (vb *VulkanBackend) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	format := FormatToVK(desc.Format)
	if format == vk.FormatUndefined {
		return nil, errors.Newf("format %s has no Vulkan equivalent", desc.Format)
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  desc.Width,
			Height: desc.Height,
			Depth:  1,
		},
		MipLevels:     uint32(max(desc.MipNum, 1)),
		ArrayLayers:   uint32(max(desc.LayerNum, 1)),
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         toVkImageUsage(desc.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	t := &Texture{context: vb.context, desc: desc, owned: true}
	if res := vk.CreateImage(vb.context.Device.LogicalDevice, &imageCreateInfo, vb.context.Allocator, &t.Handle); res != vk.Success {
		return nil, resultError("vkCreateImage", res)
	}
	vk.GetImageMemoryRequirements(vb.context.Device.LogicalDevice, t.Handle, &t.requirements)
	t.requirements.Deref()

	return t, nil
}

// WrapTexture exposes an image owned by the caller. Destroy on the result is a no-op.
func (vb *VulkanBackend) WrapTexture(image vk.Image, desc gpu.TextureDesc) *Texture {
	return &Texture{context: vb.context, Handle: image, desc: desc}
}

func (t *Texture) Desc() gpu.TextureDesc { return t.desc }

func (t *Texture) NativeObject() uint64 {
	return uint64(uintptr(unsafe.Pointer(t.Handle)))
}

func (t *Texture) MemorySize() uint64 { return uint64(t.requirements.Size) }

// SetDebugName keeps the name for log messages.
func (t *Texture) SetDebugName(name string) { t.name = name }

func (t *Texture) Destroy() {
	if !t.owned || t.Handle == nil {
		return
	}
	vk.DestroyImage(t.context.Device.LogicalDevice, t.Handle, t.context.Allocator)
	t.Handle = nil
	t.memory = nil
}

// Descriptor is either an image view or a constant buffer range.
type Descriptor struct {
	context *VulkanContext
	View    vk.ImageView
	Layout  vk.ImageLayout
	Type    gpu.DescriptorType

	Buffer *Buffer
	Offset uint64
	Size   uint64
}

func (vb *VulkanBackend) CreateTextureView(desc gpu.TextureViewDesc) (gpu.Descriptor, error) {
	t, ok := desc.Texture.(*Texture)
	if !ok {
		return nil, errors.Newf("texture %T can't be viewed by this device", desc.Texture)
	}
	format := FormatToVK(desc.Format)
	if format == vk.FormatUndefined {
		format = FormatToVK(t.desc.Format)
	}

	mipNum := uint32(desc.MipNum)
	if mipNum == 0 {
		mipNum = uint32(max(t.desc.MipNum, 1)) - uint32(desc.MipOffset)
	}
	layerNum := uint32(desc.LayerNum)
	if layerNum == 0 {
		layerNum = uint32(max(t.desc.LayerNum, 1)) - uint32(desc.LayerOffset)
	}
	viewType := vk.ImageViewType2d
	if layerNum > 1 {
		viewType = vk.ImageViewType2dArray
	}

	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    t.Handle,
		ViewType: viewType,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   uint32(desc.MipOffset),
			LevelCount:     mipNum,
			BaseArrayLayer: uint32(desc.LayerOffset),
			LayerCount:     layerNum,
		},
	}

	d := &Descriptor{context: vb.context, Type: gpu.DescriptorTexture, Layout: vk.ImageLayoutShaderReadOnlyOptimal}
	if desc.Type == gpu.StorageTextureView {
		d.Type = gpu.DescriptorStorageTexture
		d.Layout = vk.ImageLayoutGeneral
	}
	if res := vk.CreateImageView(vb.context.Device.LogicalDevice, &viewCreateInfo, vb.context.Allocator, &d.View); res != vk.Success {
		return nil, resultError("vkCreateImageView", res)
	}
	return d, nil
}

// CreateBufferView describes a uniform range; Vulkan needs no object for it.
func (vb *VulkanBackend) CreateBufferView(desc gpu.BufferViewDesc) (gpu.Descriptor, error) {
	b, ok := desc.Buffer.(*Buffer)
	if !ok {
		return nil, errors.Newf("buffer %T can't be viewed by this device", desc.Buffer)
	}
	if desc.Offset+desc.Size > b.desc.Size {
		return nil, errors.Newf("view [%d, %d) exceeds buffer size %d", desc.Offset, desc.Offset+desc.Size, b.desc.Size)
	}
	return &Descriptor{
		context: vb.context,
		Type:    gpu.DescriptorConstantBuffer,
		Buffer:  b,
		Offset:  desc.Offset,
		Size:    desc.Size,
	}, nil
}

func (d *Descriptor) NativeObject() uint64 {
	if d.Buffer != nil {
		return uint64(uintptr(unsafe.Pointer(d.Buffer.Handle))) + d.Offset
	}
	return uint64(uintptr(unsafe.Pointer(d.View)))
}

func (d *Descriptor) Destroy() {
	if d.View == nil {
		return
	}
	vk.DestroyImageView(d.context.Device.LogicalDevice, d.View, d.context.Allocator)
	d.View = nil
}
