package vulkan

import (
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

func TestFormatToVK(t *testing.T) {
	seen := make(map[vk.Format]gpu.Format)
	for f := gpu.FormatR8Unorm; f <= gpu.FormatR9G9B9E5Ufloat; f++ {
		vf := FormatToVK(f)
		if vf == vk.FormatUndefined {
			t.Errorf("%s has no Vulkan format", f)
			continue
		}
		if prev, ok := seen[vf]; ok {
			t.Errorf("%s and %s map to the same Vulkan format", prev, f)
		}
		seen[vf] = f
		if back := FormatFromVK(vf); back != f {
			t.Errorf("FormatFromVK(FormatToVK(%s)) = %s", f, back)
		}
	}
	if got := FormatToVK(gpu.FormatUnknown); got != vk.FormatUndefined {
		t.Errorf("FormatToVK(Unknown) = %d, want undefined", got)
	}
}

func TestFormatToVKPacked(t *testing.T) {
	tests := []struct {
		in   gpu.Format
		want vk.Format
	}{
		{gpu.FormatR10G10B10A2Unorm, vk.FormatA2b10g10r10UnormPack32},
		{gpu.FormatR11G11B10Ufloat, vk.FormatB10g11r11UfloatPack32},
		{gpu.FormatR9G9B9E5Ufloat, vk.FormatE5b9g9r9UfloatPack32},
		{gpu.FormatRGBA16Sfloat, vk.FormatR16g16b16a16Sfloat},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			if got := FormatToVK(tt.in); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToVkLayout(t *testing.T) {
	tests := []struct {
		in   gpu.Layout
		want vk.ImageLayout
	}{
		{gpu.LayoutUndefined, vk.ImageLayoutUndefined},
		{gpu.LayoutGeneral, vk.ImageLayoutGeneral},
		{gpu.LayoutShaderResource, vk.ImageLayoutShaderReadOnlyOptimal},
		{gpu.LayoutShaderResourceStorage, vk.ImageLayoutGeneral},
		{gpu.LayoutCopySource, vk.ImageLayoutTransferSrcOptimal},
		{gpu.LayoutCopyDestination, vk.ImageLayoutTransferDstOptimal},
		{gpu.LayoutColorAttachment, vk.ImageLayoutColorAttachmentOptimal},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			if got := toVkLayout(tt.in); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToVkAccess(t *testing.T) {
	tests := []struct {
		name string
		in   gpu.Access
		want vk.AccessFlagBits
	}{
		{"none", gpu.AccessNone, 0},
		{"texture", gpu.AccessShaderResource, vk.AccessShaderReadBit},
		{"storage", gpu.AccessShaderResourceStorage, vk.AccessShaderReadBit | vk.AccessShaderWriteBit},
		{"constant", gpu.AccessConstantBuffer, vk.AccessUniformReadBit},
		{"copy", gpu.AccessCopySource | gpu.AccessCopyDestination, vk.AccessTransferReadBit | vk.AccessTransferWriteBit},
		{"attachment", gpu.AccessColorAttachment, vk.AccessColorAttachmentWriteBit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toVkAccess(tt.in); got != vk.AccessFlags(tt.want) {
				t.Errorf("got %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestToVkStages(t *testing.T) {
	tests := []struct {
		name string
		in   gpu.Stage
		src  bool
		want vk.PipelineStageFlagBits
	}{
		{"none src", gpu.StageNone, true, vk.PipelineStageTopOfPipeBit},
		{"none dst", gpu.StageNone, false, vk.PipelineStageBottomOfPipeBit},
		{"all", gpu.StageAll | gpu.StageComputeShader, false, vk.PipelineStageAllCommandsBit},
		{"compute", gpu.StageComputeShader, true, vk.PipelineStageComputeShaderBit},
		{"compute and copy", gpu.StageComputeShader | gpu.StageCopy, false, vk.PipelineStageComputeShaderBit | vk.PipelineStageTransferBit},
		{"fragment", gpu.StageFragmentShader, false, vk.PipelineStageFragmentShaderBit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toVkStages(tt.in, tt.src); got != vk.PipelineStageFlags(tt.want) {
				t.Errorf("got %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestToVkDescriptorType(t *testing.T) {
	tests := []struct {
		in   gpu.DescriptorType
		want vk.DescriptorType
	}{
		{gpu.DescriptorTexture, vk.DescriptorTypeSampledImage},
		{gpu.DescriptorStorageTexture, vk.DescriptorTypeStorageImage},
		{gpu.DescriptorConstantBuffer, vk.DescriptorTypeUniformBufferDynamic},
		{gpu.DescriptorSampler, vk.DescriptorTypeSampler},
	}
	for _, tt := range tests {
		if got := toVkDescriptorType(tt.in); got != tt.want {
			t.Errorf("toVkDescriptorType(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMemoryProperties(t *testing.T) {
	upload := memoryProperties(gpu.MemoryDeviceUpload)
	if len(upload) != 2 {
		t.Fatalf("device upload tries %d property sets, want 2", len(upload))
	}
	if upload[0]&vk.MemoryPropertyDeviceLocalBit == 0 {
		t.Error("device upload should prefer device local memory")
	}
	for _, props := range upload {
		if props&vk.MemoryPropertyHostVisibleBit == 0 || props&vk.MemoryPropertyHostCoherentBit == 0 {
			t.Errorf("device upload candidate %#x is not host coherent", props)
		}
	}
	if got := memoryProperties(gpu.MemoryDevice); len(got) != 1 || got[0] != vk.MemoryPropertyDeviceLocalBit {
		t.Errorf("device memory = %v", got)
	}
	if isHostVisible(gpu.MemoryDevice) || !isHostVisible(gpu.MemoryHostUpload) {
		t.Error("isHostVisible mismatch")
	}
}

func TestSpirvWords(t *testing.T) {
	words, err := spirvWords([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	if err != nil {
		t.Fatalf("spirvWords: %v", err)
	}
	if len(words) != 2 || words[0] != 0x07230203 || words[1] != 0x00010000 {
		t.Errorf("words = %#x", words)
	}

	for _, bad := range [][]byte{nil, {1, 2, 3}} {
		if _, err := spirvWords(bad); err == nil {
			t.Errorf("spirvWords(%v) should fail", bad)
		}
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct{ v, a, want uint64 }{
		{0, 256, 0},
		{1, 256, 256},
		{256, 256, 256},
		{300, 64, 320},
		{7, 0, 7},
	}
	for _, tt := range tests {
		if got := alignUp(tt.v, tt.a); got != tt.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", tt.v, tt.a, got, tt.want)
		}
	}
}

func TestVulkanSafeString(t *testing.T) {
	tests := map[string]string{
		"":         "\x00",
		"main":     "main\x00",
		"main\x00": "main\x00",
	}
	for in, want := range tests {
		if got := VulkanSafeString(in); got != want {
			t.Errorf("VulkanSafeString(%q) = %q, want %q", in, got, want)
		}
	}
	if got := FindFirstZeroInByteArray([]byte("abc\x00def")); got != 3 {
		t.Errorf("FindFirstZeroInByteArray = %d, want 3", got)
	}
}

func TestResultError(t *testing.T) {
	if err := resultError("vkNothing", vk.Success); err != nil {
		t.Fatalf("success produced %v", err)
	}
	err := resultError("vkQueueSubmit", vk.ErrorDeviceLost)
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got != "vkQueueSubmit failed: VK_ERROR_DEVICE_LOST" {
		t.Errorf("message = %q", got)
	}
	if !errors.Is(err, core.ErrDeviceLost) {
		t.Error("device lost is not marked with core.ErrDeviceLost")
	}
	if errors.Is(resultError("vkCreateImage", vk.ErrorOutOfDeviceMemory), core.ErrDeviceLost) {
		t.Error("out of memory marked as device lost")
	}
}
