package assets

import (
	"github.com/spaghettifunk/anima-denoiser/engine/assets/loaders"
	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
)

// Loader reads one kind of compiled shader from disk.
type Loader interface {
	Load(path string) ([]byte, error)
}

// Extensions of compiled shaders, indexed by denoiser shader kind.
var kindExtensions = [...]string{
	denoiser.ShaderDXBC:  ".dxbc",
	denoiser.ShaderDXIL:  ".dxil",
	denoiser.ShaderSPIRV: ".spv",
}

func defaultLoaders() map[int]Loader {
	return map[int]Loader{
		denoiser.ShaderDXBC:  &loaders.DXBCLoader{},
		denoiser.ShaderDXIL:  &loaders.DXBCLoader{},
		denoiser.ShaderSPIRV: &loaders.SPIRVLoader{},
	}
}

// kindOf returns the shader kind for a file extension, or -1.
func kindOf(ext string) int {
	for kind, e := range kindExtensions {
		if e == ext {
			return kind
		}
	}
	return -1
}
