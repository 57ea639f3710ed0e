package denoiser

import (
	"github.com/cockroachdb/errors"
)

var (
	ErrUnsupportedDenoiser = errors.New("denoiser: unsupported denoiser")
	ErrUnknownIdentifier   = errors.New("denoiser: unknown identifier")
	ErrDuplicateIdentifier = errors.New("denoiser: duplicate identifier")
	ErrInvalidSettings     = errors.New("denoiser: invalid settings")
)

// Library creates denoiser instances.
type Library interface {
	Desc() LibraryDesc
	CreateInstance(desc InstanceCreationDesc) (Instance, error)
}

// Instance is a set of denoisers sharing pools, pipelines and common settings.
type Instance interface {
	Desc() InstanceDesc
	SetCommonSettings(settings CommonSettings) error
	// SetDenoiserSettings takes the settings type of the denoiser behind id, e.g. SigmaSettings.
	SetDenoiserSettings(id Identifier, settings any) error
	// ComputeDispatches returns the dispatches for ids in order. The result is valid until the
	// next call.
	ComputeDispatches(ids []Identifier) ([]DispatchDesc, error)
	// ReloadShaders refetches every pipeline's bytecode from the shader source.
	ReloadShaders() error
	Destroy()
}

// ShaderSource supplies compiled bytecode for a shader by file name and kind.
type ShaderSource interface {
	Bytecode(shaderFileName string, kind int) ([]byte, error)
}

// StaticShaders serves the same bytecode for every kind, keyed by shader file name. Unknown
// names get an empty blob.
type StaticShaders map[string][]byte

func (s StaticShaders) Bytecode(shaderFileName string, kind int) ([]byte, error) {
	return s[shaderFileName], nil
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

func WithNormalEncoding(enc NormalEncoding) CatalogOption {
	return func(c *Catalog) { c.desc.NormalEncoding = enc }
}

func WithSPIRVBindingOffsets(offsets SPIRVBindingOffsets) CatalogOption {
	return func(c *Catalog) { c.desc.SPIRVBindingOffsets = offsets }
}

// WithVersion overrides the reported library version.
func WithVersion(major, minor, build uint8) CatalogOption {
	return func(c *Catalog) {
		c.desc.VersionMajor, c.desc.VersionMinor, c.desc.VersionBuild = major, minor, build
	}
}

// Catalog is the built-in library.
type Catalog struct {
	desc   LibraryDesc
	source ShaderSource
}

func NewCatalog(source ShaderSource, opts ...CatalogOption) *Catalog {
	if source == nil {
		source = StaticShaders{}
	}
	c := &Catalog{
		desc: LibraryDesc{
			SPIRVBindingOffsets: SPIRVBindingOffsets{
				SamplerOffset:                 100,
				TextureOffset:                 200,
				ConstantBufferOffset:          300,
				StorageTextureAndBufferOffset: 400,
			},
			SupportedDenoisers: []Denoiser{SigmaShadow},
			VersionMajor:       VersionMajor,
			VersionMinor:       VersionMinor,
			VersionBuild:       VersionBuild,
			NormalEncoding:     NormalEncodingR10G10B10A2Unorm,
		},
		source: source,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) Desc() LibraryDesc {
	return c.desc
}

func (c *Catalog) CreateInstance(desc InstanceCreationDesc) (Instance, error) {
	inst, err := newInstance(c.source, desc)
	if err != nil {
		return nil, err
	}
	return inst, nil
}
