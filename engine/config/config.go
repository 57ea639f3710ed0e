// Package config loads the denoiser runner configuration from TOML.
package config

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
	"github.com/spaghettifunk/anima-denoiser/engine/nrd"
)

var (
	ErrSyntax      = errors.New("malformed configuration")
	ErrUnknownKeys = errors.New("unknown configuration keys")
	ErrInvalid     = errors.New("invalid configuration")
)

const (
	BackendVulkan = "vulkan"
	BackendNull   = "null"
)

type Config struct {
	Integration IntegrationConfig `toml:"integration"`
	Log         LogConfig         `toml:"log"`
	Shaders     ShaderConfig      `toml:"shaders"`
	Run         RunConfig         `toml:"run"`
}

// IntegrationConfig mirrors nrd.IntegrationDesc.
type IntegrationConfig struct {
	Name                           string `toml:"name"`
	Width                          uint16 `toml:"width"`
	Height                         uint16 `toml:"height"`
	QueuedFrames                   uint8  `toml:"queued_frames"`
	WholeLifetimeDescriptorCaching bool   `toml:"whole_lifetime_descriptor_caching"`
	AutoWaitForIdle                bool   `toml:"auto_wait_for_idle"`
	DemoteFloat32To16              bool   `toml:"demote_float32_to_16"`
	PromoteFloat16To32             bool   `toml:"promote_float16_to_32"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Prefix string `toml:"prefix"`
}

type ShaderConfig struct {
	// Dir holds compiled shaders named <pass>.<kind>, e.g. sigma_classify_tiles.spv.
	Dir       string `toml:"dir"`
	HotReload bool   `toml:"hot_reload"`
}

type RunConfig struct {
	Backend string `toml:"backend"`
	// Frames to run; zero runs until interrupted.
	Frames     int         `toml:"frames"`
	Validation bool        `toml:"validation"`
	Sigma      SigmaConfig `toml:"sigma"`
}

type SigmaConfig struct {
	LightDirection           [3]float32 `toml:"light_direction"`
	PlaneDistanceSensitivity float32    `toml:"plane_distance_sensitivity"`
	MaxStabilizedFrames      uint32     `toml:"max_stabilized_frames"`
}

// Default returns the configuration used for keys a file leaves out.
func Default() *Config {
	desc := nrd.DefaultIntegrationDesc()
	sigma := denoiser.DefaultSigmaSettings()
	return &Config{
		Integration: IntegrationConfig{
			Name:            "anima",
			Width:           1920,
			Height:          1080,
			QueuedFrames:    desc.QueuedFrameNum,
			AutoWaitForIdle: desc.AutoWaitForIdle,
		},
		Log: LogConfig{
			Level:  "info",
			Prefix: "anima",
		},
		Shaders: ShaderConfig{
			Dir: "assets/shaders",
		},
		Run: RunConfig{
			Backend: BackendVulkan,
			Sigma: SigmaConfig{
				LightDirection:           sigma.LightDirection,
				PlaneDistanceSensitivity: sigma.PlaneDistanceSensitivity,
				MaxStabilizedFrames:      sigma.MaxStabilizedFrameNum,
			},
		},
	}
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return cfg, nil
}

// Parse decodes data over the defaults and validates the result. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, errors.Mark(errors.Newf("line %d, column %d: %s", row, col, derr.Error()), ErrSyntax)
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return nil, errors.Mark(errors.Newf("%s", serr.String()), ErrUnknownKeys)
		}
		return nil, errors.Mark(errors.Wrap(err, "decoding config"), ErrSyntax)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func invalid(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalid)
}

// Validate checks every section. Integration errors keep their core.ErrInvalidConfig mark.
func (c *Config) Validate() error {
	if err := c.Integration.Desc().Validate(); err != nil {
		return errors.Wrap(err, "[integration]")
	}
	if _, err := core.ParseLevel(c.Log.Level); err != nil {
		return invalid("[log] level %q: %s", c.Log.Level, err)
	}
	if c.Shaders.HotReload && c.Shaders.Dir == "" {
		return invalid("[shaders] hot_reload needs a dir")
	}
	switch c.Run.Backend {
	case BackendVulkan, BackendNull:
	default:
		return invalid("[run] backend %q, want %q or %q", c.Run.Backend, BackendVulkan, BackendNull)
	}
	if c.Run.Frames < 0 {
		return invalid("[run] frames %d is negative", c.Run.Frames)
	}
	if c.Run.Sigma.PlaneDistanceSensitivity <= 0 {
		return invalid("[run.sigma] plane_distance_sensitivity must be positive")
	}
	if c.Run.Sigma.MaxStabilizedFrames > denoiser.SigmaMaxHistoryFrameNum {
		return invalid("[run.sigma] max_stabilized_frames %d exceeds %d", c.Run.Sigma.MaxStabilizedFrames, denoiser.SigmaMaxHistoryFrameNum)
	}
	return nil
}

func (c IntegrationConfig) Desc() nrd.IntegrationDesc {
	return nrd.IntegrationDesc{
		Name:                                 c.Name,
		ResourceWidth:                        c.Width,
		ResourceHeight:                       c.Height,
		QueuedFrameNum:                       c.QueuedFrames,
		EnableWholeLifetimeDescriptorCaching: c.WholeLifetimeDescriptorCaching,
		AutoWaitForIdle:                      c.AutoWaitForIdle,
		DemoteFloat32to16:                    c.DemoteFloat32To16,
		PromoteFloat16to32:                   c.PromoteFloat16To32,
	}
}

func (c SigmaConfig) Settings() denoiser.SigmaSettings {
	return denoiser.SigmaSettings{
		LightDirection:           c.LightDirection,
		PlaneDistanceSensitivity: c.PlaneDistanceSensitivity,
		MaxStabilizedFrameNum:    c.MaxStabilizedFrames,
	}
}
