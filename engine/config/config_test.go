package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
)

const sample = `
[integration]
name = "bistro"
width = 1280
height = 720
queued_frames = 2
whole_lifetime_descriptor_caching = true
demote_float32_to_16 = true

[log]
level = "debug"

[shaders]
dir = "build/shaders"
hot_reload = true

[run]
backend = "null"
frames = 120

[run.sigma]
light_direction = [0.0, -1.0, 0.0]
max_stabilized_frames = 3
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	desc := cfg.Integration.Desc()
	if desc.Name != "bistro" || desc.ResourceWidth != 1280 || desc.ResourceHeight != 720 {
		t.Errorf("integration = %+v", desc)
	}
	if desc.QueuedFrameNum != 2 || !desc.EnableWholeLifetimeDescriptorCaching || !desc.DemoteFloat32to16 {
		t.Errorf("integration flags = %+v", desc)
	}
	if !desc.AutoWaitForIdle {
		t.Error("auto_wait_for_idle lost its default")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Prefix != "anima" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Shaders.Dir != "build/shaders" || !cfg.Shaders.HotReload {
		t.Errorf("shaders = %+v", cfg.Shaders)
	}
	if cfg.Run.Backend != BackendNull || cfg.Run.Frames != 120 {
		t.Errorf("run = %+v", cfg.Run)
	}

	sigma := cfg.Run.Sigma.Settings()
	if sigma.LightDirection != [3]float32{0, -1, 0} || sigma.MaxStabilizedFrameNum != 3 {
		t.Errorf("sigma = %+v", sigma)
	}
	if sigma.PlaneDistanceSensitivity != Default().Run.Sigma.PlaneDistanceSensitivity {
		t.Errorf("plane distance sensitivity = %v, want the default", sigma.PlaneDistanceSensitivity)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	def := Default()
	if *cfg != *def {
		t.Errorf("empty config = %+v, want the defaults %+v", cfg, def)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    error
		message string
	}{
		{
			name:    "syntax",
			input:   "[integration]\nname = \"x\"\nwidth = = 3\n",
			want:    ErrSyntax,
			message: "line 3",
		},
		{
			name:    "unknown key",
			input:   "[run]\nbogus = 1\n",
			want:    ErrUnknownKeys,
			message: "bogus",
		},
		{
			name:  "zero queued frames",
			input: "[integration]\nqueued_frames = 0\n",
			want:  core.ErrZeroQueuedFrames,
		},
		{
			name:  "float policy conflict",
			input: "[integration]\ndemote_float32_to_16 = true\npromote_float16_to_32 = true\n",
			want:  core.ErrInvalidConfig,
		},
		{
			name:    "log level",
			input:   "[log]\nlevel = \"loud\"\n",
			want:    ErrInvalid,
			message: "loud",
		},
		{
			name:    "backend",
			input:   "[run]\nbackend = \"metal\"\n",
			want:    ErrInvalid,
			message: "metal",
		},
		{
			name:  "negative frames",
			input: "[run]\nframes = -1\n",
			want:  ErrInvalid,
		},
		{
			name:  "hot reload without dir",
			input: "[shaders]\ndir = \"\"\nhot_reload = true\n",
			want:  ErrInvalid,
		},
		{
			name:  "sigma history",
			input: "[run.sigma]\nmax_stabilized_frames = 99\n",
			want:  ErrInvalid,
		},
		{
			name:  "sigma sensitivity",
			input: "[run.sigma]\nplane_distance_sensitivity = 0.0\n",
			want:  ErrInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.message != "" && !strings.Contains(err.Error(), tt.message) {
				t.Errorf("message %q does not mention %q", err.Error(), tt.message)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "denoiser.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Integration.Name != "bistro" {
		t.Errorf("name = %q", cfg.Integration.Name)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[run]\nbackend = \"metal\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), bad) {
		t.Errorf("bad file err = %v", err)
	}
}
