//go:build mage

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

const (
	binaryName = "anima-denoiser"
	shaderDir  = "assets/shaders"
)

type Build mg.Namespace

// Runs go mod download and go mod tidy.
func (Build) Deps() error {
	return goModTidy()
}

// Builds the demo binary into bin/.
func (Build) Binary() error {
	if _, err := executeCmd("go", withArgs("build", "-o", filepath.Join("bin", binaryName), "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Compiles every assets/shaders/*.comp to SPIR-V next to its source.
func (Build) Shaders() error {
	return buildShaders()
}

func buildShaders() error {
	sources, err := filepath.Glob(filepath.Join(shaderDir, "*.comp"))
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Printf("No compute shaders in %s\n", shaderDir)
		return nil
	}
	for _, src := range sources {
		out := strings.TrimSuffix(src, filepath.Ext(src)) + ".spv"
		if _, err := executeCmd("glslc", withArgs("-fshader-stage=compute", src, "-o", out), withStream()); err != nil {
			return err
		}
	}
	return nil
}
