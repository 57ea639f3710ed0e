//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the demo with denoiser.toml on the null backend.
func (Run) Demo() error {
	fmt.Println("Run demo...")
	if _, err := executeCmd("go", withArgs("run", ".", "-config", "denoiser.toml", "-backend", "null"), withStream()); err != nil {
		return err
	}
	return nil
}

// Compiles the shaders and runs the demo on Vulkan.
func (Run) Vulkan() error {
	mg.Deps(Build.Shaders)
	fmt.Println("Run demo on Vulkan...")
	if _, err := executeCmd("go", withArgs("run", ".", "-config", "denoiser.toml", "-backend", "vulkan"), withStream()); err != nil {
		return err
	}
	return nil
}
