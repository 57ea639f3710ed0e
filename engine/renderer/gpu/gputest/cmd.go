package gputest

import (
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

type Op uint8

const (
	OpSetDescriptorPool Op = iota
	OpSetPipelineLayout
	OpSetPipeline
	OpSetDescriptorSet
	OpSetRootConstantBuffer
	OpBarrier
	OpDispatch
	OpBeginAnnotation
	OpEndAnnotation
)

// Command is one recorded call. Only the fields relevant to Op are set.
type Command struct {
	Op        Op
	Pool      gpu.DescriptorPool
	Layout    gpu.PipelineLayout
	Pipeline  gpu.Pipeline
	SetIndex  uint32
	Set       gpu.DescriptorSet
	RootIndex uint32
	View      gpu.Descriptor
	Offset    uint32
	Barriers  []gpu.TextureBarrier
	Grid      [3]uint32
	Name      string
	Color     uint32
}

// CmdBuffer records commands in order.
type CmdBuffer struct {
	Commands []Command
}

func (c *CmdBuffer) SetDescriptorPool(pool gpu.DescriptorPool) {
	c.Commands = append(c.Commands, Command{Op: OpSetDescriptorPool, Pool: pool})
}

func (c *CmdBuffer) SetPipelineLayout(layout gpu.PipelineLayout) {
	c.Commands = append(c.Commands, Command{Op: OpSetPipelineLayout, Layout: layout})
}

func (c *CmdBuffer) SetPipeline(pipeline gpu.Pipeline) {
	c.Commands = append(c.Commands, Command{Op: OpSetPipeline, Pipeline: pipeline})
}

func (c *CmdBuffer) SetDescriptorSet(setIndex uint32, set gpu.DescriptorSet) {
	c.Commands = append(c.Commands, Command{Op: OpSetDescriptorSet, SetIndex: setIndex, Set: set})
}

func (c *CmdBuffer) SetRootConstantBuffer(rootIndex uint32, view gpu.Descriptor, offset uint32) {
	c.Commands = append(c.Commands, Command{Op: OpSetRootConstantBuffer, RootIndex: rootIndex, View: view, Offset: offset})
}

// Barrier copies the batch; callers reuse their scratch slices.
func (c *CmdBuffer) Barrier(barriers []gpu.TextureBarrier) {
	batch := make([]gpu.TextureBarrier, len(barriers))
	copy(batch, barriers)
	c.Commands = append(c.Commands, Command{Op: OpBarrier, Barriers: batch})
}

func (c *CmdBuffer) Dispatch(x, y, z uint32) {
	c.Commands = append(c.Commands, Command{Op: OpDispatch, Grid: [3]uint32{x, y, z}})
}

func (c *CmdBuffer) BeginAnnotation(name string, color uint32) {
	c.Commands = append(c.Commands, Command{Op: OpBeginAnnotation, Name: name, Color: color})
}

func (c *CmdBuffer) EndAnnotation() {
	c.Commands = append(c.Commands, Command{Op: OpEndAnnotation})
}

// Count returns how many commands of op were recorded.
func (c *CmdBuffer) Count(op Op) int {
	n := 0
	for _, cmd := range c.Commands {
		if cmd.Op == op {
			n++
		}
	}
	return n
}

// Barriers flattens every recorded barrier batch.
func (c *CmdBuffer) Barriers() []gpu.TextureBarrier {
	var out []gpu.TextureBarrier
	for _, cmd := range c.Commands {
		if cmd.Op == OpBarrier {
			out = append(out, cmd.Barriers...)
		}
	}
	return out
}

// BarriersFor returns the barriers recorded for one texture, in order.
func (c *CmdBuffer) BarriersFor(t gpu.Texture) []gpu.TextureBarrier {
	var out []gpu.TextureBarrier
	for _, b := range c.Barriers() {
		if b.Texture.NativeObject() == t.NativeObject() {
			out = append(out, b)
		}
	}
	return out
}

// Filter returns the commands of op, in order.
func (c *CmdBuffer) Filter(op Op) []Command {
	var out []Command
	for _, cmd := range c.Commands {
		if cmd.Op == op {
			out = append(out, cmd)
		}
	}
	return out
}

func (c *CmdBuffer) Reset() {
	c.Commands = c.Commands[:0]
}
