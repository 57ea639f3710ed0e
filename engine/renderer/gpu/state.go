package gpu

import "strings"

// Access is a set of memory access types.
type Access uint32

const (
	AccessShaderResource Access = 1 << iota
	AccessShaderResourceStorage
	AccessConstantBuffer
	AccessCopySource
	AccessCopyDestination
	AccessColorAttachment
	AccessNone Access = 0
)

var accessNames = [...]string{
	"ShaderResource",
	"ShaderResourceStorage",
	"ConstantBuffer",
	"CopySource",
	"CopyDestination",
	"ColorAttachment",
}

func (a Access) String() string {
	if a == AccessNone {
		return "None"
	}
	var parts []string
	for i, name := range accessNames {
		if a&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// Layout is a texture layout.
type Layout uint8

const (
	LayoutUndefined Layout = iota
	LayoutGeneral
	LayoutShaderResource
	LayoutShaderResourceStorage
	LayoutCopySource
	LayoutCopyDestination
	LayoutColorAttachment
)

func (l Layout) String() string {
	switch l {
	case LayoutGeneral:
		return "General"
	case LayoutShaderResource:
		return "ShaderResource"
	case LayoutShaderResourceStorage:
		return "ShaderResourceStorage"
	case LayoutCopySource:
		return "CopySource"
	case LayoutCopyDestination:
		return "CopyDestination"
	case LayoutColorAttachment:
		return "ColorAttachment"
	default:
		return "Undefined"
	}
}

// Stage is a set of pipeline stages.
type Stage uint32

const (
	StageComputeShader Stage = 1 << iota
	StageFragmentShader
	StageCopy
	StageAll
	StageNone Stage = 0
)

// State is the access, layout and stage scope a texture is in.
type State struct {
	Access Access
	Layout Layout
	Stages Stage
}

// IsUnknown reports whether the state carries no usable contents.
func (s State) IsUnknown() bool {
	return s.Access == AccessNone || s.Layout == LayoutUndefined
}

// Transitions reports whether moving from s to o needs a layout or access change.
func (s State) Transitions(o State) bool {
	return s.Access != o.Access || s.Layout != o.Layout
}

// IsStorage reports whether the state includes storage access.
func (s State) IsStorage() bool {
	return s.Access&AccessShaderResourceStorage != 0
}
