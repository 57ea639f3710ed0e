package nrd

import (
	"reflect"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// Resource is a texture and the state it was last left in.
type Resource struct {
	Texture gpu.Texture
	State   gpu.State
	// UserArg is not read by the integration. Callers use it to map unique entries back to
	// their own resources when RestoreInitialState is false. Two registrations of the same
	// texture only match when their tags are comparable and equal.
	UserArg any
}

// ResourceSnapshot maps roles to the external resources of one Denoise call. Roles sharing a
// native texture share one unique entry, so state tracking sees a single resource.
//
// The zero value is an empty snapshot. Snapshots hold no internal pointers and can be copied.
type ResourceSnapshot struct {
	unique [denoiser.RoleCount]Resource
	// slots holds the unique index plus one; zero means unset.
	slots     [denoiser.RoleCount]uint8
	uniqueNum int

	// RestoreInitialState makes Denoise transition every unique resource back to the state it
	// had on entry. Resources that entered in an unknown state are left as they are.
	RestoreInitialState bool
}

// SetResource binds role to r. Registering a texture that is already present with a different
// state or UserArg is a usage error.
func (s *ResourceSnapshot) SetResource(role denoiser.ResourceType, r Resource) error {
	if !role.IsRole() {
		return core.Precondition(core.ErrInvalidRole, "%s cannot be set in a snapshot", role)
	}
	if r.Texture == nil {
		return core.Precondition(core.ErrUnresolvedResource, "%s set to a nil texture", role)
	}

	native := r.Texture.NativeObject()
	for i := 0; i < s.uniqueNum; i++ {
		entry := &s.unique[i]
		if entry.Texture.NativeObject() != native {
			continue
		}
		switch {
		case entry.State.Access != r.State.Access:
			return core.Precondition(core.ErrResourceMismatch, "%s: same resource but different access (%s, %s)", role, entry.State.Access, r.State.Access)
		case entry.State.Layout != r.State.Layout:
			return core.Precondition(core.ErrResourceMismatch, "%s: same resource but different layout (%s, %s)", role, entry.State.Layout, r.State.Layout)
		case entry.State.Stages != r.State.Stages:
			return core.Precondition(core.ErrResourceMismatch, "%s: same resource but different stages", role)
		case !sameUserArg(entry.UserArg, r.UserArg):
			return core.Precondition(core.ErrResourceMismatch, "%s: same resource but different user arg", role)
		}
		s.slots[role] = uint8(i + 1)
		return nil
	}

	if s.uniqueNum == len(s.unique) {
		return core.Precondition(core.ErrSnapshotFull, "%s: %d unique resources", role, s.uniqueNum)
	}
	s.unique[s.uniqueNum] = r
	s.uniqueNum++
	s.slots[role] = uint8(s.uniqueNum)
	return nil
}

// sameUserArg compares tags without panicking on uncomparable dynamic types, which never match.
func sameUserArg(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// Unique returns the unique resources. After Denoise their states are the final states.
func (s *ResourceSnapshot) Unique() []Resource {
	return s.unique[:s.uniqueNum]
}

func (s *ResourceSnapshot) UniqueNum() int {
	return s.uniqueNum
}

// Resolve returns the unique entry bound to role.
func (s *ResourceSnapshot) Resolve(role denoiser.ResourceType) (*Resource, bool) {
	if !role.IsRole() || s.slots[role] == 0 {
		return nil, false
	}
	return &s.unique[s.slots[role]-1], true
}

// Reset clears every binding and keeps RestoreInitialState.
func (s *ResourceSnapshot) Reset() {
	restore := s.RestoreInitialState
	*s = ResourceSnapshot{RestoreInitialState: restore}
}
