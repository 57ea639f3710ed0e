package nrd

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
)

const maxNameLength = 63

// IntegrationDesc configures an Integration. Resource size is fixed for the lifetime of an
// instance; dynamic resolution is only supported through CommonSettings.RectSize.
type IntegrationDesc struct {
	// Name is used for debug names and logging only.
	Name           string
	ResourceWidth  uint16
	ResourceHeight uint16
	// QueuedFrameNum is the number of frames that may be in flight on the GPU.
	QueuedFrameNum uint8

	// EnableWholeLifetimeDescriptorCaching keeps views alive until DestroyCachedViews or
	// Destroy instead of recycling them with their descriptor pool.
	EnableWholeLifetimeDescriptorCaching bool
	// AutoWaitForIdle waits for the device before destroying objects that may be in use.
	AutoWaitForIdle bool

	DemoteFloat32to16  bool
	PromoteFloat16to32 bool
}

func DefaultIntegrationDesc() IntegrationDesc {
	return IntegrationDesc{
		QueuedFrameNum:  3,
		AutoWaitForIdle: true,
	}
}

func invalid(sentinel error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(sentinel, format, args...), core.ErrInvalidConfig)
}

// Validate checks the configuration errors Recreate refuses to start with. Returned errors match
// both core.ErrInvalidConfig and the specific sentinel.
func (d IntegrationDesc) Validate() error {
	if len(d.Name) > maxNameLength {
		return invalid(core.ErrNameTooLong, "name is %d bytes", len(d.Name))
	}
	if d.QueuedFrameNum == 0 {
		return invalid(core.ErrZeroQueuedFrames, "queued frames")
	}
	if d.ResourceWidth == 0 || d.ResourceHeight == 0 {
		return invalid(core.ErrZeroResourceSize, "resource size %dx%d", d.ResourceWidth, d.ResourceHeight)
	}
	if d.DemoteFloat32to16 && d.PromoteFloat16to32 {
		return invalid(core.ErrFloatPolicyConflict, "float policy")
	}
	return nil
}
