package nrd

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// Annotation colors, alternating per dispatch.
const (
	colorLimeGreen uint32 = 0xFF32CD32
	colorLawnGreen uint32 = 0xFF7CFC00
)

// Denoise records the dispatches of ids into cmd. Resource states in snap are updated to the
// states the recorded work leaves them in, or restored when snap.RestoreInitialState is set.
//
// An error leaves cmd partially recorded; the caller must not submit it.
func (i *Integration) Denoise(ids []denoiser.Identifier, cmd gpu.CmdBuffer, snap *ResourceSnapshot) error {
	if err := i.checkInitialized(); err != nil {
		return err
	}

	unique := snap.Unique()
	i.initialStates = i.initialStates[:0]
	for _, r := range unique {
		i.initialStates = append(i.initialStates, r.State)
	}

	if i.frameIndex == 0 {
		if err := i.checkNormalEncoding(snap); err != nil {
			return err
		}
	}

	dispatches, err := i.instance.ComputeDispatches(ids)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "computing dispatches"), core.ErrDispatchFailed)
	}

	pool := i.dpools[i.poolIndex]
	cmd.SetDescriptorPool(pool)
	cmd.SetPipelineLayout(i.layout)

	for n := range dispatches {
		color := colorLimeGreen
		if n&1 == 1 {
			color = colorLawnGreen
		}
		cmd.BeginAnnotation(dispatches[n].Name, color)
		err := i.dispatch(cmd, pool, &dispatches[n], snap)
		cmd.EndAnnotation()
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "dispatch %q", dispatches[n].Name), core.ErrDispatchFailed)
		}
	}

	if snap.RestoreInitialState {
		i.barriers = restoreBarriers(i.barriers[:0], unique, i.initialStates)
		if len(i.barriers) > 0 {
			cmd.Barrier(i.barriers)
			if i.metrics != nil {
				i.metrics.AddBarriers(len(i.barriers))
			}
		}
	}
	return nil
}

// checkNormalEncoding verifies once that IN_NORMAL_ROUGHNESS can hold the library normal encoding.
func (i *Integration) checkNormalEncoding(snap *ResourceSnapshot) error {
	r, ok := snap.Resolve(denoiser.InNormalRoughness)
	if !ok {
		return nil
	}
	enc := i.lib.Desc().NormalEncoding
	format := r.Texture.Desc().Format
	if normalFormatMatches(enc, format) {
		return nil
	}
	i.logger.Warn("IN_NORMAL_ROUGHNESS format doesn't match the normal encoding", "format", format, "encoding", enc)
	return core.Precondition(core.ErrNormalEncodingMismatch, "format %s, encoding %d", format, enc)
}

func (i *Integration) resolve(rd denoiser.ResourceDesc, snap *ResourceSnapshot) (*Resource, error) {
	switch rd.Type {
	case denoiser.PermanentPool:
		if int(rd.IndexInPool) >= i.pool.permanentNum {
			return nil, errors.Newf("permanent pool index %d out of range", rd.IndexInPool)
		}
		return i.pool.resolve(rd.Type, rd.IndexInPool), nil
	case denoiser.TransientPool:
		if i.pool.permanentNum+int(rd.IndexInPool) >= len(i.pool.resources) {
			return nil, errors.Newf("transient pool index %d out of range", rd.IndexInPool)
		}
		return i.pool.resolve(rd.Type, rd.IndexInPool), nil
	}
	r, ok := snap.Resolve(rd.Type)
	if !ok {
		return nil, core.Precondition(core.ErrUnresolvedResource, "%s is not set in the snapshot", rd.Type)
	}
	return r, nil
}

func (i *Integration) dispatch(cmd gpu.CmdBuffer, pool gpu.DescriptorPool, d *denoiser.DispatchDesc, snap *ResourceSnapshot) error {
	inst := i.instance.Desc()
	if int(d.PipelineIndex) >= len(i.pipelines) {
		return errors.Newf("pipeline index %d out of range", d.PipelineIndex)
	}
	pd := &inst.Pipelines[d.PipelineIndex]

	set, err := pool.AllocateDescriptorSet(i.layout, 0)
	if err != nil {
		return errors.Wrap(err, "allocating descriptor set")
	}

	var updates [rangeCount]gpu.DescriptorRangeUpdate
	i.descriptors = i.descriptors[:0]
	i.barriers = i.barriers[:0]
	next := 0

	for r, rr := range pd.ResourceRanges {
		storage := rr.DescriptorType == denoiser.DescriptorStorageTexture
		first := len(i.descriptors)
		for n := uint32(0); n < rr.DescriptorsNum; n++ {
			if next >= len(d.Resources) {
				return errors.Newf("dispatch declares %d resources, pipeline needs more", len(d.Resources))
			}
			res, err := i.resolve(d.Resources[next], snap)
			if err != nil {
				return err
			}
			next++

			i.barriers = transition(i.barriers, res, requiredState(storage))

			view, err := i.views.get(i.device, i.poolIndex, res.Texture, storage)
			if err != nil {
				return err
			}
			i.descriptors = append(i.descriptors, view)
		}
		updates[r] = gpu.DescriptorRangeUpdate{Descriptors: i.descriptors[first:]}
	}

	offset := i.ring.previous()
	if len(d.ConstantBufferData) > 0 && !d.ConstantBufferDataMatchesPreviousDispatch {
		if offset, err = i.uploadConstants(d.ConstantBufferData); err != nil {
			return err
		}
	}

	baseRange := rangeTextures
	if len(pd.ResourceRanges) == 1 {
		baseRange = rangeStorages
	}
	set.UpdateRanges(baseRange, updates[:len(pd.ResourceRanges)])

	cmd.SetPipeline(i.pipelines[d.PipelineIndex])
	cmd.SetDescriptorSet(0, set)
	if i.constantView != nil {
		cmd.SetRootConstantBuffer(0, i.constantView, uint32(offset))
	}
	if len(i.barriers) > 0 {
		cmd.Barrier(i.barriers)
	}
	cmd.Dispatch(uint32(d.GridWidth), uint32(d.GridHeight), 1)

	created, evicted := i.views.takeCreated(), i.views.takeEvictions()
	if i.metrics != nil {
		i.metrics.AddDispatch()
		i.metrics.AddBarriers(len(i.barriers))
		for n := 0; n < created; n++ {
			i.metrics.AddViewCreated()
		}
		i.metrics.AddViewsEvicted(evicted)
	}
	i.logger.Debug(d.Name, "pipeline", d.PipelineIndex, "views", created, "evicted", evicted, "resources", resourceList(d.Resources))
	return nil
}

func (i *Integration) uploadConstants(data []byte) (uint64, error) {
	if uint64(len(data)) > i.ring.viewSize {
		return 0, errors.Newf("constant data of %d bytes exceeds view size %d", len(data), i.ring.viewSize)
	}
	offset := i.ring.push()
	dst, err := i.constantBuffer.Map(offset, uint64(len(data)))
	if err != nil {
		return 0, errors.Wrap(err, "mapping constant buffer")
	}
	copy(dst, data)
	i.constantBuffer.Unmap()
	if i.metrics != nil {
		i.metrics.AddConstantUpload()
	}
	return offset, nil
}

// resourceList formats dispatch resources as P(i), T(i) or their role name. Formatting is
// deferred until a log line is actually written.
type resourceList []denoiser.ResourceDesc

func (l resourceList) String() string {
	var sb strings.Builder
	for n, rd := range l {
		if n > 0 {
			sb.WriteByte(' ')
		}
		switch rd.Type {
		case denoiser.PermanentPool:
			fmt.Fprintf(&sb, "P(%d)", rd.IndexInPool)
		case denoiser.TransientPool:
			fmt.Fprintf(&sb, "T(%d)", rd.IndexInPool)
		default:
			sb.WriteString(rd.Type.String())
		}
		if rd.DescriptorType == denoiser.DescriptorStorageTexture {
			sb.WriteString("(rw)")
		}
	}
	return sb.String()
}
