package nrd

// constantRing hands out viewSize regions of the constant buffer. It wraps to the start when
// the next region would not fit.
type constantRing struct {
	size       uint64
	viewSize   uint64
	offset     uint64
	offsetPrev uint64
}

func newConstantRing(viewSize uint64, regions uint64) constantRing {
	return constantRing{size: viewSize * regions, viewSize: viewSize}
}

// push reserves the next region and returns its offset.
func (r *constantRing) push() uint64 {
	if r.offset+r.viewSize > r.size {
		r.offset = 0
	}
	off := r.offset
	r.offset += r.viewSize
	r.offsetPrev = off
	return off
}

// previous is the offset of the last pushed region.
func (r *constantRing) previous() uint64 {
	return r.offsetPrev
}
