package nrd

import (
	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// wholeLifetimeSlot is the key slot used when views outlive their descriptor pool.
const wholeLifetimeSlot = -1

type viewKey struct {
	native  uint64
	storage bool
	slot    int
}

// viewCache hands out texture views. A view is owned by the in-flight list of the pool slot
// that was current when it was created, and is destroyed only when that slot is recycled or on
// teardown. Cache eviction just forgets the key.
type viewCache struct {
	views         *lru.Cache[viewKey, gpu.Descriptor]
	inFlight      [][]gpu.Descriptor
	wholeLifetime bool

	created   int
	evictions int
}

func newViewCache(slots, capacity int, wholeLifetime bool) (*viewCache, error) {
	views, err := lru.New[viewKey, gpu.Descriptor](max(capacity, 1))
	if err != nil {
		return nil, errors.Wrap(err, "creating view cache")
	}
	return &viewCache{
		views:         views,
		inFlight:      make([][]gpu.Descriptor, slots),
		wholeLifetime: wholeLifetime,
	}, nil
}

func (c *viewCache) key(tex gpu.Texture, storage bool, slot int) viewKey {
	if c.wholeLifetime {
		slot = wholeLifetimeSlot
	}
	return viewKey{native: tex.NativeObject(), storage: storage, slot: slot}
}

// get returns the view of tex for the pool slot, creating it on a miss.
func (c *viewCache) get(dev gpu.Device, slot int, tex gpu.Texture, storage bool) (gpu.Descriptor, error) {
	key := c.key(tex, storage, slot)
	if view, ok := c.views.Get(key); ok {
		return view, nil
	}

	desc := gpu.TextureViewDesc{
		Texture:  tex,
		Type:     gpu.TextureView,
		Format:   tex.Desc().Format,
		MipNum:   1,
		LayerNum: 1,
	}
	if storage {
		desc.Type = gpu.StorageTextureView
	}
	view, err := dev.CreateTextureView(desc)
	if err != nil {
		return nil, errors.Wrapf(err, "creating view of texture %#x", key.native)
	}

	if c.views.Add(key, view) {
		c.evictions++
	}
	c.inFlight[slot] = append(c.inFlight[slot], view)
	c.created++
	return view, nil
}

// recycle destroys the views created while slot was current and drops their keys. It does
// nothing in whole-lifetime mode.
func (c *viewCache) recycle(slot int) int {
	if c.wholeLifetime {
		return 0
	}
	for _, k := range c.views.Keys() {
		if k.slot == slot {
			c.views.Remove(k)
		}
	}
	n := len(c.inFlight[slot])
	for _, view := range c.inFlight[slot] {
		view.Destroy()
	}
	c.inFlight[slot] = c.inFlight[slot][:0]
	return n
}

// destroyAll destroys every view of every slot and empties the cache.
func (c *viewCache) destroyAll() int {
	n := 0
	for slot := range c.inFlight {
		for _, view := range c.inFlight[slot] {
			view.Destroy()
		}
		n += len(c.inFlight[slot])
		c.inFlight[slot] = c.inFlight[slot][:0]
	}
	c.views.Purge()
	return n
}

// takeEvictions returns the number of keys evicted since the last call.
func (c *viewCache) takeEvictions() int {
	n := c.evictions
	c.evictions = 0
	return n
}

// takeCreated returns the number of views created since the last call.
func (c *viewCache) takeCreated() int {
	n := c.created
	c.created = 0
	return n
}
