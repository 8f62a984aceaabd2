package cache

import "github.com/sarchlab/akita/v4/sim"

// HookPosAccess marks a completed cache access. The hook item is an
// AccessEvent.
var HookPosAccess = &sim.HookPos{Name: "CacheAccess"}

// AccessEvent describes one cache access.
type AccessEvent struct {
	Address uint32
	Index   uint32
	Tag     uint32
	// Way is the way that hit, or the way the block was installed into.
	Way int
	Hit bool
}
