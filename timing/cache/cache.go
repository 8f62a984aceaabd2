// Package cache provides a set-associative cache model with exact LRU
// replacement for the timing pipeline.
package cache

import (
	"fmt"
	"math"

	"github.com/sarchlab/akita/v4/sim"
)

// MaxCacheSize is the largest cache the model accepts, in bytes of storage
// (data, tag and valid bits of every line).
const MaxCacheSize = 10240

// Upper bounds on single fields. Either field alone past its bound already
// exceeds MaxCacheSize, since every line holds at least 32 data bits.
const (
	maxBlockWords    = MaxCacheSize * 8 / 32
	maxAssociativity = MaxCacheSize * 8 / 32
)

// Config holds cache configuration parameters.
type Config struct {
	// IndexBits is the number of address bits that select a set.
	IndexBits int `json:"index_bits" yaml:"indexBits"`
	// BlockWords is the block size in 4-byte words.
	BlockWords int `json:"block_words" yaml:"blockWords"`
	// Associativity is the number of ways per set.
	Associativity int `json:"associativity" yaml:"associativity"`
}

// DefaultConfig returns a direct-mapped cache with 1024 one-word lines.
func DefaultConfig() Config {
	return Config{
		IndexBits:     10,
		BlockWords:    1,
		Associativity: 1,
	}
}

// OffsetBits returns the number of block-offset bits, round(log2(words*4)).
func (c Config) OffsetBits() int {
	return int(math.RoundToEven(math.Log2(float64(c.BlockWords * 4))))
}

// NumSets returns the number of sets, 2^IndexBits.
func (c Config) NumSets() int {
	return 1 << c.IndexBits
}

// CapacityBits returns the storage the cache needs in bits. Every line holds
// 32*BlockWords data bits, a tag and a valid bit.
func (c Config) CapacityBits() uint64 {
	tagBits := 32 - c.IndexBits - c.OffsetBits()
	lineBits := uint64(32*c.BlockWords + tagBits + 1)

	return uint64(c.Associativity) * (uint64(1) << uint(c.IndexBits)) * lineBits
}

// CapacityBytes returns CapacityBits rounded up to whole bytes.
func (c Config) CapacityBytes() uint64 {
	return (c.CapacityBits() + 7) / 8
}

// Validate checks that the configuration describes a cache the model can
// build.
func (c Config) Validate() error {
	if c.IndexBits <= 0 {
		return &ConfigError{Config: c, Reason: "index bits must be > 0"}
	}
	if c.BlockWords <= 0 {
		return &ConfigError{Config: c, Reason: "block size must be > 0"}
	}
	if c.Associativity <= 0 {
		return &ConfigError{Config: c, Reason: "associativity must be > 0"}
	}
	if c.IndexBits > 31 {
		return &ConfigError{
			Config: c,
			Reason: fmt.Sprintf("index bits (%d) leave no tag bits", c.IndexBits),
		}
	}

	// Each field alone must fit before the capacity product is formed.
	if c.BlockWords > maxBlockWords {
		return &ConfigError{
			Config: c,
			Reason: fmt.Sprintf("cache too big: block size %d words, max is %d words",
				c.BlockWords, maxBlockWords),
		}
	}
	if c.Associativity > maxAssociativity {
		return &ConfigError{
			Config: c,
			Reason: fmt.Sprintf("cache too big: associativity %d, max is %d",
				c.Associativity, maxAssociativity),
		}
	}

	if c.IndexBits+c.OffsetBits() > 31 {
		return &ConfigError{
			Config: c,
			Reason: fmt.Sprintf("index and offset bits (%d) leave no tag bits",
				c.IndexBits+c.OffsetBits()),
		}
	}
	if c.CapacityBytes() > MaxCacheSize {
		return &ConfigError{
			Config: c,
			Reason: fmt.Sprintf("cache too big: %d bytes, max is %d bytes",
				c.CapacityBytes(), MaxCacheSize),
		}
	}
	return nil
}

// Way is one line slot of a set.
type Way struct {
	Valid bool
	Tag   uint32
	// Recency ranks valid ways from 0 (least recently used) up to
	// Associativity-1 (most recently used). Free ways hold 0.
	Recency int
}

// Set is the group of ways selected by one index.
type Set []Way

// Statistics holds cache performance statistics.
type Statistics struct {
	Accesses uint64 `json:"accesses"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
}

// MissRate returns misses per access, or 0 before the first access.
func (s Statistics) MissRate() float64 {
	if s.Accesses == 0 {
		return 0
	}
	return float64(s.Misses) / float64(s.Accesses)
}

// HitRate returns hits per access, or 0 before the first access.
func (s Statistics) HitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Accesses)
}

// Cache is a set-associative cache that tracks tags only. Hit and miss
// decisions are its only observable behavior.
type Cache struct {
	*sim.HookableBase

	config     Config
	offsetBits int
	sets       []Set
	stats      Statistics
}

// New creates a cache with all ways invalid. It fails with a *ConfigError
// when the configuration is invalid or too large.
func New(config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sets := make([]Set, config.NumSets())
	for i := range sets {
		sets[i] = make(Set, config.Associativity)
	}

	return &Cache{
		HookableBase: sim.NewHookableBase(),
		config:       config,
		offsetBits:   config.OffsetBits(),
		sets:         sets,
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Set returns a copy of the set at index.
func (c *Cache) Set(index uint32) Set {
	set := make(Set, len(c.sets[index]))
	copy(set, c.sets[index])

	return set
}

// Decompose splits an address into its set index and tag.
func (c *Cache) Decompose(addr uint32) (index, tag uint32) {
	low := c.offsetBits
	index = Bits(addr, low, low+c.config.IndexBits-1)
	tag = Bits(addr, low+c.config.IndexBits, 31)

	return index, tag
}

// Access looks up addr, updating statistics and LRU state. It returns true
// on a hit. A miss installs the block, evicting the least recently used way.
func (c *Cache) Access(addr uint32) bool {
	index, tag := c.Decompose(addr)
	c.stats.Accesses++

	way := c.lookup(index, tag)
	hit := way >= 0

	if hit {
		c.stats.Hits++
		c.promote(index, way)
	} else {
		c.stats.Misses++
		way = c.install(index, tag)
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Item: AccessEvent{
			Address: addr,
			Index:   index,
			Tag:     tag,
			Way:     way,
			Hit:     hit,
		},
	})

	return hit
}

// lookup returns the way holding tag in the set, or -1.
func (c *Cache) lookup(index, tag uint32) int {
	for i, w := range c.sets[index] {
		if w.Valid && w.Tag == tag {
			return i
		}
	}

	return -1
}

// promote makes way the most recently used. Ways that were more recent
// than it move down one rank; the rest keep their order.
func (c *Cache) promote(index uint32, way int) {
	set := c.sets[index]
	oldRank := set[way].Recency

	set[way].Recency = c.config.Associativity
	for i := range set {
		if set[i].Valid && set[i].Recency > oldRank {
			set[i].Recency--
		}
	}
}

// install places tag into the least recently used (or a free) way and makes
// it the most recently used. It returns the way used.
func (c *Cache) install(index, tag uint32) int {
	set := c.sets[index]

	victim := c.findVictim(set)
	if victim < 0 {
		panic(&InvariantViolation{Index: index, Tag: tag, Set: c.Set(index)})
	}

	set[victim] = Way{
		Valid:   true,
		Tag:     tag,
		Recency: c.config.Associativity,
	}

	for i := range set {
		if set[i].Valid {
			set[i].Recency--
		}
	}

	return victim
}

// findVictim returns the first free way or the way with recency 0.
func (c *Cache) findVictim(set Set) int {
	for i, w := range set {
		if !w.Valid || w.Recency == 0 {
			return i
		}
	}

	return -1
}

// Bits extracts the inclusive bit field [low, high] of addr.
func Bits(addr uint32, low, high int) uint32 {
	mask := (uint64(1) << uint(high+1)) - 1

	return uint32((uint64(addr) & mask) >> uint(low))
}
