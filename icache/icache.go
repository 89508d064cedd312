// Package icache provides a decoded-instruction cache built on Akita cache
// components.
//
// Entries are keyed by the physical address of the instruction word, so
// a mapping change never returns a stale decode. Guest stores and CP15
// instruction-cache maintenance invalidate entries.
package icache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/v7sim/insts"
)

const blockSize = 4

// Config holds cache geometry.
type Config struct {
	// Sets is the number of sets.
	Sets int
	// Ways is the associativity.
	Ways int
}

// DefaultConfig returns a 16K-entry, 4-way cache.
func DefaultConfig() Config {
	return Config{
		Sets: 4096,
		Ways: 4,
	}
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Lookups       uint64
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	Invalidations uint64
}

// Cache maps physical instruction addresses to decoded instructions.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Decoded entries - indexed by (setID * ways + wayID)
	entries []insts.Instruction

	stats Statistics
}

// New creates a new cache with the given configuration.
func New(config Config) *Cache {
	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			config.Sets,
			config.Ways,
			blockSize,
			akitacache.NewLRUVictimFinder(),
		),
		entries: make([]insts.Instruction, config.Sets*config.Ways),
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

func (c *Cache) index(block *akitacache.Block) int {
	return block.SetID*c.config.Ways + block.WayID
}

// Lookup returns the decoded instruction at paddr if it is cached.
func (c *Cache) Lookup(paddr uint32) (insts.Instruction, bool) {
	c.stats.Lookups++

	block := c.directory.Lookup(0, uint64(paddr&^3))
	if block == nil || !block.IsValid {
		c.stats.Misses++
		return insts.Instruction{}, false
	}

	c.stats.Hits++
	c.directory.Visit(block)
	return c.entries[c.index(block)], true
}

// Insert caches inst as the decode of the word at paddr.
func (c *Cache) Insert(paddr uint32, inst insts.Instruction) {
	addr := uint64(paddr &^ 3)

	block := c.directory.Lookup(0, addr)
	if block == nil || !block.IsValid {
		block = c.directory.FindVictim(addr)
		if block == nil {
			return
		}
		if block.IsValid {
			c.stats.Evictions++
		}
		block.Tag = addr
		block.IsValid = true
	}

	c.entries[c.index(block)] = inst
	c.directory.Visit(block)
}

// Invalidate drops every entry overlapping [paddr, paddr+size).
func (c *Cache) Invalidate(paddr uint32, size uint32) {
	first := paddr &^ 3
	last := (paddr + size - 1) &^ 3
	for addr := first; ; addr += blockSize {
		block := c.directory.Lookup(0, uint64(addr))
		if block != nil && block.IsValid {
			block.IsValid = false
			c.stats.Invalidations++
		}
		if addr == last {
			break
		}
	}
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.directory.Reset()
	c.stats.Invalidations++
}
