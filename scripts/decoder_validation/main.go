// Validate decoder allocations - measures decode cost with and without the
// decoded-instruction cache.
package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sarchlab/v7sim/icache"
	"github.com/sarchlab/v7sim/insts"
)

type sample struct {
	word uint32
	addr uint32
}

var program = []sample{
	{0xE2810001, 0x1000}, // ADD r0, r1, #1
	{0xE0910002, 0x1004}, // ADDS r0, r1, r2
	{0xE5910004, 0x1008}, // LDR r0, [r1, #4]
	{0xE8BD8010, 0x100C}, // LDMIA sp!, {r4, pc}
	{0xE0000291, 0x1010}, // MUL r0, r1, r2
	{0x1AFFFFFA, 0x1014}, // BNE 0x1004
}

type result struct {
	elapsed     time.Duration
	allocations uint64
	bytes       uint64
}

func measure(iterations int, body func()) result {
	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		body()
	}
	elapsed := time.Since(start)

	runtime.ReadMemStats(&m2)
	return result{
		elapsed:     elapsed,
		allocations: m2.Mallocs - m1.Mallocs,
		bytes:       m2.TotalAlloc - m1.TotalAlloc,
	}
}

func report(name string, r result, decodes int) {
	fmt.Printf("%s:\n", name)
	fmt.Printf("  Time elapsed: %v\n", r.elapsed)
	fmt.Printf("  Decodes per second: %.0f\n", float64(decodes)/r.elapsed.Seconds())
	fmt.Printf("  Allocations per decode: %.3f\n", float64(r.allocations)/float64(decodes))
	fmt.Printf("  Bytes per decode: %.1f\n", float64(r.bytes)/float64(decodes))
}

func main() {
	decoder := insts.NewDecoder()
	cache := icache.New(icache.DefaultConfig())

	// Warm up, and fill the cache
	for _, s := range program {
		inst, err := decoder.Decode(s.word, s.addr)
		if err != nil {
			fmt.Printf("decode of 0x%08X failed: %v\n", s.word, err)
			return
		}
		cache.Insert(s.addr, inst)
	}

	iterations := 100000
	decodes := iterations * len(program)

	raw := measure(iterations, func() {
		for _, s := range program {
			_, _ = decoder.Decode(s.word, s.addr)
		}
	})

	cached := measure(iterations, func() {
		for _, s := range program {
			_, _ = cache.Lookup(s.addr)
		}
	})

	fmt.Printf("Decoder Validation Results:\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Total decode operations: %d\n", decodes)
	report("Decoder", raw, decodes)
	report("Decode cache", cached, decodes)

	stats := cache.Stats()
	fmt.Printf("Cache hits: %d of %d lookups\n", stats.Hits, stats.Lookups)

	rate := float64(raw.allocations) / float64(decodes)
	switch {
	case raw.allocations == 0:
		fmt.Printf("\nSUCCESS: Zero allocations detected.\n")
	case rate < 0.1:
		fmt.Printf("\nGOOD: Low allocation rate (< 0.1 per decode)\n")
	default:
		fmt.Printf("\nWARNING: High allocation rate detected\n")
	}
}
