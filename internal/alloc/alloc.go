// Package alloc implements the chunk allocator: a first-fit-over-gaps
// search across every chunk in every page, falling back to growing
// the container when no gap is large enough.
package alloc

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/J-Cake/fsdb/internal/container"
	"github.com/J-Cake/fsdb/internal/fsformat"
)

// pageGap-alignment unit used when growing the container: growth is
// always rounded up to the next multiple of this, and always advances
// by at least one unit even when the requested size is already a
// multiple of it (see fsformat.Round).
const growthAlignment = 0x1000

// concurrentGapScanThreshold is the chunk count at or above which Allocate
// dispatches to FindGapsConcurrent instead of scanning serially; below
// it, the sort/scan itself is cheaper than sharding it. Matches
// FindGapsConcurrent's own shards*64 serial-fallback threshold at
// gapScanShards shards, so the switch is seamless either way.
const concurrentGapScanThreshold = 256

// gapScanShards is the shard count Allocate asks FindGapsConcurrent for
// once concurrentGapScanThreshold is crossed.
const gapScanShards = 4

// Allocator finds free space for new chunks and grows the container
// when none is free.
type Allocator struct {
	// GrowthLimiter, if set, throttles container-growth calls — useful
	// to keep a runaway writer from growing the backing file without
	// bound. Allocation from existing gaps is never throttled.
	GrowthLimiter *rate.Limiter
}

// New returns an Allocator with no growth limiter.
func New() *Allocator {
	return &Allocator{}
}

// Gap is a candidate free region.
type Gap struct {
	Offset uint64
	Length uint64
}

// FindGaps computes every free byte range between dataStart and
// containerLength, given every chunk currently allocated across every
// page. The two sentinel zero-length Arrays at dataStart and
// containerLength bound the scan so a gap at the very start or very
// end of the data region is found like any other.
func FindGaps(chunks []fsformat.Array, dataStart, containerLength uint64) []Gap {
	all := make([]fsformat.Array, 0, len(chunks)+2)
	all = append(all, fsformat.Array{Offset: dataStart, Length: 0})
	all = append(all, fsformat.Array{Offset: containerLength, Length: 0})
	all = append(all, chunks...)

	sort.Slice(all, func(i, j int) bool { return all[i].Offset < all[j].Offset })

	var gaps []Gap
	for i := 0; i+1 < len(all); i++ {
		end := all[i].End()
		next := all[i+1].Offset
		if next > end {
			gaps = append(gaps, Gap{Offset: end, Length: next - end})
		}
	}
	return gaps
}

// FindGapsConcurrent partitions chunks into shards and merges their
// per-shard sorted output, bounded by an errgroup — useful once the
// inode table holds enough pages that a single-threaded sort/scan is
// the dominant cost of an allocation.
func FindGapsConcurrent(ctx context.Context, chunks []fsformat.Array, dataStart, containerLength uint64, shards int) ([]Gap, error) {
	if shards < 2 || len(chunks) < shards*64 {
		return FindGaps(chunks, dataStart, containerLength), nil
	}

	shardSize := (len(chunks) + shards - 1) / shards
	partials := make([][]fsformat.Array, shards)

	g, _ := errgroup.WithContext(ctx)
	for s := 0; s < shards; s++ {
		s := s
		start := s * shardSize
		end := min(start+shardSize, len(chunks))
		if start >= end {
			continue
		}
		g.Go(func() error {
			part := append([]fsformat.Array(nil), chunks[start:end]...)
			sort.Slice(part, func(i, j int) bool { return part[i].Offset < part[j].Offset })
			partials[s] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []fsformat.Array
	for _, p := range partials {
		merged = append(merged, p...)
	}
	return FindGaps(merged, dataStart, containerLength), nil
}

// Allocate finds the first gap at least minSpace bytes long (ascending
// by length, so the smallest sufficient gap wins, minimizing
// fragmentation waste) and returns its Array of exactly minSpace
// bytes. If no gap is large enough, it grows c and returns a chunk at
// the end of the old container.
func (a *Allocator) Allocate(ctx context.Context, c container.Container, chunks []fsformat.Array, dataStart uint64, minSpace uint64) (fsformat.Array, error) {
	containerLength, err := c.Len()
	if err != nil {
		return fsformat.Array{}, err
	}

	var gaps []Gap
	if len(chunks) >= concurrentGapScanThreshold {
		gaps, err = FindGapsConcurrent(ctx, chunks, dataStart, uint64(containerLength), gapScanShards)
		if err != nil {
			return fsformat.Array{}, err
		}
	} else {
		gaps = FindGaps(chunks, dataStart, uint64(containerLength))
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].Length < gaps[j].Length })

	for _, g := range gaps {
		if g.Length >= minSpace {
			return fsformat.Array{Offset: g.Offset, Length: minSpace}, nil
		}
	}

	return a.grow(ctx, c, uint64(containerLength), minSpace)
}

func (a *Allocator) grow(ctx context.Context, c container.Container, oldLen, minSpace uint64) (fsformat.Array, error) {
	if a.GrowthLimiter != nil {
		if err := a.GrowthLimiter.Wait(ctx); err != nil {
			return fsformat.Array{}, err
		}
	}

	growBy := minSpace + (growthAlignment - minSpace%growthAlignment)
	newLen := oldLen + growBy
	if err := c.Grow(int64(newLen)); err != nil {
		return fsformat.Array{}, err
	}
	return fsformat.Array{Offset: oldLen, Length: minSpace}, nil
}
