package sampler

import (
	"math/rand/v2"
)

// Reservoir keeps a uniform random sample of at most k items from a
// stream of unknown length (Algorithm R).
//
// After n offers, every offered item is retained with probability
// min(1, k/n). The sample depends only on the offered sequence and the
// random stream, so a seeded stream makes it reproducible.
type Reservoir[T any] struct {
	k     int
	seen  int
	items []T
	rng   *rand.Rand
}

// NewReservoir creates a reservoir of capacity k drawing from rng.
// A capacity of zero or less retains nothing but still counts offers.
func NewReservoir[T any](k int, rng *rand.Rand) *Reservoir[T] {
	if k < 0 {
		k = 0
	}
	return &Reservoir[T]{
		k:     k,
		items: make([]T, 0, min(k, 64)),
		rng:   rng,
	}
}

// Offer presents one item and reports whether it was retained.
func (r *Reservoir[T]) Offer(item T) bool {
	r.seen++
	if r.k == 0 {
		return false
	}
	if len(r.items) < r.k {
		r.items = append(r.items, item)
		return true
	}
	j := r.rng.IntN(r.seen)
	if j < r.k {
		r.items[j] = item
		return true
	}
	return false
}

// Items returns a copy of the retained items.
func (r *Reservoir[T]) Items() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Seen returns the number of items offered so far.
func (r *Reservoir[T]) Seen() int {
	return r.seen
}

// Cap returns the capacity of the reservoir.
func (r *Reservoir[T]) Cap() int {
	return r.k
}

// Len returns the number of retained items, min(Cap, Seen).
func (r *Reservoir[T]) Len() int {
	return len(r.items)
}

// Merge combines reservoirs filled from disjoint streams into one
// reservoir of capacity k over the concatenated stream.
//
// Each output slot is drawn from part i with probability n_i/N, where n_i
// is the number of part i's seen items not yet drawn and N is their sum,
// then a random remaining item of that part fills it. This is sampling
// without replacement from the union, so the result is a uniform sample as
// long as every part's capacity is at least k. Parts are not modified.
func Merge[T any](k int, rng *rand.Rand, parts ...*Reservoir[T]) *Reservoir[T] {
	out := NewReservoir[T](k, rng)

	remaining := make([]int, len(parts))
	pools := make([][]T, len(parts))
	total := 0
	for i, p := range parts {
		if p == nil {
			continue
		}
		remaining[i] = p.seen
		pools[i] = p.Items()
		total += p.seen
		out.seen += p.seen
	}

	for len(out.items) < out.k && total > 0 {
		pick := rng.IntN(total)
		i := 0
		for pick >= remaining[i] {
			pick -= remaining[i]
			i++
		}

		pool := pools[i]
		if len(pool) == 0 {
			// Part i retained fewer items than it saw and is used up.
			total -= remaining[i]
			remaining[i] = 0
			continue
		}

		j := rng.IntN(len(pool))
		out.items = append(out.items, pool[j])
		pool[j] = pool[len(pool)-1]
		pools[i] = pool[:len(pool)-1]
		remaining[i]--
		total--
	}
	return out
}

// newRand returns a generator for one independent stream of seed.
func newRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream)) //nolint:gosec // sampling, not security
}

// NewSeed draws a fresh seed for runs that do not configure one.
func NewSeed() uint64 {
	return rand.Uint64() //nolint:gosec // sampling, not security
}
