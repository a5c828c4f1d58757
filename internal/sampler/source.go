package sampler

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"sort"

	"github.com/nao1215/warcscan/internal/model"
)

// DefaultSampleCap is the default number of records analyzed per run.
const DefaultSampleCap = 100

// DefaultPoolFactor is how many times the cap is read before the records
// analyzed are drawn at random.
const DefaultPoolFactor = 5

// Source caps the number of records a run analyzes.
//
// With a pool factor of 1 it yields the first cap records of the
// underlying source. With a larger factor it reads up to cap*factor records
// and yields a uniform random subset of cap of them, without replacement
// and in their original order. In both modes it stops pulling from the
// underlying source once enough records were read.
type Source struct {
	src        model.RecordSource
	cap        int
	poolFactor int
	rng        *rand.Rand

	pulled  int
	yielded int
	pool    []*model.Record
	pooled  bool
}

// NewSource wraps src. A cap of zero or less disables capping and a pool
// factor below 1 is treated as 1.
func NewSource(src model.RecordSource, sampleCap, poolFactor int, seed uint64) *Source {
	if poolFactor < 1 {
		poolFactor = 1
	}
	return &Source{
		src:        src,
		cap:        sampleCap,
		poolFactor: poolFactor,
		rng:        newRand(seed, streamRecords),
	}
}

// Next implements model.RecordSource.
func (s *Source) Next(ctx context.Context) (*model.Record, error) {
	if s.cap <= 0 {
		rec, err := s.src.Next(ctx)
		if err == nil {
			s.pulled++
			s.yielded++
		}
		return rec, err
	}

	if s.poolFactor == 1 {
		if s.yielded >= s.cap {
			return nil, io.EOF
		}
		rec, err := s.src.Next(ctx)
		if err != nil {
			return nil, err
		}
		s.pulled++
		s.yielded++
		return rec, nil
	}

	if !s.pooled {
		if err := s.fillPool(ctx); err != nil {
			return nil, err
		}
	}
	if len(s.pool) == 0 {
		return nil, io.EOF
	}
	rec := s.pool[0]
	s.pool[0] = nil
	s.pool = s.pool[1:]
	s.yielded++
	return rec, nil
}

// indexed remembers the stream position of a pooled record.
type indexed struct {
	pos int
	rec *model.Record
}

// fillPool reads the pool and keeps a uniform cap-subset of it.
func (s *Source) fillPool(ctx context.Context) error {
	limit := s.cap * s.poolFactor
	r := NewReservoir[indexed](s.cap, s.rng)

	for s.pulled < limit {
		rec, err := s.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		r.Offer(indexed{pos: s.pulled, rec: rec})
		s.pulled++
	}

	kept := r.items
	sort.Slice(kept, func(i, j int) bool { return kept[i].pos < kept[j].pos })
	s.pool = make([]*model.Record, len(kept))
	for i, k := range kept {
		s.pool[i] = k.rec
	}
	s.pooled = true
	return nil
}

// Pulled returns how many records were read from the underlying source.
func (s *Source) Pulled() int {
	return s.pulled
}

// Yielded returns how many records were handed out.
func (s *Source) Yielded() int {
	return s.yielded
}
