package sampler

import (
	"github.com/nao1215/warcscan/internal/model"
)

// Stream identifiers. Each consumer of randomness draws from its own PCG
// stream of the run seed so that adding one consumer does not shift the
// choices of another.
const (
	streamRecords   uint64 = 0x7265636f7264 // "record"
	streamLanguages uint64 = 0x6c616e67     // "lang"
	streamMerge     uint64 = 0x6d65726765   // "merge"
	streamCategory  uint64 = 0x636174       // "cat", offset by category
)

// DefaultExamplesPerCategory is the number of matches retained per PII
// category for review.
const DefaultExamplesPerCategory = 20

// DefaultLanguageExamples is the number of classification samples
// retained for review.
const DefaultLanguageExamples = 20

// Set holds one reservoir of matches per PII category plus one reservoir
// of language samples.
//
// Every detected match is offered, so the retained examples are a uniform
// sample of all matches of their category, independent of how many matches
// any single record contributed.
type Set struct {
	seed      uint64
	examples  map[model.Category]*Reservoir[model.PIIMatch]
	languages *Reservoir[model.LanguageSample]
}

// NewSet creates a Set whose reservoirs draw from independent streams of
// seed.
func NewSet(seed uint64, examplesPerCategory, languageExamples int) *Set {
	s := &Set{
		seed:      seed,
		examples:  make(map[model.Category]*Reservoir[model.PIIMatch], len(model.Categories)),
		languages: NewReservoir[model.LanguageSample](languageExamples, newRand(seed, streamLanguages)),
	}
	for _, c := range model.Categories {
		s.examples[c] = NewReservoir[model.PIIMatch](examplesPerCategory, newRand(seed, streamCategory+uint64(c)))
	}
	return s
}

// OfferMatches offers every match to the reservoir of its category.
func (s *Set) OfferMatches(matches []model.PIIMatch) {
	for _, m := range matches {
		if r, ok := s.examples[m.Category]; ok {
			r.Offer(m)
		}
	}
}

// OfferLanguage offers one classification sample.
func (s *Set) OfferLanguage(sample model.LanguageSample) {
	s.languages.Offer(sample)
}

// Examples returns the retained matches of every category.
func (s *Set) Examples() map[model.Category][]model.PIIMatch {
	out := make(map[model.Category][]model.PIIMatch, len(s.examples))
	for c, r := range s.examples {
		out[c] = r.Items()
	}
	return out
}

// CategoryExamples returns the retained matches of one category.
func (s *Set) CategoryExamples(c model.Category) []model.PIIMatch {
	if r, ok := s.examples[c]; ok {
		return r.Items()
	}
	return nil
}

// LanguageSamples returns the retained classification samples.
func (s *Set) LanguageSamples() []model.LanguageSample {
	return s.languages.Items()
}

// MatchesSeen returns how many matches of category c were offered.
func (s *Set) MatchesSeen(c model.Category) int {
	if r, ok := s.examples[c]; ok {
		return r.Seen()
	}
	return 0
}

// Seed returns the seed the Set was created with.
func (s *Set) Seed() uint64 {
	return s.seed
}

// MergeSets combines Sets filled from disjoint record streams. The
// result keeps the capacities of the first part and draws its merge
// choices from seed. Parts are merged in the order given.
func MergeSets(seed uint64, parts ...*Set) *Set {
	if len(parts) == 0 {
		return NewSet(seed, 0, 0)
	}

	rng := newRand(seed, streamMerge)
	out := &Set{
		seed:     seed,
		examples: make(map[model.Category]*Reservoir[model.PIIMatch], len(model.Categories)),
	}
	for _, c := range model.Categories {
		reservoirs := make([]*Reservoir[model.PIIMatch], 0, len(parts))
		for _, p := range parts {
			reservoirs = append(reservoirs, p.examples[c])
		}
		out.examples[c] = Merge(parts[0].examples[c].Cap(), rng, reservoirs...)
		out.examples[c].rng = newRand(seed, streamCategory+uint64(c))
	}

	languages := make([]*Reservoir[model.LanguageSample], 0, len(parts))
	for _, p := range parts {
		languages = append(languages, p.languages)
	}
	out.languages = Merge(parts[0].languages.Cap(), rng, languages...)
	out.languages.rng = newRand(seed, streamLanguages)
	return out
}
