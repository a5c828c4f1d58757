package aggregate

import (
	"github.com/samber/lo"

	"github.com/nao1215/warcscan/internal/model"
)

// Aggregator accumulates the exhaustive counts of a run: records seen and
// skipped, PII matches per category and the language distribution.
//
// Unlike the sampler, nothing here is sampled. Every observation counts.
// An Aggregator is not safe for concurrent use; shards each own one and
// are combined with Merge.
type Aggregator struct {
	recordsSeen int
	notText     int
	emptyText   int
	duplicates  int
	failed      int

	counters  model.PIICounters
	languages model.LanguageDistribution

	digests map[[model.DigestSize]byte]struct{}
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		languages: model.NewLanguageDistribution(),
		digests:   make(map[[model.DigestSize]byte]struct{}),
	}
}

// ObserveRecord counts one record pulled from the source and reports
// whether its payload duplicates an earlier record.
func (a *Aggregator) ObserveRecord(rec *model.Record) bool {
	a.recordsSeen++
	if _, ok := a.digests[rec.Digest]; ok {
		a.duplicates++
		return true
	}
	a.digests[rec.Digest] = struct{}{}
	return false
}

// ObserveNotText counts a record skipped because it is not text.
func (a *Aggregator) ObserveNotText() {
	a.notText++
}

// ObserveFailed counts a record on which a pipeline step failed.
func (a *Aggregator) ObserveFailed() {
	a.failed++
}

// ObserveMatches adds every match to the per-category counters.
func (a *Aggregator) ObserveMatches(matches []model.PIIMatch) {
	perCategory := lo.CountValuesBy(matches, func(m model.PIIMatch) model.Category {
		return m.Category
	})
	for c, n := range perCategory {
		a.counters.Add(c, n)
	}
}

// ObserveLanguage adds one classification to the distribution. empty marks
// a record whose normalized text was empty; it is still classified (as
// unknown) so that the distribution covers every text record.
func (a *Aggregator) ObserveLanguage(sample model.LanguageSample, empty bool) {
	if empty {
		a.emptyText++
	}
	a.languages.Add(sample.LanguageCode, sample.Confidence)
}

// Counters returns the PII match counts.
func (a *Aggregator) Counters() model.PIICounters {
	return a.counters
}

// Distribution returns a copy of the language distribution.
func (a *Aggregator) Distribution() model.LanguageDistribution {
	return a.languages.Clone()
}

// RecordsSeen returns the number of records observed.
func (a *Aggregator) RecordsSeen() int {
	return a.recordsSeen
}

// Stats derives the English percentage and mean confidence.
//
// The English percentage is taken over determinate samples only, since
// unknown records carry no language. The mean confidence is taken over every
// classified record, unknown ones contributing 0. Empty denominators yield 0.
func (a *Aggregator) Stats() model.Stats {
	return ComputeStats(a.languages)
}

// ComputeStats derives Stats from a distribution.
func ComputeStats(d model.LanguageDistribution) model.Stats {
	determinate := d.Determinate()
	stats := model.Stats{DeterminateSamples: determinate}
	if d.Samples > 0 {
		stats.MeanConfidence = d.ConfidenceSum / float64(d.Samples)
	}
	if determinate > 0 {
		stats.EnglishPercent = 100 * float64(d.Count(model.EnglishLanguage)) / float64(determinate)
	}
	return stats
}

// Merge adds other's counts into a. Payloads seen by both count as
// duplicates.
func (a *Aggregator) Merge(other *Aggregator) {
	a.recordsSeen += other.recordsSeen
	a.notText += other.notText
	a.emptyText += other.emptyText
	a.failed += other.failed
	a.duplicates += other.duplicates
	for digest := range other.digests {
		if _, ok := a.digests[digest]; ok {
			a.duplicates++
			continue
		}
		a.digests[digest] = struct{}{}
	}
	a.counters.Merge(other.counters)
	a.languages.Merge(other.languages)
}

// Fill copies the accumulated counts and derived statistics into r.
func (a *Aggregator) Fill(r *model.Report) {
	r.RecordsSeen = a.recordsSeen
	r.NotText = a.notText
	r.EmptyText = a.emptyText
	r.DuplicatePayloads = a.duplicates
	r.Failed = a.failed
	r.Counters = a.counters
	r.Languages = a.languages.Clone()
	r.Stats = a.Stats()
}
