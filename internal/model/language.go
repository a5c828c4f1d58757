package model

import (
	"sort"
)

// UnknownLanguage is the language code assigned to text that is empty,
// too short to classify, or that the classifier failed on.
const UnknownLanguage = "unknown"

// EnglishLanguage is the language code counted by the English percentage.
const EnglishLanguage = "en"

// LanguageSample is the classification result for one record.
type LanguageSample struct {
	OriginURL    string  `json:"origin_url"`
	LanguageCode string  `json:"language_code"`
	Confidence   float64 `json:"confidence"`
	Snippet      string  `json:"snippet"`
}

// IsUnknown reports whether the sample carries no usable classification.
func (s LanguageSample) IsUnknown() bool {
	return s.LanguageCode == UnknownLanguage
}

// LanguageDistribution counts classified records per language code and
// keeps the running confidence sum needed for the mean.
//
// The sum of Counts always equals Samples.
type LanguageDistribution struct {
	Counts        map[string]int `json:"counts"`
	ConfidenceSum float64        `json:"confidence_sum"`
	Samples       int            `json:"samples"`
}

// NewLanguageDistribution returns an empty distribution.
func NewLanguageDistribution() LanguageDistribution {
	return LanguageDistribution{Counts: make(map[string]int)}
}

// Add records one classification.
func (d *LanguageDistribution) Add(code string, confidence float64) {
	if d.Counts == nil {
		d.Counts = make(map[string]int)
	}
	d.Counts[code]++
	d.ConfidenceSum += confidence
	d.Samples++
}

// Merge adds other's counts into d.
func (d *LanguageDistribution) Merge(other LanguageDistribution) {
	if d.Counts == nil {
		d.Counts = make(map[string]int)
	}
	for code, n := range other.Counts {
		d.Counts[code] += n
	}
	d.ConfidenceSum += other.ConfidenceSum
	d.Samples += other.Samples
}

// Count returns the number of samples classified as code.
func (d LanguageDistribution) Count(code string) int {
	return d.Counts[code]
}

// Determinate returns the number of samples with a known language.
func (d LanguageDistribution) Determinate() int {
	return d.Samples - d.Counts[UnknownLanguage]
}

// Clone returns a deep copy of the distribution.
func (d LanguageDistribution) Clone() LanguageDistribution {
	c := NewLanguageDistribution()
	c.Merge(d)
	return c
}

// LanguageCount is one row of a distribution ordered for display.
type LanguageCount struct {
	Code    string  `json:"code"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Sorted returns the distribution rows ordered by descending count, then
// by code. Percent is relative to all samples, unknown included.
func (d LanguageDistribution) Sorted() []LanguageCount {
	rows := make([]LanguageCount, 0, len(d.Counts))
	for code, n := range d.Counts {
		row := LanguageCount{Code: code, Count: n}
		if d.Samples > 0 {
			row.Percent = float64(n) / float64(d.Samples) * 100
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Code < rows[j].Code
	})
	return rows
}
