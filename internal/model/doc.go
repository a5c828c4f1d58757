// Package model defines the data structures shared by every stage of a
// corpus audit.
//
// This package contains the following main types:
//   - Record: One captured page yielded by a RecordSource
//   - NormalizedText: The analyzable text derived from a Record
//   - PIIMatch and PIICounters: Detector output and its exhaustive counts
//   - LanguageSample and LanguageDistribution: Classifier output and counts
//   - Report: The structured result of one run
//
// Models live in their own package so that the warc, pii, sampler,
// aggregate and report packages can share them without import cycles.
package model
