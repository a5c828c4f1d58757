// Package pii detects and masks personally identifiable information in
// normalized page text.
//
// Three categories are supported: e-mail addresses, phone numbers and IPv4
// addresses. Each category is a regular expression; the Detector applies
// them as an explicit priority list (EMAIL, then PHONE, then IP) over a
// working copy of the text in which spans claimed by earlier categories
// are blanked out. The non-overlap invariant therefore holds by
// construction and needs no post-hoc conflict resolution.
//
// Every replaced span becomes a category sentinel such as
// "|||EMAIL_ADDRESS|||" and produces one model.PIIMatch carrying the
// matched text and a context window cut from the original text.
//
// Detection is heuristic. Dotted version numbers are reported as IP
// addresses, handle-like strings as e-mail addresses, and formats outside
// the patterns are missed. The patterns are configuration; see
// DefaultPatterns.
//
// # Usage
//
//	d, err := pii.New(pii.WithContextWidth(50))
//	masked, matches := d.Mask(record.URL, text)
//
// The Detector never touches counters; aggregation is the caller's job.
package pii
