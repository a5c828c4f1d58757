// Package aggregate accumulates the exhaustive statistics of an audit run.
//
// Counts are never sampled: every PII match increments its category
// counter and every classified record increments its language. Derived
// figures (English percentage, mean confidence) are computed over records
// with a determinate language, so "unknown" classifications neither dilute
// nor inflate them.
package aggregate
