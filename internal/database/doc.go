// Package database provides the SQLite-based run history of warcscan.
//
// Every completed scan stores one row of aggregate statistics: the seed,
// the archives read, record counts, per-category PII counters, the language
// distribution and the derived statistics. Matched text, context windows,
// snippets and record URLs are never stored, so the history can be kept and
// shared without leaking the PII it counts.
//
// SQLite is used via modernc.org/sqlite, which is CGO-free, so the history
// is a single file in the XDG data directory.
package database
