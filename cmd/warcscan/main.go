// Package main provides the entry point for the warcscan CLI.
//
// warcscan audits web archive (WARC) corpora for personal data. It samples
// records, masks e-mail addresses, phone numbers and IP addresses, identifies
// the language of each record and prints a report for manual review.
//
// Usage:
//
//	warcscan scan crawl-00001.warc.gz
//	warcscan scan --dir ./crawl --samples 500 --seed 42
//
// See --help for all available options.
package main

// main is the entry point for warcscan.
func main() {
	Execute()
}
