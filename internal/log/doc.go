// Package log provides secure logging built on top of the standard slog
// package.
//
// The SecureHandler sanitizes log output before it reaches the wrapped
// handler:
//   - attributes whose key names a secret (cookie, authorization, token,
//     password) are replaced with ***REDACTED***
//   - values that look like credentials (JWTs, bearer tokens, AWS keys,
//     private key blocks) are replaced the same way
//   - with WithMasker, the message and all remaining string and error values
//     are passed through a PII masker
//
// Archived pages are full of personal data, and record URLs or excerpts
// routinely end up in warnings. Wiring the PII detector in as the masker
// keeps that data out of logs that may be shared or stored:
//
//	detector := pii.MustNew()
//	logger := log.NewSecureLogger(os.Stderr, verbose,
//	    log.WithMasker(detector.MaskString))
//	slog.SetDefault(logger)
package log
