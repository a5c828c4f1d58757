// Package langid identifies the language of normalized text.
//
// Classifier is the seam to a concrete identification model. The
// WhatlangClassifier implementation is backed by
// github.com/abadojack/whatlanggo. Adapter wraps any Classifier with the
// guarantees the pipeline relies on: it never fails, short or empty text
// is "unknown" with confidence 0, confidences lie in [0, 1], and codes are
// canonical ISO 639 base languages.
package langid
