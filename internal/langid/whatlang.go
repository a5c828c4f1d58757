package langid

import (
	"errors"

	"github.com/abadojack/whatlanggo"
)

// ErrUndetectable is returned when whatlanggo finds no language.
var ErrUndetectable = errors.New("language not detectable")

// WhatlangClassifier identifies languages with whatlanggo's trigram
// models. It needs no model files and is safe for concurrent use.
type WhatlangClassifier struct {
	options whatlanggo.Options
}

// NewWhatlangClassifier creates a classifier considering every language
// whatlanggo knows.
func NewWhatlangClassifier() *WhatlangClassifier {
	return &WhatlangClassifier{}
}

// Classify implements Classifier.
func (c *WhatlangClassifier) Classify(text string) (Result, error) {
	info := whatlanggo.DetectWithOptions(text, c.options)
	if info.Script == nil {
		return Result{}, ErrUndetectable
	}
	// ISO 639-3 codes are reduced to ISO 639-1 by Canonicalize.
	code := info.Lang.Iso6393()
	if code == "" {
		return Result{}, ErrUndetectable
	}
	return Result{Code: code, Confidence: info.Confidence}, nil
}
