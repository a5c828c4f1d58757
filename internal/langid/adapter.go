package langid

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"

	"github.com/nao1215/warcscan/internal/model"
)

const (
	// DefaultMinChars is the shortest text, in characters, that is
	// classified at all.
	DefaultMinChars = 10

	// DefaultSnippetLength is the number of characters kept in a sample
	// snippet.
	DefaultSnippetLength = 200
)

// Result is the raw output of a Classifier.
type Result struct {
	// Code is a language code in any BCP 47 or ISO 639 form.
	Code string
	// Confidence is the classifier's confidence, nominally in [0, 1].
	Confidence float64
}

// Classifier identifies the language of a text. Implementations may fail;
// the Adapter absorbs failures.
type Classifier interface {
	Classify(text string) (Result, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(text string) (Result, error)

// Classify calls f(text).
func (f ClassifierFunc) Classify(text string) (Result, error) {
	return f(text)
}

// Adapter wraps a Classifier so that classification never fails.
//
// Text is whitespace-collapsed before it is classified. Text shorter than
// the minimum length, classifier errors and classifier panics all yield
// ("unknown", 0). Confidences are clamped into [0, 1] and codes are
// reduced to their ISO 639 base language ("en-US" and "eng" become "en").
type Adapter struct {
	classifier    Classifier
	minChars      int
	snippetLength int
	logger        *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithMinChars sets the minimum text length in characters.
func WithMinChars(n int) Option {
	return func(a *Adapter) {
		if n >= 0 {
			a.minChars = n
		}
	}
}

// WithSnippetLength sets the length of the text kept with each sample.
func WithSnippetLength(n int) Option {
	return func(a *Adapter) {
		if n >= 0 {
			a.snippetLength = n
		}
	}
}

// WithLogger sets the logger used for classifier failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// NewAdapter creates an Adapter around classifier.
func NewAdapter(classifier Classifier, opts ...Option) *Adapter {
	a := &Adapter{
		classifier:    classifier,
		minChars:      DefaultMinChars,
		snippetLength: DefaultSnippetLength,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Classify returns the language code and confidence of text.
func (a *Adapter) Classify(text string) (code string, confidence float64) {
	collapsed := CollapseWhitespace(text)
	if a.classifier == nil || utf8.RuneCountInString(collapsed) < a.minChars {
		return model.UnknownLanguage, 0
	}

	result, err := a.safeClassify(collapsed)
	if err != nil {
		a.logger.Warn("language classification failed", "error", err)
		return model.UnknownLanguage, 0
	}

	code = Canonicalize(result.Code)
	if code == model.UnknownLanguage {
		return model.UnknownLanguage, 0
	}
	return code, clamp(result.Confidence)
}

// Sample classifies text and builds the LanguageSample of one record. The
// snippet is cut from display, which is normally the masked form of text.
func (a *Adapter) Sample(originURL, text, display string) model.LanguageSample {
	code, confidence := a.Classify(text)
	return model.LanguageSample{
		OriginURL:    originURL,
		LanguageCode: code,
		Confidence:   confidence,
		Snippet:      Snippet(display, a.snippetLength),
	}
}

func (a *Adapter) safeClassify(text string) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panicked: %v", r)
		}
	}()
	return a.classifier.Classify(text)
}

// Canonicalize reduces a language code to its ISO 639 base language.
// Empty, undetermined or unparseable codes become "unknown".
func Canonicalize(code string) string {
	code = strings.TrimSpace(strings.TrimPrefix(code, "__label__"))
	if code == "" || strings.EqualFold(code, model.UnknownLanguage) {
		return model.UnknownLanguage
	}
	tag, err := language.Parse(code)
	if err != nil {
		return model.UnknownLanguage
	}
	base, _ := tag.Base()
	if s := base.String(); s != "und" {
		return s
	}
	return model.UnknownLanguage
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// CollapseWhitespace replaces every whitespace run, newlines included,
// with a single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Snippet returns the first n characters of text with whitespace collapsed,
// followed by "..." when text was cut.
func Snippet(text string, n int) string {
	collapsed := CollapseWhitespace(text)
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(collapsed) <= n {
		return collapsed
	}
	i := 0
	for count := 0; count < n; count++ {
		_, size := utf8.DecodeRuneInString(collapsed[i:])
		i += size
	}
	return collapsed[:i] + "..."
}
