package pii

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/warcscan/internal/model"
)

// DefaultContextWidth is the number of characters captured on each side
// of a match for review.
const DefaultContextWidth = 50

// Default patterns. They are heuristics: version strings look like IP
// addresses and handle-like tokens look like e-mail addresses. False
// positives and false negatives are expected.
const (
	DefaultEmailPattern = `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`
	DefaultPhonePattern = `(?:\+?1[\s.\-]?)?(?:\(\d{3}\)\s?|\b\d{3}[\s.\-]?)\d{3}[\s.\-]?\d{4}\b`
	DefaultIPPattern    = `\b(?:(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\.){3}(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\b`
)

// DefaultPatterns returns the default expression of every category.
func DefaultPatterns() map[model.Category]string {
	return map[model.Category]string{
		model.CategoryEmail: DefaultEmailPattern,
		model.CategoryPhone: DefaultPhonePattern,
		model.CategoryIP:    DefaultIPPattern,
	}
}

// claimedByte replaces claimed spans in the working copy that later
// categories scan. No default pattern matches it, and it is neither a
// word character nor whitespace, so it also breaks \b and \s runs.
const claimedByte = 0x00

// classifier is one entry in the ordered priority list.
type classifier struct {
	category model.Category
	re       *regexp.Regexp
}

// Detector finds e-mail addresses, phone numbers and IPv4 addresses in
// text and masks them with category sentinels.
//
// Categories are applied in fixed priority order (EMAIL, PHONE, IP). A
// span claimed by one category is blanked out of the text that later
// categories scan, and any later match intersecting a claimed span is
// dropped, so matches never overlap and the earliest category always wins
// a contested span, whatever the configured patterns.
//
// A Detector holds no mutable state and is safe for concurrent use.
type Detector struct {
	classifiers  []classifier
	contextWidth int
}

// Option configures a Detector.
type Option func(*detectorConfig) error

type detectorConfig struct {
	patterns     map[model.Category]string
	contextWidth int
}

// WithPattern overrides the regular expression of one category.
// An empty expression keeps the default.
func WithPattern(category model.Category, expr string) Option {
	return func(c *detectorConfig) error {
		if _, ok := c.patterns[category]; !ok {
			return fmt.Errorf("unknown PII category %d", category)
		}
		if expr != "" {
			c.patterns[category] = expr
		}
		return nil
	}
}

// WithContextWidth sets how many characters of context are captured on
// each side of a match. Zero disables context capture.
func WithContextWidth(width int) Option {
	return func(c *detectorConfig) error {
		if width < 0 {
			return fmt.Errorf("context width must be non-negative, got %d", width)
		}
		c.contextWidth = width
		return nil
	}
}

// New creates a Detector with the default patterns and context width,
// modified by opts.
func New(opts ...Option) (*Detector, error) {
	cfg := &detectorConfig{
		patterns:     DefaultPatterns(),
		contextWidth: DefaultContextWidth,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	d := &Detector{
		classifiers:  make([]classifier, 0, len(model.Categories)),
		contextWidth: cfg.contextWidth,
	}
	for _, category := range model.Categories {
		re, err := regexp.Compile(cfg.patterns[category])
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern: %w", category, err)
		}
		d.classifiers = append(d.classifiers, classifier{category: category, re: re})
	}
	return d, nil
}

// MustNew is like New but panics on error. Intended for defaults and tests.
func MustNew(opts ...Option) *Detector {
	d, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// ContextWidth returns the configured context width.
func (d *Detector) ContextWidth() int {
	return d.contextWidth
}

// Mask detects PII in text and returns the masked text together with one
// PIIMatch per replaced span, ordered by position. The result depends only
// on the input text and the configured patterns.
func (d *Detector) Mask(originURL, text string) (string, []model.PIIMatch) {
	if text == "" {
		return "", nil
	}

	// work is the text later categories scan; claimed spans are blanked
	// in place so byte offsets stay aligned with text.
	var work []byte
	var matches []model.PIIMatch
	var claimed []span

	for _, c := range d.classifiers {
		var locs [][]int
		if work == nil {
			locs = c.re.FindAllStringIndex(text, -1)
		} else {
			locs = c.re.FindAllIndex(work, -1)
		}

		for _, loc := range locs {
			start, end := loc[0], loc[1]
			if start == end {
				continue
			}
			// Overridden patterns may match blanked bytes; a span that
			// touches an earlier claim belongs to the earlier category.
			if intersectsAny(claimed, start, end) {
				continue
			}
			claimed = append(claimed, span{start: start, end: end})
			if work == nil {
				work = []byte(text)
			}
			for i := start; i < end; i++ {
				work[i] = claimedByte
			}
			matches = append(matches, model.PIIMatch{
				Category:      c.category,
				MatchedText:   text[start:end],
				ContextBefore: lastRunes(text[:start], d.contextWidth),
				ContextAfter:  firstRunes(text[end:], d.contextWidth),
				OriginURL:     originURL,
				Start:         start,
				End:           end,
			})
		}
	}

	if len(matches) == 0 {
		return text, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Start < matches[j].Start
	})

	var sb strings.Builder
	sb.Grow(len(text))
	prev := 0
	for _, m := range matches {
		sb.WriteString(text[prev:m.Start])
		sb.WriteString(m.Category.Sentinel())
		prev = m.End
	}
	sb.WriteString(text[prev:])

	return sb.String(), matches
}

// MaskString returns s with all detected PII replaced by sentinels.
func (d *Detector) MaskString(s string) string {
	masked, _ := d.Mask("", s)
	return masked
}

// Contains reports whether s contains any detectable PII.
func (d *Detector) Contains(s string) bool {
	for _, c := range d.classifiers {
		if c.re.MatchString(s) {
			return true
		}
	}
	return false
}

// Match reports whether the pattern of category matches anywhere in s.
func (d *Detector) Match(category model.Category, s string) bool {
	for _, c := range d.classifiers {
		if c.category == category {
			return c.re.MatchString(s)
		}
	}
	return false
}

// span is a claimed [start, end) byte interval of the text.
type span struct {
	start, end int
}

func intersectsAny(claimed []span, start, end int) bool {
	for _, s := range claimed {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}

// lastRunes returns at most n trailing runes of s.
func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := len(s)
	for count := 0; i > 0 && count < n; count++ {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

// firstRunes returns at most n leading runes of s.
func firstRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for count := 0; i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
