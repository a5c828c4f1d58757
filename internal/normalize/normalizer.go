package normalize

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/warcscan/internal/model"
)

// DefaultMaxTextSize caps the size in bytes of a normalized text.
const DefaultMaxTextSize = 1024 * 1024

var (
	// ErrNotText is returned for payloads whose content is not textual.
	// The caller skips such records.
	ErrNotText = errors.New("payload is not text")

	// ErrUndecodable is returned when a textual payload cannot be turned
	// into text at all.
	ErrUndecodable = errors.New("payload cannot be decoded")
)

// Normalizer turns raw record payloads into analyzable text.
//
// Decoding is tolerant: the character set is taken from the declared
// content type, a byte order mark or an HTML <meta> declaration, and bytes
// that are invalid in that encoding become U+FFFD instead of failing the
// record. HTML documents are reduced to their visible text.
type Normalizer struct {
	// maxTextSize caps the returned text; zero means unlimited.
	maxTextSize int
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMaxTextSize sets the maximum size of normalized text in bytes.
// Longer texts are truncated at a character boundary. Zero disables the cap.
func WithMaxTextSize(size int) Option {
	return func(n *Normalizer) {
		if size >= 0 {
			n.maxTextSize = size
		}
	}
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{maxTextSize: DefaultMaxTextSize}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize decodes rec's payload into text.
//
// It returns ErrNotText when the declared (or, if nothing is declared,
// sniffed) content type is not textual. An empty payload is not an error
// and yields empty text.
func (n *Normalizer) Normalize(rec *model.Record) (*model.NormalizedText, error) {
	contentType := rec.ContentType
	if !rec.IsText || (contentType != "" && !model.IsTextContentType(contentType)) {
		return nil, ErrNotText
	}

	out := &model.NormalizedText{OriginURL: rec.URL}
	if len(rec.Payload) == 0 {
		return out, nil
	}

	if contentType == "" {
		sniffed := http.DetectContentType(rec.Payload)
		if !model.IsTextContentType(sniffed) {
			return nil, ErrNotText
		}
		// Drop the sniffer's charset guess so the payload's own
		// declarations decide the encoding.
		contentType = model.MediaType(sniffed)
	}

	decoded, err := decode(rec.Payload, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUndecodable, rec.URL, err)
	}

	text := decoded
	if model.IsHTMLContentType(contentType) || looksLikeHTML(decoded) {
		text, err = ExtractText(decoded)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrUndecodable, rec.URL, err)
		}
	} else {
		text = cleanPlainText(decoded)
	}

	out.Text = truncate(text, n.maxTextSize)
	return out, nil
}

// decode converts payload to UTF-8 using the encoding charset determines
// for it. Invalid sequences are replaced, never rejected.
func decode(payload []byte, contentType string) (string, error) {
	enc, _, _ := charset.DetermineEncoding(payload, contentType)
	decoded, err := enc.NewDecoder().Bytes(payload)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(decoded), string(utf8.RuneError)), nil
}

// looksLikeHTML reports whether a payload declared as plain text is in
// fact an HTML document, which happens often in web captures.
func looksLikeHTML(s string) bool {
	head := strings.ToLower(strings.TrimSpace(firstBytes(s, 512)))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// cleanPlainText normalizes line endings and trims each line.
func cleanPlainText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// truncate cuts s to at most max bytes without splitting a character.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func firstBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// skippedElements hold no visible text.
var skippedElements = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
	"iframe":   true,
	"object":   true,
}

// blockElements start a new line in the extracted text.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "td": true, "th": true, "tr": true,
	"ul": true, "body": true,
}

// ExtractText returns the visible text of an HTML document, one block per
// line with whitespace runs collapsed.
func ExtractText(document string) (string, error) {
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", err
	}

	var lines []string
	var current strings.Builder

	flush := func() {
		line := strings.Join(strings.Fields(current.String()), " ")
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.ElementNode:
			if skippedElements[node.Data] {
				return
			}
			if blockElements[node.Data] {
				flush()
			}
		case html.TextNode:
			current.WriteString(node.Data)
		case html.CommentNode, html.DoctypeNode:
			return
		}

		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if node.Type == html.ElementNode && blockElements[node.Data] {
			flush()
		}
	}

	walk(doc)
	flush()

	return strings.Join(lines, "\n"), nil
}
