package model

import (
	"context"
	"mime"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// DigestSize is the length in bytes of a record payload digest.
const DigestSize = 16

// Record is one captured page yielded by a RecordSource.
// Records are immutable once read; nothing downstream modifies them.
type Record struct {
	// URL is the origin of the captured page. Never empty.
	URL string `json:"url"`

	// Payload is the page body exactly as captured.
	Payload []byte `json:"-"`

	// ContentType is the declared MIME type of the payload, possibly
	// with parameters such as charset. Empty when nothing was declared.
	ContentType string `json:"content_type,omitempty"`

	// IsText reports whether the declared content type is textual.
	IsText bool `json:"is_text"`

	// Digest is a BLAKE2b-128 digest of the payload, used to count
	// byte-identical captures.
	Digest [DigestSize]byte `json:"-"`
}

// NewRecord builds a Record and derives IsText and Digest from its inputs.
func NewRecord(url string, payload []byte, contentType string) *Record {
	return &Record{
		URL:         url,
		Payload:     payload,
		ContentType: contentType,
		IsText:      contentType == "" || IsTextContentType(contentType),
		Digest:      PayloadDigest(payload),
	}
}

// PayloadDigest returns the BLAKE2b-128 digest of a payload.
func PayloadDigest(payload []byte) [DigestSize]byte {
	var digest [DigestSize]byte
	h, err := blake2b.New(DigestSize, nil)
	if err != nil {
		// Only reachable with an invalid size or key.
		return digest
	}
	_, _ = h.Write(payload) //nolint:errcheck // hash.Hash never returns an error
	copy(digest[:], h.Sum(nil))
	return digest
}

// IsTextContentType reports whether a MIME type denotes textual content
// that the normalizer can turn into analyzable text.
func IsTextContentType(contentType string) bool {
	mediaType := MediaType(contentType)
	switch {
	case strings.HasPrefix(mediaType, "text/"):
		return true
	case mediaType == "application/xhtml+xml",
		mediaType == "application/xml",
		strings.HasSuffix(mediaType, "+xml"):
		return true
	default:
		return false
	}
}

// IsHTMLContentType reports whether a MIME type denotes an HTML document.
func IsHTMLContentType(contentType string) bool {
	mediaType := MediaType(contentType)
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// MediaType returns the lower-cased media type without parameters.
func MediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// NormalizedText is the analyzable text derived from a Record.
type NormalizedText struct {
	OriginURL string `json:"origin_url"`
	Text      string `json:"text"`
}

// IsEmpty reports whether the text holds nothing but whitespace.
func (t *NormalizedText) IsEmpty() bool {
	return strings.TrimSpace(t.Text) == ""
}

// RecordSource yields records one at a time.
//
// Next returns io.EOF once the source is exhausted. Any other error means
// the source can no longer be read and is fatal to the run. Each record is
// yielded at most once per run.
type RecordSource interface {
	Next(ctx context.Context) (*Record, error)
}
