package warc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/nao1215/warcscan/internal/model"
)

// DefaultMaxPayloadSize caps the payload kept per record (5 MiB).
// Larger payloads are truncated, not rejected.
const DefaultMaxPayloadSize = 5 * 1024 * 1024

// ErrMalformedRecord is returned when the archive violates the WARC
// framing so that no further record can be located.
var ErrMalformedRecord = errors.New("malformed WARC record")

// WARC record types that carry a captured page.
const (
	typeResponse = "response"
	typeResource = "resource"
)

// gzipMagic starts every gzip member.
var gzipMagic = []byte{0x1f, 0x8b}

// Reader yields the response and resource records of one WARC archive.
// Gzip-compressed archives (one member per record, or a single stream)
// are detected by their magic bytes and decompressed transparently.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	name           string
	br             *bufio.Reader
	tp             *textproto.Reader
	closers        []io.Closer
	maxPayloadSize int64
	logger         *slog.Logger

	// Records counts records yielded so far.
	Records int
	// Skipped counts records of other types, or without a target URI.
	Skipped int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxPayloadSize sets the per-record payload cap in bytes.
func WithMaxPayloadSize(size int64) ReaderOption {
	return func(r *Reader) {
		if size > 0 {
			r.maxPayloadSize = size
		}
	}
}

// WithReaderLogger sets the logger used for per-record warnings.
func WithReaderLogger(logger *slog.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = logger
	}
}

// WithName sets the archive name used in log messages and errors.
func WithName(name string) ReaderOption {
	return func(r *Reader) {
		r.name = name
	}
}

// NewReader creates a Reader over an archive stream.
func NewReader(src io.Reader, opts ...ReaderOption) (*Reader, error) {
	r := &Reader{
		name:           "stream",
		maxPayloadSize: DefaultMaxPayloadSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	br := bufio.NewReader(src)
	magic, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read %s: %w", r.name, err)
	}
	if bytes.Equal(magic, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", r.name, err)
		}
		r.closers = append(r.closers, zr)
		br = bufio.NewReader(zr)
	}

	r.br = br
	r.tp = textproto.NewReader(br)
	return r, nil
}

// Next returns the next response or resource record. It returns io.EOF
// once the archive is exhausted.
func (r *Reader) Next(ctx context.Context) (*model.Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		header, length, err := r.readHeader()
		if err != nil {
			return nil, err
		}

		block := &io.LimitedReader{R: r.br, N: length}
		rec, err := r.readBlock(header, block)

		// Whatever readBlock left unread belongs to this record.
		if _, derr := io.Copy(io.Discard, block); derr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, r.name, derr)
		}
		if block.N > 0 {
			return nil, fmt.Errorf("%w: %s: truncated block, %d bytes missing",
				ErrMalformedRecord, r.name, block.N)
		}
		if err != nil {
			return nil, err
		}

		if rec == nil {
			r.Skipped++
			continue
		}
		r.Records++
		return rec, nil
	}
}

// readHeader reads a version line and the named fields that follow it.
// Blank lines between records are skipped.
func (r *Reader) readHeader() (textproto.MIMEHeader, int64, error) {
	var line string
	for {
		l, err := r.tp.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && strings.TrimSpace(l) == "" {
				return nil, 0, io.EOF
			}
			return nil, 0, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, r.name, err)
		}
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}

	if !strings.HasPrefix(line, "WARC/") {
		return nil, 0, fmt.Errorf("%w: %s: unexpected version line %q", ErrMalformedRecord, r.name, truncateLine(line))
	}

	header, err := r.tp.ReadMIMEHeader()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, r.name, err)
	}

	length, err := strconv.ParseInt(strings.TrimSpace(header.Get("Content-Length")), 10, 64)
	if err != nil || length < 0 {
		return nil, 0, fmt.Errorf("%w: %s: invalid Content-Length %q",
			ErrMalformedRecord, r.name, header.Get("Content-Length"))
	}
	return header, length, nil
}

// readBlock turns a record block into a model.Record. It returns nil for
// records that carry no captured page.
func (r *Reader) readBlock(header textproto.MIMEHeader, block io.Reader) (*model.Record, error) {
	recordType := strings.ToLower(strings.TrimSpace(header.Get("WARC-Type")))
	if recordType != typeResponse && recordType != typeResource {
		return nil, nil
	}
	targetURI := strings.Trim(strings.TrimSpace(header.Get("WARC-Target-URI")), "<>")
	if targetURI == "" {
		return nil, nil
	}

	blockType := header.Get("Content-Type")
	if recordType == typeResponse && model.MediaType(blockType) == "application/http" {
		return r.readHTTPResponse(targetURI, block)
	}

	payload, err := r.readPayload(block)
	if err != nil {
		return nil, err
	}
	return model.NewRecord(targetURI, payload, blockType), nil
}

// readHTTPResponse parses a captured HTTP response and returns its body as
// the record payload. A block that does not parse as HTTP is kept whole,
// with no declared type, so the normalizer sniffs it.
func (r *Reader) readHTTPResponse(targetURI string, block io.Reader) (*model.Record, error) {
	var raw bytes.Buffer
	tee := io.TeeReader(io.LimitReader(block, r.maxPayloadSize), &raw)

	resp, err := http.ReadResponse(bufio.NewReader(tee), nil)
	if err != nil {
		r.logger.Warn("unparseable HTTP response block",
			"archive", r.name,
			"url", targetURI,
			"error", err,
		)
		if _, err := io.Copy(io.Discard, tee); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, r.name, err)
		}
		return model.NewRecord(targetURI, raw.Bytes(), ""), nil
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if strings.EqualFold(strings.TrimSpace(resp.Header.Get("Content-Encoding")), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err == nil {
			defer zr.Close()
			body = zr
		}
	}

	payload, err := r.readPayload(body)
	if err != nil {
		// Truncated or corrupt bodies are common in crawls; keep what was read.
		r.logger.Debug("incomplete HTTP body",
			"archive", r.name,
			"url", targetURI,
			"error", err,
		)
	}
	return model.NewRecord(targetURI, payload, resp.Header.Get("Content-Type")), nil
}

// readPayload reads at most maxPayloadSize bytes. On error it returns the
// bytes read so far together with the error.
func (r *Reader) readPayload(src io.Reader) ([]byte, error) {
	payload, err := io.ReadAll(io.LimitReader(src, r.maxPayloadSize))
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return payload, err
	}
	return payload, nil
}

// Close releases the decompressor and the underlying file, if any.
func (r *Reader) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Name returns the archive name.
func (r *Reader) Name() string {
	return r.name
}

func truncateLine(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
