// Package linesource yields trace lines from a log in order.
//
// A Source reads forward only. The candidate log is opened with
// WithDiagnosticPrefix so that free-form debug output interleaved by the
// system under test is dropped before the comparator sees it.
package linesource

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Line is one trace line and its 1-based physical position in the log.
type Line struct {
	Number int
	Text   string
}

// Option configures a Source.
type Option func(*Source)

// WithDiagnosticPrefix discards every line starting with prefix.
// An empty prefix disables filtering.
func WithDiagnosticPrefix(prefix string) Option {
	return func(s *Source) { s.prefix = prefix }
}

// Source reads lines sequentially from an underlying reader.
type Source struct {
	r       *bufio.Reader
	closer  io.Closer
	prefix  string
	number  int
	skipped int
	done    bool
	err     error // deferred error from sniffing the byte order mark
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// New wraps r. A UTF-8 byte order mark is dropped and UTF-16 input with a
// byte order mark is decoded to UTF-8. Any other input is passed through
// byte for byte, invalid UTF-8 included.
func New(r io.Reader, opts ...Option) *Source {
	br := bufio.NewReader(r)
	s := &Source{r: br}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	head, err := br.Peek(len(utf8BOM))
	switch {
	case bytes.HasPrefix(head, utf8BOM):
		_, _ = br.Discard(len(utf8BOM))
	case len(head) >= 2 && (head[0] == 0xFE && head[1] == 0xFF || head[0] == 0xFF && head[1] == 0xFE):
		// BOMOverride consumes the mark and picks the byte order
		s.r = bufio.NewReader(transform.NewReader(br, unicode.BOMOverride(transform.Nop)))
	}
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the next non-diagnostic line. ok is false once input is
// exhausted; further calls keep returning ok=false.
func (s *Source) Next() (Line, bool, error) {
	for {
		line, ok, err := s.read()
		if err != nil || !ok {
			return Line{}, false, err
		}
		if s.prefix != "" && strings.HasPrefix(line.Text, s.prefix) {
			s.skipped++
			continue
		}
		return line, true, nil
	}
}

func (s *Source) read() (Line, bool, error) {
	if s.done {
		return Line{}, false, nil
	}
	if s.err != nil {
		err := s.err
		s.err = nil
		s.done = true
		return Line{}, false, err
	}
	text, err := s.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return Line{}, false, err
		}
		s.done = true
		if text == "" {
			return Line{}, false, nil
		}
	}
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	s.number++
	return Line{Number: s.number, Text: text}, true, nil
}

// Skipped reports how many diagnostic lines were discarded so far.
func (s *Source) Skipped() int { return s.skipped }

// Close releases the underlying reader when it is closable.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}
