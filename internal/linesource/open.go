package linesource

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// compressed suffixes tried, in order, when the plain path does not exist
var compressedSuffixes = []string{".zst", ".gz"}

// Resolve returns path if it exists, otherwise the first existing compressed
// sibling (path.zst, path.gz). The error for the plain path is returned when
// nothing exists.
func Resolve(path string) (string, error) {
	_, err := os.Stat(path)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	for _, suffix := range compressedSuffixes {
		if _, cerr := os.Stat(path + suffix); cerr == nil {
			return path + suffix, nil
		}
	}
	return "", err
}

// Open resolves path and returns a Source reading it. Files ending in .zst or
// .gz are decompressed on the fly.
func Open(path string, opts ...Option) (*Source, error) {
	resolved, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(resolved)
	if err != nil {
		return nil, err
	}
	rc, err := decompress(resolved, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", resolved, err)
	}
	return New(rc, opts...), nil
}

func decompress(path string, f *os.File) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		return stackedReader{Reader: zr, close: func() error {
			zr.Close()
			return f.Close()
		}}, nil
	case strings.HasSuffix(path, ".gz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		return stackedReader{Reader: gr, close: func() error {
			gerr := gr.Close()
			if err := f.Close(); err != nil {
				return err
			}
			return gerr
		}}, nil
	default:
		return f, nil
	}
}

// stackedReader closes a decompressor together with the file beneath it.
type stackedReader struct {
	io.Reader
	close func() error
}

func (r stackedReader) Close() error { return r.close() }
