package writers

import (
	"bufio"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/genomelab/polisher/pkg/variant"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONL writes called variants as one JSON object per line.
type JSONL struct {
	w *bufio.Writer
	c io.Closer
}

// NewJSONL wraps an open sink.
func NewJSONL(wc io.WriteCloser) *JSONL {
	return &JSONL{w: bufio.NewWriter(wc), c: wc}
}

// CreateJSONL creates path and returns a JSONL writing to it.
func CreateJSONL(path string) (*JSONL, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create jsonl output %s: %w", path, err)
	}
	return NewJSONL(f), nil
}

// WriteVariants appends one line per variant in input order.
func (j *JSONL) WriteVariants(vs []variant.Variant) error {
	for _, v := range vs {
		line, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal variant: %w", err)
		}
		if _, err := j.w.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the underlying sink.
func (j *JSONL) Close() error {
	if err := j.w.Flush(); err != nil {
		_ = j.c.Close()
		return err
	}
	return j.c.Close()
}
