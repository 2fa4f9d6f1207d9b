package writers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// Phred+33 encoding; 93 is the highest score representable as printable ASCII.
const (
	qualityOffset = 33
	maxQuality    = 93
)

// ErrMissingConfidence is returned when a FASTQ record has no per-base scores.
var ErrMissingConfidence = errors.New("fastq record requires one confidence score per base")

// Fastq writes consensus records as FASTQ, one score per base.
type Fastq struct {
	w *bufio.Writer
	c io.Closer
}

// NewFastq wraps an open sink.
func NewFastq(wc io.WriteCloser) *Fastq {
	return &Fastq{w: bufio.NewWriter(wc), c: wc}
}

// CreateFastq creates path and returns a Fastq writing to it.
func CreateFastq(path string) (*Fastq, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create fastq output %s: %w", path, err)
	}
	return NewFastq(f), nil
}

// WriteRecord writes one record. confidence must carry exactly one score
// per sequence base.
func (f *Fastq) WriteRecord(name, sequence string, confidence []uint8) error {
	if len(confidence) != len(sequence) {
		return fmt.Errorf("%w: %d bases, %d scores", ErrMissingConfidence, len(sequence), len(confidence))
	}
	qual := make([]byte, len(confidence))
	for i, c := range confidence {
		if c > maxQuality {
			c = maxQuality
		}
		qual[i] = c + qualityOffset
	}
	_, err := fmt.Fprintf(f.w, "@%s\n%s\n+\n%s\n", name, sequence, qual)
	return err
}

// Close flushes and closes the underlying sink.
func (f *Fastq) Close() error {
	if err := f.w.Flush(); err != nil {
		_ = f.c.Close()
		return err
	}
	return f.c.Close()
}
