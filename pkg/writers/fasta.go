// Package writers implements the output sinks: FASTA/FASTQ consensus
// records and VCF/JSONL variant streams.
package writers

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

const fastaLineWidth = 60

// Fasta writes consensus records as wrapped FASTA.
type Fasta struct {
	w *bufio.Writer
	c io.Closer
}

// NewFasta wraps an open sink.
func NewFasta(wc io.WriteCloser) *Fasta {
	return &Fasta{w: bufio.NewWriter(wc), c: wc}
}

// CreateFasta creates path and returns a Fasta writing to it.
func CreateFasta(path string) (*Fasta, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create fasta output %s: %w", path, err)
	}
	return NewFasta(f), nil
}

// WriteRecord writes one record; the confidence scores are ignored, FASTA
// carries no qualities.
func (f *Fasta) WriteRecord(name, sequence string, _ []uint8) error {
	if _, err := fmt.Fprintf(f.w, ">%s\n", name); err != nil {
		return err
	}
	for i := 0; i < len(sequence); i += fastaLineWidth {
		end := i + fastaLineWidth
		if end > len(sequence) {
			end = len(sequence)
		}
		if _, err := fmt.Fprintf(f.w, "%s\n", sequence[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the underlying sink.
func (f *Fasta) Close() error {
	if err := f.w.Flush(); err != nil {
		_ = f.c.Close()
		return err
	}
	return f.c.Close()
}
