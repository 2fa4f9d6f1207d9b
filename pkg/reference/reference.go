// Package reference holds the read-only registry of reference contigs.
// The registry is built once before any worker starts and never mutated,
// so it is safe to read from every worker without locking.
package reference

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/genomelab/polisher/pkg/utils"
)

// Contig is one reference sequence.
type Contig struct {
	Name     string
	Length   int
	Sequence []byte
}

// Window returns the sub-sequence [start, end), clamped to the contig bounds.
func (c *Contig) Window(start, end int) []byte {
	if start < 0 {
		start = 0
	}
	if end > c.Length {
		end = c.Length
	}
	if start >= end {
		return nil
	}
	return c.Sequence[start:end]
}

// Registry is an immutable lookup of contigs by name, preserving input order.
type Registry struct {
	byName  map[string]*Contig
	ordered []*Contig
	path    string
}

var ErrEmptyReference = errors.New("invalid reference: no contigs found")

// LoadFasta reads a FASTA file (plain or gzip) into a Registry.
// Record names are truncated at the first whitespace, matching common
// aligner behavior.
func LoadFasta(path string) (*Registry, error) {
	rc, err := utils.OpenMaybeGzip(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference %s: %w", path, err)
	}
	defer rc.Close() //nolint:errcheck // read-only handle

	r := &Registry{byName: make(map[string]*Contig), path: path}
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 1<<20), 64<<20)

	var name string
	var seq bytes.Buffer
	flush := func() error {
		if name == "" {
			return nil
		}
		if _, dup := r.byName[name]; dup {
			return fmt.Errorf("invalid reference: duplicate contig %q", name)
		}
		c := &Contig{
			Name:     name,
			Length:   seq.Len(),
			Sequence: append([]byte(nil), seq.Bytes()...),
		}
		r.byName[name] = c
		r.ordered = append(r.ordered, c)
		seq.Reset()
		return nil
	}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if err := flush(); err != nil {
				return nil, err
			}
			fields := strings.Fields(line[1:])
			if len(fields) == 0 {
				return nil, fmt.Errorf("invalid reference: unnamed record in %s", path)
			}
			name = fields[0]
			continue
		}
		seq.WriteString(strings.ToUpper(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reference %s: %w", path, err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(r.ordered) == 0 {
		return nil, ErrEmptyReference
	}
	return r, nil
}

// Get returns the contig with the given name.
func (r *Registry) Get(name string) (*Contig, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Contigs returns the contigs in input order.
func (r *Registry) Contigs() []*Contig { return r.ordered }

// Path returns the file the registry was loaded from.
func (r *Registry) Path() string { return r.path }
