package reads

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/genomelab/polisher/pkg/utils"
)

// LoadTable reads a reference-projected alignment table (plain or gzip).
// One row per alignment, tab-separated:
//
//	name  contig  tStart  tEnd  mapQV  bases
//
// where bases is the read sequence in reference projection ('-' for a
// deletion) and must be exactly tEnd-tStart characters. Lines starting
// with '#' are comments.
func LoadTable(path string) (*Store, error) {
	rc, err := utils.OpenMaybeGzip(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open alignments %s: %w", path, err)
	}
	defer rc.Close() //nolint:errcheck // read-only handle

	var rows []Aligned
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 1<<20), 64<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 6 {
			return nil, fmt.Errorf("invalid alignment row %s:%d: want 6 fields, got %d", path, lineNo, len(fields))
		}
		tStart, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("invalid alignment row %s:%d: bad tStart: %w", path, lineNo, err)
		}
		tEnd, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("invalid alignment row %s:%d: bad tEnd: %w", path, lineNo, err)
		}
		mapQV, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, fmt.Errorf("invalid alignment row %s:%d: bad mapQV: %w", path, lineNo, err)
		}
		bases := strings.ToUpper(fields[5])
		if tStart < 0 || tEnd <= tStart {
			return nil, fmt.Errorf("invalid alignment row %s:%d: bad range [%d,%d)", path, lineNo, tStart, tEnd)
		}
		if len(bases) != tEnd-tStart {
			return nil, fmt.Errorf(
				"invalid alignment row %s:%d: bases length %d does not match span %d",
				path, lineNo, len(bases), tEnd-tStart)
		}
		rows = append(rows, Aligned{
			Name:   fields[0],
			Ref:    fields[1],
			TStart: tStart,
			TEnd:   tEnd,
			MapQV:  mapQV,
			Bases:  []byte(bases),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alignments %s: %w", path, err)
	}
	return NewStore(rows), nil
}
