package writers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/genomelab/polisher/pkg/variant"
	"github.com/genomelab/polisher/pkg/windows"
)

// ErrNoContigs is returned when a VCF writer is created without contig
// declarations for its header.
var ErrNoContigs = errors.New("vcf header requires at least one contig")

// VCFConfig describes the header and filter thresholds of a VCF stream.
type VCFConfig struct {
	// Source names the producing tool in the ##source line.
	Source string
	// ReferencePath is emitted as the ##reference URI.
	ReferencePath string
	// Contigs are declared in order in ##contig lines.
	Contigs []windows.ContigInfo

	// MinConfidence and MinCoverage drive the FILTER column; zero disables
	// the corresponding filter.
	MinConfidence int
	MinCoverage   int

	// Diploid declares the AF INFO field used for heterozygous calls.
	Diploid bool
}

// VCF writes called variants as VCF 4.2. The header is emitted on
// construction; WriteVariants appends body rows.
type VCF struct {
	w   *bufio.Writer
	c   io.Closer
	cfg VCFConfig
}

// NewVCF wraps an open sink and writes the header immediately.
func NewVCF(wc io.WriteCloser, cfg VCFConfig) (*VCF, error) {
	if len(cfg.Contigs) == 0 {
		return nil, ErrNoContigs
	}
	if cfg.Source == "" {
		cfg.Source = "polisher"
	}
	v := &VCF{w: bufio.NewWriter(wc), c: wc, cfg: cfg}
	if err := v.writeHeader(); err != nil {
		_ = wc.Close()
		return nil, err
	}
	return v, nil
}

// CreateVCF creates path and returns a VCF writing to it.
func CreateVCF(path string, cfg VCFConfig) (*VCF, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create vcf output %s: %w", path, err)
	}
	return NewVCF(f, cfg)
}

func (v *VCF) writeHeader() error {
	fmt.Fprintln(v.w, "##fileformat=VCFv4.2")
	fmt.Fprintf(v.w, "##fileDate=%s\n", time.Now().UTC().Format("20060102"))
	fmt.Fprintf(v.w, "##source=%s\n", v.cfg.Source)
	if v.cfg.ReferencePath != "" {
		fmt.Fprintf(v.w, "##reference=file://%s\n", v.cfg.ReferencePath)
	}
	for _, c := range v.cfg.Contigs {
		fmt.Fprintf(v.w, "##contig=<ID=%s,length=%d>\n", c.Name, c.Length)
	}
	fmt.Fprintln(v.w, `##INFO=<ID=DP,Number=1,Type=Integer,Description="Total Depth">`)
	if v.cfg.Diploid {
		fmt.Fprintln(v.w, `##INFO=<ID=AF,Number=A,Type=Float,Description="Allele Frequency">`)
	}
	if v.cfg.MinConfidence > 0 {
		fmt.Fprintf(v.w, "##FILTER=<ID=q%d,Description=\"Quality below %d\">\n", v.cfg.MinConfidence, v.cfg.MinConfidence)
	}
	if v.cfg.MinCoverage > 0 {
		fmt.Fprintf(v.w, "##FILTER=<ID=c%d,Description=\"Coverage below %d\">\n", v.cfg.MinCoverage, v.cfg.MinCoverage)
	}
	_, err := fmt.Fprintln(v.w, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO")
	return err
}

// WriteVariants appends one row per variant. Callers pass variants already
// sorted; rows are emitted in input order.
func (v *VCF) WriteVariants(vs []variant.Variant) error {
	for _, va := range vs {
		if err := v.writeRow(va); err != nil {
			return err
		}
	}
	return nil
}

func (v *VCF) writeRow(va variant.Variant) error {
	pos := va.RefStart
	var ref, alt string
	// alleles tracks which of the two read sequences contribute ALT
	// entries, for the AF field. When a heterozygous substitution has a
	// wildtype allele, that allele is elided from ALT.
	alleles := []int{1, 2}
	switch {
	case va.IsIndel():
		// Anchored on the previous base; RefStart already equals the
		// one-based anchor position.
		ref = va.RefPrev + va.RefSeq
		if va.Heterozygous {
			alt = va.ReadPrev + va.ReadSeq1 + "," + va.ReadPrev + va.ReadSeq2
		} else {
			alt = va.ReadPrev + va.ReadSeq1
			alleles = alleles[:1]
		}
	default:
		pos++
		ref = va.RefSeq
		switch {
		case !va.Heterozygous:
			alt = va.ReadSeq1
			alleles = alleles[:1]
		case va.ReadSeq1 == va.RefSeq:
			alt = va.ReadSeq2
			alleles = []int{2}
		case va.ReadSeq2 == va.RefSeq:
			alt = va.ReadSeq1
			alleles = []int{1}
		default:
			alt = va.ReadSeq1 + "," + va.ReadSeq2
		}
	}

	info := fmt.Sprintf("DP=%d", va.Coverage)
	if af := alleleFrequencies(va, alleles); af != "" {
		info += ";" + af
	}

	var failed []string
	if v.cfg.MinConfidence > 0 && va.Confidence < v.cfg.MinConfidence {
		failed = append(failed, fmt.Sprintf("q%d", v.cfg.MinConfidence))
	}
	if v.cfg.MinCoverage > 0 && va.Coverage < v.cfg.MinCoverage {
		failed = append(failed, fmt.Sprintf("c%d", v.cfg.MinCoverage))
	}
	filter := "PASS"
	if len(failed) > 0 {
		filter = strings.Join(failed, ";")
	}

	_, err := fmt.Fprintf(v.w, "%s\t%d\t.\t%s\t%s\t%d\t%s\t%s\n",
		va.RefName, pos, ref, alt, va.Confidence, filter, info)
	return err
}

// alleleFrequencies formats the AF INFO field for a heterozygous call, or
// returns "" when frequencies are unknown or the call is homozygous.
func alleleFrequencies(va variant.Variant, alleles []int) string {
	if !va.Heterozygous || va.Frequency1 == 0 {
		return ""
	}
	denom := float64(va.Frequency1 + va.Frequency2)
	parts := make([]string, 0, len(alleles))
	for _, a := range alleles {
		freq := va.Frequency1
		if a == 2 {
			freq = va.Frequency2
		}
		parts = append(parts, fmt.Sprintf("%.3g", float64(freq)/denom))
	}
	return "AF=" + strings.Join(parts, ",")
}

// Close flushes and closes the underlying sink.
func (v *VCF) Close() error {
	if err := v.w.Flush(); err != nil {
		_ = v.c.Close()
		return err
	}
	return v.c.Close()
}
