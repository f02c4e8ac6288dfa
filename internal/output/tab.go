// Package output provides PSI result writers.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/inodb/vibe-psi/internal/splice"
)

// TabWriter writes PSI results in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"gene",
			"exon",
			"num_incl_reads",
			"num_excl_reads",
			"num_total_reads",
			"psi",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single result.
func (tw *TabWriter) Write(r splice.Result) error {
	values := []string{
		r.GeneID,
		FormatExon(r.Exon),
		strconv.Itoa(r.Inclusion),
		strconv.Itoa(r.Exclusion),
		strconv.Itoa(r.Total()),
		FormatPSI(r.PSI()),
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteAll writes the header followed by every result and flushes.
func (tw *TabWriter) WriteAll(results []splice.Result) error {
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range results {
		if err := tw.Write(r); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// FormatExon renders an exon as start-end with a half-open end.
func FormatExon(s splice.Span) string {
	return fmt.Sprintf("%d-%d", s.Start, s.End+1)
}

// FormatPSI renders psi with the shortest decimal that reads back exactly.
func FormatPSI(psi float64) string {
	return strconv.FormatFloat(psi, 'f', -1, 64)
}

// Create creates the output file, making parent directories as needed.
// "-" returns stdout.
func Create(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
