// Package bam reads aligned records from BAM or SAM files.
package bam

import (
	"bufio"
	"fmt"
	"io"
	"os"

	htsbam "github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/inodb/vibe-psi/internal/annotation"
	"github.com/inodb/vibe-psi/internal/splice"
)

// recordReader is implemented by both the BAM and the SAM reader.
type recordReader interface {
	Read() (*sam.Record, error)
}

// Reader streams alignment records as splice reads.
type Reader struct {
	file    *os.File
	bgzf    *htsbam.Reader
	records recordReader
	header  *sam.Header
	count   int
}

// NewReader opens a BAM or SAM file. BGZF input is detected from its magic
// bytes, anything else is parsed as SAM text. threads sets the number of
// BAM decompression goroutines.
func NewReader(path string, threads int) (*Reader, error) {
	if path == "-" {
		return NewReaderFromReader(os.Stdin, threads)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alignment file: %w", err)
	}
	r, err := NewReaderFromReader(file, threads)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.file = file
	return r, nil
}

// NewReaderFromReader creates a reader over an open stream.
func NewReaderFromReader(in io.Reader, threads int) (*Reader, error) {
	br := bufio.NewReader(in)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read alignment header: %w", err)
	}

	r := &Reader{}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		r.bgzf, err = htsbam.NewReader(br, threads)
		if err != nil {
			return nil, fmt.Errorf("create bam reader: %w", err)
		}
		r.records = r.bgzf
		r.header = r.bgzf.Header()
		return r, nil
	}

	sr, err := sam.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("create sam reader: %w", err)
	}
	r.records = sr
	r.header = sr.Header()
	return r, nil
}

// Header returns the alignment header.
func (r *Reader) Header() *sam.Header {
	return r.header
}

// Next returns the next record. Returns nil, nil at end of input.
func (r *Reader) Next() (*splice.Read, error) {
	rec, err := r.records.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record %d: %w", r.count+1, err)
	}
	r.count++
	return Convert(rec), nil
}

// Records returns the number of records read so far.
func (r *Reader) Records() int {
	return r.count
}

// Close releases the decompressor and the underlying file.
func (r *Reader) Close() error {
	var err error
	if r.bgzf != nil {
		err = r.bgzf.Close()
	}
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Convert translates a SAM record into coordinates the engine uses.
// Positions become 1-based and inclusive; aligned blocks are the M, = and X
// runs of the CIGAR.
func Convert(rec *sam.Record) *splice.Read {
	start := rec.Pos + 1
	end := start - 1
	var blocks []splice.Block

	ref := start
	for _, op := range rec.Cigar {
		n := op.Len()
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			blocks = append(blocks, splice.Block{Start: ref, Len: n})
			ref += n
			end = ref - 1
		case sam.CigarDeletion, sam.CigarSkipped:
			ref += n
			end = ref - 1
		}
	}

	return &splice.Read{
		Name:    rec.Name,
		Ref:     refName(rec.Ref),
		MateRef: refName(rec.MateRef),
		Start:   start,
		End:     end,
		Flags:   rec.Flags,
		Blocks:  blocks,
	}
}

func refName(ref *sam.Reference) string {
	if ref == nil {
		return ""
	}
	return annotation.NormalizeChrom(ref.Name())
}
