package annotation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// ErrMalformedAnnotation is wrapped by every GTF parse failure.
var ErrMalformedAnnotation = errors.New("malformed annotation")

// ParseError reports a GTF line that cannot be turned into a gene model.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gtf parse error at line %d: %s", e.Line, e.Message)
}

// Unwrap lets callers test for ErrMalformedAnnotation with errors.Is.
func (e *ParseError) Unwrap() error {
	return ErrMalformedAnnotation
}

// GTFLoader loads the gene model from Ensembl or GENCODE GTF files.
type GTFLoader struct {
	path   string
	logger *zap.Logger
}

// NewGTFLoader creates a new GTF loader.
func NewGTFLoader(path string) *GTFLoader {
	return &GTFLoader{path: path, logger: zap.NewNop()}
}

// SetLogger sets the logger for warning and info messages.
func (l *GTFLoader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Load parses the GTF file and returns genes in file order.
func (l *GTFLoader) Load() ([]*Gene, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open GTF file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	genes, err := l.parseGTF(reader)
	if err != nil {
		return nil, err
	}
	l.logger.Info("loaded annotation",
		zap.String("path", l.path),
		zap.Int("genes", len(genes)))
	return genes, nil
}

// gtfFeature represents a parsed GTF line.
type gtfFeature struct {
	chrom       string
	featureType string
	start       int
	end         int
	strand      string
	attributes  map[string]string
}

// pendingTranscript collects exons until the whole file is read.
type pendingTranscript struct {
	id         string
	strand     Strand
	start, end int
	exons      []Exon
}

// parseGTF parses GTF content. Exons are numbered in the order they appear
// for their transcript; transcripts keep the order of their first line.
func (l *GTFLoader) parseGTF(reader io.Reader) ([]*Gene, error) {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var genes []*Gene
	geneByID := make(map[string]*Gene)
	transcriptsByGene := make(map[string][]*pendingTranscript)
	transcriptByID := make(map[string]*pendingTranscript)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		feat, err := parseLine(line)
		if err != nil {
			return nil, &ParseError{Line: lineNum, Message: err.Error()}
		}

		switch feat.featureType {
		case "gene":
			id := feat.attributes["gene_id"]
			if id == "" {
				return nil, &ParseError{Line: lineNum, Message: "gene without gene_id"}
			}
			biotype := feat.attributes["gene_biotype"]
			if biotype == "" {
				biotype = feat.attributes["gene_type"]
			}
			g := &Gene{
				ID:      id,
				Name:    feat.attributes["gene_name"],
				Chrom:   feat.chrom,
				Start:   feat.start,
				End:     feat.end,
				Strand:  ParseStrand(feat.strand),
				Biotype: biotype,
			}
			if _, dup := geneByID[id]; dup {
				l.logger.Warn("duplicate gene record, keeping first", zap.String("gene_id", id), zap.Int("line", lineNum))
				continue
			}
			geneByID[id] = g
			genes = append(genes, g)

		case "transcript":
			geneID := feat.attributes["gene_id"]
			id := feat.attributes["transcript_id"]
			if id == "" {
				return nil, &ParseError{Line: lineNum, Message: "transcript without transcript_id"}
			}
			if _, ok := geneByID[geneID]; !ok {
				return nil, &ParseError{Line: lineNum, Message: fmt.Sprintf("transcript %s references unknown gene %q", id, geneID)}
			}
			if _, dup := transcriptByID[id]; dup {
				return nil, &ParseError{Line: lineNum, Message: fmt.Sprintf("duplicate transcript %s", id)}
			}
			pt := &pendingTranscript{
				id:     id,
				strand: ParseStrand(feat.strand),
				start:  feat.start,
				end:    feat.end,
			}
			transcriptByID[id] = pt
			transcriptsByGene[geneID] = append(transcriptsByGene[geneID], pt)

		case "exon":
			id := feat.attributes["transcript_id"]
			pt, ok := transcriptByID[id]
			if !ok {
				return nil, &ParseError{Line: lineNum, Message: fmt.Sprintf("exon references unknown transcript %q", id)}
			}
			pt.exons = append(pt.exons, Exon{
				Start: feat.start,
				End:   feat.end,
				Order: len(pt.exons),
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}

	// Assemble genes with their transcripts
	for _, g := range genes {
		for _, pt := range transcriptsByGene[g.ID] {
			if len(pt.exons) == 0 {
				l.logger.Warn("transcript without exons", zap.String("transcript_id", pt.id))
				continue
			}
			g.Transcripts = append(g.Transcripts, NewTranscript(pt.id, pt.strand, pt.start, pt.end, pt.exons))
		}
	}

	return genes, nil
}

// parseLine parses a single GTF line.
func parseLine(line string) (*gtfFeature, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.Atoi(fields[4])
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}
	if end < start {
		return nil, fmt.Errorf("end %d before start %d", end, start)
	}

	return &gtfFeature{
		chrom:       NormalizeChrom(fields[0]),
		featureType: fields[2],
		start:       start,
		end:         end,
		strand:      fields[6],
		attributes:  parseAttributes(fields[8]),
	}, nil
}

// parseAttributes parses GTF attribute column.
// Format: key "value"; key value; ...
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// Find the first space to separate key from value
		idx := strings.Index(part, " ")
		if idx == -1 {
			continue
		}

		key := part[:idx]
		value := strings.Trim(strings.TrimSpace(part[idx+1:]), "\"")

		attrs[key] = value
	}

	return attrs
}

// NormalizeChrom removes the "chr" prefix so that annotation and alignment
// references compare equal whichever naming convention each file uses.
func NormalizeChrom(chrom string) string {
	return strings.TrimPrefix(chrom, "chr")
}
