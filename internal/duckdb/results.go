package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-psi/internal/annotation"
	"github.com/inodb/vibe-psi/internal/splice"
)

// resultKey is the primary key of a stored row within one sample.
type resultKey struct {
	geneID     string
	start, end int
}

// WritePSIResults replaces the rows of sample with results, using the
// Appender API. Duplicate (gene_id, exon) entries keep the first.
func (s *Store) WritePSIResults(sample string, results []splice.Result) error {
	if err := s.ClearSample(sample); err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}

	seen := make(map[resultKey]bool, len(results))
	deduped := make([]splice.Result, 0, len(results))
	for _, r := range results {
		k := resultKey{r.GeneID, r.Exon.Start, r.Exon.End}
		if !seen[k] {
			seen[k] = true
			deduped = append(deduped, r)
		}
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "psi_results")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range deduped {
		if err := appender.AppendRow(
			sample, r.GeneID, r.Chrom, r.Strand.String(),
			int64(r.Exon.Start), int64(r.Exon.End), r.TranscriptID,
			int64(r.Inclusion), int64(r.Exclusion), int64(r.Total()), r.PSI(),
		); err != nil {
			return fmt.Errorf("append psi result: %w", err)
		}
	}

	return appender.Flush()
}

// ClearSample removes the stored rows of one sample.
func (s *Store) ClearSample(sample string) error {
	_, err := s.db.Exec("DELETE FROM psi_results WHERE sample=?", sample)
	if err != nil {
		return fmt.Errorf("clear sample %s: %w", sample, err)
	}
	return nil
}

// LookupGene returns the stored results of a gene in one sample, ordered by exon.
func (s *Store) LookupGene(sample, geneID string) ([]splice.Result, error) {
	rows, err := s.db.Query(`SELECT
		chrom, strand, exon_start, exon_end, transcript_id,
		num_incl_reads, num_excl_reads
		FROM psi_results
		WHERE sample=? AND gene_id=?
		ORDER BY exon_start, exon_end`,
		sample, geneID)
	if err != nil {
		return nil, fmt.Errorf("query gene: %w", err)
	}
	defer rows.Close()

	var results []splice.Result
	for rows.Next() {
		r := splice.Result{GeneID: geneID}
		var strand string
		if err := rows.Scan(
			&r.Chrom, &strand, &r.Exon.Start, &r.Exon.End, &r.TranscriptID,
			&r.Inclusion, &r.Exclusion,
		); err != nil {
			return nil, fmt.Errorf("scan psi result: %w", err)
		}
		r.Strand = annotation.ParseStrand(strand)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate psi results: %w", err)
	}
	return results, nil
}
