// Package duckdb persists PSI results and caches parsed annotations.
// Annotations are cached as gob files (fast, pure Go).
// PSI results are stored in DuckDB (queryable across samples).
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding PSI results.
type Store struct {
	db *sql.DB
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS psi_results (
		sample VARCHAR,
		gene_id VARCHAR,
		chrom VARCHAR,
		strand VARCHAR,
		exon_start BIGINT,
		exon_end BIGINT,
		transcript_id VARCHAR,
		num_incl_reads BIGINT,
		num_excl_reads BIGINT,
		num_total_reads BIGINT,
		psi DOUBLE,
		PRIMARY KEY (sample, gene_id, exon_start, exon_end)
	)`)
	return err
}
