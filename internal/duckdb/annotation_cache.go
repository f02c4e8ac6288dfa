package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/inodb/vibe-psi/internal/annotation"
)

// AnnotationCache manages gob-serialized gene models on disk:
//
//	{path}       (serialized genes)
//	{path}.meta  (source GTF fingerprint)
type AnnotationCache struct {
	path string
}

// NewAnnotationCache creates an annotation cache stored at path.
func NewAnnotationCache(path string) *AnnotationCache {
	return &AnnotationCache{path: path}
}

func (ac *AnnotationCache) gobPath() string {
	return ac.path
}

func (ac *AnnotationCache) metaPath() string {
	return ac.path + ".meta"
}

// Valid checks whether the cached genes were built from the given GTF.
func (ac *AnnotationCache) Valid(gtf FileFingerprint) bool {
	meta, err := ac.readMeta()
	if err != nil {
		return false
	}
	for k, v := range gtf.meta("gtf") {
		if meta[k] != v {
			return false
		}
	}

	// Verify gob file exists
	if _, err := os.Stat(ac.gobPath()); err != nil {
		return false
	}
	return true
}

// Load reads the cached genes in annotation order.
func (ac *AnnotationCache) Load() ([]*annotation.Gene, error) {
	f, err := os.Open(ac.gobPath())
	if err != nil {
		return nil, fmt.Errorf("open annotation cache: %w", err)
	}
	defer f.Close()

	var genes []*annotation.Gene
	if err := gob.NewDecoder(f).Decode(&genes); err != nil {
		return nil, fmt.Errorf("decode annotation cache: %w", err)
	}

	// Exon boundary lookups are not serialized.
	for _, g := range genes {
		for i, t := range g.Transcripts {
			g.Transcripts[i] = annotation.NewTranscript(t.ID, t.Strand, t.Start, t.End, t.Exons)
		}
	}
	return genes, nil
}

// Write serializes genes to disk and records the GTF fingerprint.
func (ac *AnnotationCache) Write(genes []*annotation.Gene, gtf FileFingerprint) error {
	if dir := filepath.Dir(ac.gobPath()); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache directory: %w", err)
		}
	}

	f, err := os.Create(ac.gobPath())
	if err != nil {
		return fmt.Errorf("create annotation cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(genes); err != nil {
		f.Close()
		os.Remove(ac.gobPath())
		return fmt.Errorf("encode annotation cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close annotation cache: %w", err)
	}

	return ac.writeMeta(gtf)
}

// Clear removes the cached files.
func (ac *AnnotationCache) Clear() {
	os.Remove(ac.gobPath())
	os.Remove(ac.metaPath())
}

func (ac *AnnotationCache) writeMeta(gtf FileFingerprint) error {
	meta := gtf.meta("gtf")
	meta["created_at"] = time.Now().UTC().Format(time.RFC3339)

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k + "=" + meta[k] + "\n")
	}
	return os.WriteFile(ac.metaPath(), []byte(b.String()), 0644)
}

func (ac *AnnotationCache) readMeta() (map[string]string, error) {
	data, err := os.ReadFile(ac.metaPath())
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
