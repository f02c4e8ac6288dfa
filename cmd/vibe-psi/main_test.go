package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-psi/internal/duckdb"
)

const cassetteGTF = `chr1	test	gene	1	1000	.	+	.	gene_id "G"; gene_name "CASSETTE"; gene_biotype "protein_coding";
chr1	test	transcript	100	600	.	+	.	gene_id "G"; transcript_id "T1";
chr1	test	exon	100	200	.	+	.	gene_id "G"; transcript_id "T1";
chr1	test	exon	300	400	.	+	.	gene_id "G"; transcript_id "T1";
chr1	test	exon	500	600	.	+	.	gene_id "G"; transcript_id "T1";
chr1	test	transcript	100	600	.	+	.	gene_id "G"; transcript_id "T2";
chr1	test	exon	100	200	.	+	.	gene_id "G"; transcript_id "T2";
chr1	test	exon	500	600	.	+	.	gene_id "G"; transcript_id "T2";
`

func cassetteSAM() string {
	seq := func(n int) string { return strings.Repeat("A", n) }
	return "@HD\tVN:1.6\tSO:coordinate\n" +
		"@SQ\tSN:chr1\tLN:10000\n" +
		"a\t99\tchr1\t150\t60\t51M99N51M\t=\t320\t251\t" + seq(102) + "\t*\n" +
		"b\t99\tchr1\t150\t60\t51M299N51M\t=\t520\t451\t" + seq(102) + "\t*\n" +
		"a\t147\tchr1\t320\t60\t81M\t=\t150\t-251\t" + seq(81) + "\t*\n" +
		"b\t147\tchr1\t520\t60\t81M\t=\t150\t-451\t" + seq(81) + "\t*\n"
}

// setup isolates viper and the home directory and writes the fixtures.
func setup(t *testing.T) (gtf, sam, dir string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir = t.TempDir()
	t.Setenv("HOME", dir)

	gtf = filepath.Join(dir, "genes.gtf")
	require.NoError(t, os.WriteFile(gtf, []byte(cassetteGTF), 0o644))
	sam = filepath.Join(dir, "sample1.sam")
	require.NoError(t, os.WriteFile(sam, []byte(cassetteSAM()), 0o644))
	return gtf, sam, dir
}

func TestNormalizeArgs(t *testing.T) {
	root := newRootCmd()
	got := normalizeArgs([]string{"-gtf", "a.gtf", "-bam=b.bam", "-o", "out", "-log-level", "debug", "--threads", "2", "-x"}, root)
	assert.Equal(t, []string{"--gtf", "a.gtf", "--bam=b.bam", "-o", "out", "--log-level", "debug", "--threads", "2", "-x"}, got)
}

func TestRun_MissingArguments(t *testing.T) {
	setup(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-gtf", "genes.gtf"}, &stdout, &stderr)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr.String(), "missing required -bam, -output")
	assert.Contains(t, stderr.String(), "Usage:")
}

func TestRun_InvalidStrandedness(t *testing.T) {
	gtf, sam, dir := setup(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-gtf", gtf, "-bam", sam, "-o", filepath.Join(dir, "psi.tsv"), "--strandedness", "sideways"}, &stdout, &stderr)
	assert.Equal(t, ExitUsage, code)
}

func TestRun_Quantify(t *testing.T) {
	gtf, sam, dir := setup(t)
	out := filepath.Join(dir, "results", "psi.tsv")
	db := filepath.Join(dir, "psi.duckdb")
	var stdout, stderr bytes.Buffer

	code := run([]string{
		"-gtf", gtf, "-bam", sam, "-o", out,
		"--strandedness", "secondstrand", "--db", db, "--log-level", "warn",
	}, &stdout, &stderr)
	require.Equal(t, ExitSuccess, code, stderr.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		"gene\texon\tnum_incl_reads\tnum_excl_reads\tnum_total_reads\tpsi\n"+
			"G\t300-401\t1\t1\t2\t0.5\n",
		string(data))

	store, err := duckdb.Open(db)
	require.NoError(t, err)
	defer store.Close()
	rows, err := store.LookupGene("sample1", "G")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "T1", rows[0].TranscriptID)
}

func TestRun_LogsAlignmentCounts(t *testing.T) {
	gtf, sam, dir := setup(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-gtf", gtf, "-bam", sam, "-o", filepath.Join(dir, "psi.tsv")}, &stdout, &stderr)
	require.Equal(t, ExitSuccess, code, stderr.String())
	assert.Contains(t, stderr.String(), "read alignments")
	assert.Contains(t, stderr.String(), `"records": 4`)
	assert.Contains(t, stderr.String(), `"references": 1`)
}

func TestRun_FirstStrandFindsNothing(t *testing.T) {
	gtf, sam, dir := setup(t)
	out := filepath.Join(dir, "psi.tsv")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-gtf", gtf, "-bam", sam, "-o", out}, &stdout, &stderr)
	require.Equal(t, ExitSuccess, code, stderr.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "gene\texon\tnum_incl_reads\tnum_excl_reads\tnum_total_reads\tpsi\n", string(data))
}

func TestRun_AnnotationCache(t *testing.T) {
	gtf, sam, dir := setup(t)
	cache := filepath.Join(dir, "cache", "genes.gob")
	args := []string{"-gtf", gtf, "-bam", sam, "-o", filepath.Join(dir, "psi.tsv"),
		"--strandedness", "secondstrand", "--annotation-cache", cache}

	var stdout, stderr bytes.Buffer
	require.Equal(t, ExitSuccess, run(args, &stdout, &stderr), stderr.String())
	_, err := os.Stat(cache)
	require.NoError(t, err)

	viper.Reset()
	stderr.Reset()
	require.Equal(t, ExitSuccess, run(args, &stdout, &stderr), stderr.String())
	assert.Contains(t, stderr.String(), "loaded annotation cache")
}

func TestRun_EnvironmentConfig(t *testing.T) {
	gtf, sam, dir := setup(t)
	out := filepath.Join(dir, "psi.tsv")
	t.Setenv("VIBE_PSI_STRANDEDNESS", "secondstrand")
	var stdout, stderr bytes.Buffer

	require.Equal(t, ExitSuccess, run([]string{"-gtf", gtf, "-bam", sam, "-o", out}, &stdout, &stderr), stderr.String())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "G\t300-401")
}

func TestRun_MissingAlignments(t *testing.T) {
	gtf, _, dir := setup(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-gtf", gtf, "-bam", filepath.Join(dir, "none.bam"), "-o", filepath.Join(dir, "psi.tsv")}, &stdout, &stderr)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr.String(), "open alignment file")
}

func TestVersion(t *testing.T) {
	setup(t)
	var stdout, stderr bytes.Buffer
	assert.Equal(t, ExitSuccess, run([]string{"version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "vibe-psi version dev")
}

func TestConfigSetGet(t *testing.T) {
	_, _, dir := setup(t)
	var stdout, stderr bytes.Buffer

	require.Equal(t, ExitSuccess, run([]string{"config", "set", "strandedness", "unstranded"}, &stdout, &stderr), stderr.String())
	data, err := os.ReadFile(filepath.Join(dir, ".vibe-psi.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "strandedness: unstranded")

	viper.Reset()
	stdout.Reset()
	require.Equal(t, ExitSuccess, run([]string{"config", "get", "strandedness"}, &stdout, &stderr), stderr.String())
	assert.Equal(t, "unstranded\n", stdout.String())

	assert.Equal(t, ExitUsage, run([]string{"config", "set", "threads", "zero"}, &stdout, &stderr))
}

func TestConfigSet_Strandedness(t *testing.T) {
	_, _, dir := setup(t)
	var stdout, stderr bytes.Buffer

	assert.Equal(t, ExitUsage, run([]string{"config", "set", "strandedness", "sideways"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unknown strandedness")
	_, err := os.Stat(filepath.Join(dir, ".vibe-psi.yaml"))
	assert.True(t, os.IsNotExist(err))

	require.Equal(t, ExitSuccess, run([]string{"config", "set", "strandedness", "FR-SecondStrand"}, &stdout, &stderr), stderr.String())
	data, err := os.ReadFile(filepath.Join(dir, ".vibe-psi.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "strandedness: secondstrand")
}

func TestSampleName(t *testing.T) {
	assert.Equal(t, "S1", sampleName("/data/S1.bam"))
	assert.Equal(t, "S2", sampleName("S2.sam"))
	assert.Equal(t, "S3.cram", sampleName("S3.cram"))
}
