// Package main provides the vibe-psi command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/vibe-psi/internal/annotation"
	"github.com/inodb/vibe-psi/internal/bam"
	"github.com/inodb/vibe-psi/internal/duckdb"
	"github.com/inodb/vibe-psi/internal/output"
	"github.com/inodb/vibe-psi/internal/splice"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// usageError is returned for invalid invocations; the usage text is printed.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(normalizeArgs(args, root))
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, root.UsageString())
		return ExitUsage
	}
	return ExitError
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "vibe-psi -gtf <annotation.gtf> -bam <alignments.bam> -o <psi.tsv>",
		Short: "Quantify exon skipping from paired-end RNA-seq alignments",
		Long: `Computes Percent-Spliced-In (PSI) values for every annotated exon that some
isoform of its gene skips, from a coordinate-sorted paired-end BAM or SAM.`,
		Example: `  vibe-psi -gtf gencode.v43.annotation.gtf.gz -bam sample.bam -o out/psi.tsv
  vibe-psi --gtf genes.gtf --bam sample.sam --strandedness unstranded -o psi.tsv
  vibe-psi -gtf genes.gtf -bam sample.bam -o psi.tsv --db psi.duckdb --sample S1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuantify(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.vibe-psi.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	f := cmd.Flags()
	f.String("gtf", "", "Gene annotation in GTF format (plain or .gz)")
	f.String("bam", "", "Coordinate-sorted alignments (BAM, or SAM with .sam)")
	f.StringP("output", "o", "", "Output TSV file ('-' for stdout)")
	f.String("strandedness", "firststrand", "Library type: firststrand, secondstrand, unstranded")
	f.Int("threads", 1, "BAM decompression threads")
	f.String("db", "", "DuckDB database to store results in")
	f.String("sample", "", "Sample name for stored results (default: BAM file name)")
	f.String("annotation-cache", "", "Gob cache of the parsed annotation")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-psi version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// normalizeArgs rewrites single-dash long flags such as -gtf to --gtf.
func normalizeArgs(args []string, cmd *cobra.Command) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a
		if a == "--" {
			copy(out[i:], args[i:])
			break
		}
		if len(a) < 3 || a[0] != '-' || a[1] == '-' {
			continue
		}
		name, _, _ := strings.Cut(a[1:], "=")
		if cmd.Flags().Lookup(name) != nil || cmd.PersistentFlags().Lookup(name) != nil {
			out[i] = "-" + a
		}
	}
	return out
}

func runQuantify(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	gtfPath := viper.GetString("gtf")
	bamPath := viper.GetString("bam")
	outPath := viper.GetString("output")
	var missing []string
	for _, kv := range [][2]string{{"gtf", gtfPath}, {"bam", bamPath}, {"output", outPath}} {
		if kv[1] == "" {
			missing = append(missing, "-"+kv[0])
		}
	}
	if len(missing) > 0 {
		return &usageError{msg: "missing required " + strings.Join(missing, ", ")}
	}

	lib, err := splice.ParseLibrary(viper.GetString("strandedness"))
	if err != nil {
		return &usageError{msg: err.Error()}
	}

	logger, err := newLogger(viper.GetString("log-level"), cmd.ErrOrStderr())
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	defer logger.Sync() //nolint:errcheck

	genes, err := loadGenes(gtfPath, viper.GetString("annotation-cache"), logger)
	if err != nil {
		return err
	}

	reader, err := bam.NewReader(bamPath, max(1, viper.GetInt("threads")))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("check that the alignment path is correct", zap.String("bam", bamPath))
		}
		return err
	}
	defer reader.Close()

	engine := splice.NewEngine(genes, lib)
	engine.SetLogger(logger)
	logger.Info("quantifying",
		zap.String("bam", bamPath),
		zap.Stringer("strandedness", lib),
		zap.Int("genes", len(genes)))

	results, err := engine.Run(reader)
	if err != nil {
		return err
	}
	logger.Info("read alignments",
		zap.Int("records", reader.Records()),
		zap.Int("references", len(reader.Header().Refs())))

	if err := writeResults(outPath, results); err != nil {
		return err
	}
	logger.Info("wrote results", zap.String("output", outPath), zap.Int("rows", len(results)))

	if dbPath := viper.GetString("db"); dbPath != "" {
		sample := viper.GetString("sample")
		if sample == "" {
			sample = sampleName(bamPath)
		}
		if err := storeResults(dbPath, sample, results); err != nil {
			return err
		}
		logger.Info("stored results", zap.String("db", dbPath), zap.String("sample", sample))
	}

	return nil
}

// loadGenes parses the GTF, going through the gob cache when one is configured.
func loadGenes(gtfPath, cachePath string, logger *zap.Logger) ([]*annotation.Gene, error) {
	var ac *duckdb.AnnotationCache
	var fp duckdb.FileFingerprint
	if cachePath != "" {
		var err error
		fp, err = duckdb.StatFile(gtfPath)
		if err != nil {
			return nil, fmt.Errorf("stat annotation: %w", err)
		}
		ac = duckdb.NewAnnotationCache(cachePath)
		if ac.Valid(fp) {
			genes, err := ac.Load()
			if err == nil {
				logger.Info("loaded annotation cache", zap.String("path", cachePath), zap.Int("genes", len(genes)))
				return genes, nil
			}
			logger.Warn("ignoring annotation cache", zap.String("path", cachePath), zap.Error(err))
		}
	}

	loader := annotation.NewGTFLoader(gtfPath)
	loader.SetLogger(logger)
	genes, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if ac != nil {
		if err := ac.Write(genes, fp); err != nil {
			logger.Warn("could not write annotation cache", zap.String("path", cachePath), zap.Error(err))
		}
	}
	return genes, nil
}

func writeResults(path string, results []splice.Result) error {
	f, err := output.Create(path)
	if err != nil {
		return err
	}
	if err := output.NewTabWriter(f).WriteAll(results); err != nil {
		f.Close()
		return fmt.Errorf("write results: %w", err)
	}
	return f.Close()
}

func storeResults(dbPath, sample string, results []splice.Result) error {
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.WritePSIResults(sample, results)
}

// sampleName derives a sample name from an alignment file name.
func sampleName(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".bam", ".sam"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// initConfig reads the config file and VIBE_PSI_* environment variables.
func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".vibe-psi")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VIBE_PSI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || (cfgFile == "" && os.IsNotExist(err)) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}
