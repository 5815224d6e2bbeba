package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	embollama "github.com/vidyalab/vidya/embedding/ollama"
	"github.com/vidyalab/vidya/ingest"
)

var (
	exportOutput   string
	exportClass    int
	exportSubject  string
	exportLanguage string
	exportLenient  bool
	exportRate     float64
)

var exportCmd = &cobra.Command{
	Use:   "export [corpus.jsonl]",
	Short: "Build a bundle from a JSONL corpus",
	Long: `Parses a JSONL corpus, embeds every chunk through the configured
embedding service, and exports an immutable bundle directory. The build
is all-or-nothing: a failed export leaves no partial bundle behind.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "bundle directory to create (required)")
	exportCmd.Flags().IntVar(&exportClass, "class", 0, "default class for records that omit it")
	exportCmd.Flags().StringVar(&exportSubject, "subject", "", "default subject for records that omit it")
	exportCmd.Flags().StringVar(&exportLanguage, "language", "", "default language for records that omit it")
	exportCmd.Flags().BoolVar(&exportLenient, "lenient", false, "skip invalid records instead of failing the build")
	exportCmd.Flags().Float64Var(&exportRate, "rate", 0, "max embedding calls per second (0 = unlimited)")
	exportCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	embedder := embollama.New(func(o *embollama.Options) {
		o.BaseURL = cfg.Embedding.BaseURL
		o.Model = cfg.Embedding.Model
		o.Timeout = cfg.Embedding.Timeout.Std()
	})

	pipeline := ingest.NewPipeline(embedder, func(o *ingest.PipelineOptions) {
		o.Logger = log.Logger
		if exportRate > 0 {
			o.Limit = rate.NewLimiter(rate.Limit(exportRate), 1)
		}
		o.Reader = []func(r *ingest.ReaderOptions){func(r *ingest.ReaderOptions) {
			if exportLenient {
				r.Mode = ingest.Lenient
			}
			r.DefaultClass = exportClass
			r.DefaultSubject = exportSubject
			r.DefaultLanguage = exportLanguage
		}}
	})

	report, err := pipeline.Run(cmd.Context(), args[0], exportOutput)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	for _, le := range report.Skipped {
		cmd.PrintErrf("skipped %v\n", le)
	}
	cmd.Printf("exported %d chunks to %s (run %s)\n", report.Ingested, report.BundleDir, report.RunID)
	return nil
}
