package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vidyalab/vidya/bundle"
	embollama "github.com/vidyalab/vidya/embedding/ollama"
	"github.com/vidyalab/vidya/retrieval"
)

var (
	retrieveBundle string
	retrieveK      int
	retrieveJSON   bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [question]",
	Short: "Rank bundle chunks against a question",
	Long: `Embeds the question and prints the top-k chunks with their similarity
scores, or the refusal status when nothing clears the confidence gate.
Useful for corpus debugging without invoking the generator.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().StringVarP(&retrieveBundle, "bundle", "b", "", "bundle directory (defaults to config bundle_dir)")
	retrieveCmd.Flags().IntVarP(&retrieveK, "k", "k", 0, "number of chunks to return (defaults to config k)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := retrieveBundle
	if dir == "" {
		dir = cfg.BundleDir
	}
	if dir == "" {
		return fmt.Errorf("no bundle directory: pass --bundle or set bundle_dir in config")
	}
	k := retrieveK
	if k <= 0 {
		k = cfg.K
	}

	b, err := bundle.Load(dir)
	if err != nil {
		return err
	}

	embedder := embollama.New(func(o *embollama.Options) {
		o.BaseURL = cfg.Embedding.BaseURL
		o.Model = cfg.Embedding.Model
		o.Timeout = cfg.Embedding.Timeout.Std()
	})
	vec, err := embedder.Embed(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("embed question: %w", err)
	}

	engine := retrieval.New(b, retrieval.WithThreshold(cfg.Threshold))
	result, err := engine.Retrieve(vec, k)
	if err != nil {
		return err
	}

	if retrieveJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if result.Status == retrieval.StatusRefuse {
		cmd.Println("status: refuse (no chunk clears the confidence gate)")
		return nil
	}
	for _, item := range result.Items {
		cmd.Printf("%2d  %.4f  %s\n    %s\n", item.Rank, item.Score, item.ID, item.Text)
	}
	return nil
}
