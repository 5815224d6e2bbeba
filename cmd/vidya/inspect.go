package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/vidyalab/vidya/bundle"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [bundle-dir]",
	Short: "Validate a bundle and print its manifest",
	Long: `Opens the bundle with full validation (artifact presence, checksums,
row alignment) and prints its manifest. A bundle this command accepts is
one the tutor can serve.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output manifest as JSON")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	b, err := bundle.Load(args[0])
	if err != nil {
		return err
	}

	if inspectJSON {
		data, err := json.MarshalIndent(b.Manifest, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	m := b.Manifest
	cmd.Printf("bundle:     %s\n", b.Dir)
	cmd.Printf("class:      %d\n", m.Class)
	cmd.Printf("subject:    %s\n", m.Subject)
	cmd.Printf("chapter:    %s\n", m.Chapter)
	cmd.Printf("chunks:     %d\n", m.ChunkCount)
	cmd.Printf("dimension:  %d\n", m.EmbeddingDim)
	cmd.Printf("model:      %s\n", b.Model.Name)
	cmd.Printf("format:     %s\n", m.FormatVersion)
	cmd.Printf("created:    %s\n", m.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if len(m.DegenerateRows) > 0 {
		cmd.Printf("degenerate: %d rows\n", len(m.DegenerateRows))
	}
	return nil
}
