package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vidyalab/vidya"
	"github.com/vidyalab/vidya/bundle"
	embollama "github.com/vidyalab/vidya/embedding/ollama"
	"github.com/vidyalab/vidya/grounding"
	llmollama "github.com/vidyalab/vidya/llm/ollama"
)

var (
	askBundle string
	askMode   string
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question against a bundle",
	Long: `Runs the full cycle: embed, retrieve, prompt, generate, validate.
The output is always a grounded answer with its sources or an explicit
refusal; raw model output that fails citation checks is never shown.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askBundle, "bundle", "b", "", "bundle directory (defaults to config bundle_dir)")
	askCmd.Flags().StringVarP(&askMode, "mode", "m", "", "answer mode: student or teacher (defaults to config mode)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := askBundle
	if dir == "" {
		dir = cfg.BundleDir
	}
	if dir == "" {
		return fmt.Errorf("no bundle directory: pass --bundle or set bundle_dir in config")
	}

	mode := grounding.ModeStudent
	modeName := askMode
	if modeName == "" {
		modeName = cfg.Mode
	}
	switch modeName {
	case "", "student":
	case "teacher":
		mode = grounding.ModeTeacher
	default:
		return fmt.Errorf("unknown mode %q: want student or teacher", modeName)
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
	generator := llmollama.New(func(o *llmollama.Options) {
		o.BaseURL = cfg.Generator.BaseURL
		o.Model = cfg.Generator.Model
		o.Timeout = cfg.Generator.Timeout.Std()
	})

	tutor := vidya.NewTutor(b, embedder, generator, func(o *vidya.Options) {
		o.K = cfg.K
		o.Threshold = cfg.Threshold
		o.Mode = mode
		o.Logger = newLogger()
	})

	answer := tutor.Ask(cmd.Context(), args[0])

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Printf("\nsources: %s\n", strings.Join(answer.Sources, ", "))
	}
	return nil
}
