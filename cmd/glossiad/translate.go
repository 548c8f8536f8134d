package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/glossia"
	"github.com/ZaguanLabs/glossia/config"
)

var (
	translateTo     string
	translateFrom   string
	translateTone   string
	translateDomain string
	translateOut    string
)

var translateCmd = &cobra.Command{
	Use:   "translate [file]",
	Short: "Translate a file or stdin in one shot",
	Long: `Translate reads text from a file (or stdin when no file is given),
translates it in blocking mode using the configured model, and writes
the result to stdout or --output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranslate,
}

func init() {
	translateCmd.Flags().StringVar(&translateTo, "to", "", "target language code (required)")
	translateCmd.Flags().StringVar(&translateFrom, "from", "", "source language code (default: auto-detect)")
	translateCmd.Flags().StringVar(&translateTone, "tone", "", "tone: neutral, formal, informal, technical")
	translateCmd.Flags().StringVar(&translateDomain, "domain", "", "domain-specific terminology hint")
	translateCmd.Flags().StringVarP(&translateOut, "output", "o", "", "output file (default: stdout)")
	_ = translateCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(translateCmd)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	var input []byte
	if len(args) == 0 {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	} else {
		input, err = os.ReadFile(args[0]) // #nosec G304 - CLI tool reads user-specified files
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
	}

	target, err := glossia.ParseLanguage(translateTo)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	source, err := glossia.ParseLanguage(translateFrom)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}

	tone := glossia.Tone(strings.ToLower(translateTone))
	if !tone.Valid() {
		return fmt.Errorf("--tone: unknown tone %q", translateTone)
	}

	svc := glossia.NewService(buildCompleter(cfg),
		glossia.WithChunkBudget(cfg.Translate.ChunkBudget),
		glossia.WithWorkers(cfg.Translate.Workers),
		glossia.WithContextWords(cfg.Translate.ContextWords),
		glossia.WithCallTimeout(cfg.Translate.CallTimeout),
		glossia.WithRetryConfig(retryConfig(cfg)),
	)

	out, detected, err := svc.Translate(cmd.Context(), string(input), glossia.TranslationConfig{
		TargetLanguage: target,
		SourceLanguage: source,
		Domain:         translateDomain,
		Tone:           tone,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if translateOut != "" {
		f, err := os.Create(translateOut)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := io.WriteString(w, out); err != nil {
		return err
	}
	if translateOut != "" {
		cmd.PrintErrf("translated %s → %s\n", detected.Name(), target.Name())
	}
	return nil
}
