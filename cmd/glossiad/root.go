package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/glossia"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "glossiad",
	Short: "AI-powered translation backend",
	Long: `Glossiad translates text and documents through an OpenAI-compatible
language model, with chunked dispatch for large inputs, streamed
reassembly, caching, document conversion and audio transcription.

Use "glossiad serve" to run the HTTP server, or "glossiad translate"
for a one-shot translation from the command line.`,
	Version:      glossia.FullVersion(),
	SilenceUsage: true,
}

// Execute runs the root command and exits nonzero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./glossia.yaml, /etc/glossia/glossia.yaml)")
}
