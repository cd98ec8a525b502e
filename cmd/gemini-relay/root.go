package main

import (
	"fmt"
	"os"

	"relay-hq/gemini/pkg/cli"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "gemini-relay",
	Short: "Gemini relay - server-side proxy for the Gemini API",
	Long: `gemini-relay forwards a text prompt from a client to the Gemini
generateContent API, injecting a server-held API key, and returns a small
JSON envelope:

  {"ok": true,  "result": "<generated text>", "raw": {...}}
  {"ok": false, "error": "<message>"}

The API key is read from GEMINI_API_KEY (or a secrets directory) on every
request and is never sent to the client.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a status derived from the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (environment only when empty)")
}
