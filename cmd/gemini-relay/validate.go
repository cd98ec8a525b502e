package main

import (
	"context"
	"fmt"
	"strings"

	"relay-hq/gemini/pkg/cli"
	"relay-hq/gemini/pkg/config"
	"relay-hq/gemini/pkg/security/secrets"

	"github.com/spf13/cobra"
)

var validateFlags struct {
	output            string
	requireCredential bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load the configuration file and environment overrides, validate them, and
report whether the Gemini API key can be resolved. The key itself is never
printed.

Examples:
  # Validate environment configuration
  gemini-relay validate

  # Validate a config file and fail if the key is missing
  gemini-relay validate --config config.yaml --require-credential

  # Machine-readable report
  gemini-relay validate --output json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", "text", "output format: text, json, yaml")
	validateCmd.Flags().BoolVar(&validateFlags.requireCredential, "require-credential", false, "fail when GEMINI_API_KEY cannot be resolved")
}

// validationReport is the result of the validate command.
type validationReport struct {
	ConfigFile string   `json:"config_file" yaml:"config_file"`
	Valid      bool     `json:"valid" yaml:"valid"`
	Errors     []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Credential string   `json:"credential,omitempty" yaml:"credential,omitempty"`
}

func (r validationReport) String() string {
	var sb strings.Builder
	source := r.ConfigFile
	if source == "" {
		source = "(environment only)"
	}
	fmt.Fprintf(&sb, "Configuration: %s\n", source)

	if r.Valid {
		sb.WriteString("✓ Configuration valid\n")
	} else {
		sb.WriteString("✗ Configuration invalid\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "  - %s\n", e)
		}
	}
	if r.Credential != "" {
		fmt.Fprintf(&sb, "Credential: %s", r.Credential)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(validateFlags.output)
	if err != nil {
		return err
	}

	report := validationReport{ConfigFile: cfgFile, Valid: true}

	cfg, loadErr := config.LoadConfigWithEnvOverrides(cfgFile)
	if loadErr != nil {
		report.Valid = false
		if fieldErrs := cli.ConfigErrors(loadErr); fieldErrs != nil {
			for _, fe := range fieldErrs {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
			}
		} else {
			report.Errors = append(report.Errors, loadErr.Error())
		}
	} else {
		report.Credential = credentialStatus(cmd.Context(), cfg.Secrets)
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if loadErr != nil {
		return cli.NewCommandError("validate", loadErr)
	}
	if validateFlags.requireCredential && report.Credential != "present" {
		return cli.NewCommandError("validate", cli.NewConfigError("GEMINI_API_KEY", report.Credential))
	}
	return nil
}

func credentialStatus(ctx context.Context, cfg config.SecretsConfig) string {
	if ctx == nil {
		ctx = context.Background()
	}

	// Watching is pointless for a one-shot check.
	cfg.Watch = false
	mgr, err := secrets.NewManagerFromConfig(cfg)
	if err != nil {
		return "error: " + err.Error()
	}
	defer mgr.Close()

	if _, err := mgr.GetSecret(ctx, secrets.GeminiAPIKey); err != nil {
		return "missing"
	}
	return "present"
}
