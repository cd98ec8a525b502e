/*
Package cli provides command-line helpers for the gemini-relay binary.

Output Formatting:

Commands that print results accept --output text|json|yaml:

	format, err := cli.ParseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)

Errors and Exit Codes:

ConfigError and CommandError wrap failures for display; ExitCode maps
them to the process exit status (2 for configuration errors, 1 otherwise).

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
