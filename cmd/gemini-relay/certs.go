package main

import (
	"fmt"
	"strings"
	"time"

	relaytls "relay-hq/gemini/pkg/security/tls"

	"github.com/spf13/cobra"
)

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "TLS certificate helpers",
	Long:  `Helpers for serving the relay over HTTPS.`,
}

var generateFlags struct {
	hosts    string
	org      string
	validity int
	keySize  int
	output   string
}

var certsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a self-signed certificate",
	Long: `Generate a self-signed TLS certificate and private key for local
development. The private key is written with 0600 permissions.

Self-signed certificates are for testing only. In production use a
certificate from a trusted authority; the server reloads it from disk
when it is renewed.

Examples:
  # Certificate for localhost
  gemini-relay certs generate --host localhost

  # Several names and addresses
  gemini-relay certs generate --host "localhost,127.0.0.1,relay.local" --output certs/`,
	RunE: generateCertificate,
}

func init() {
	rootCmd.AddCommand(certsCmd)
	certsCmd.AddCommand(certsGenerateCmd)

	certsGenerateCmd.Flags().StringVar(&generateFlags.hosts, "host", "localhost", "comma-separated hostnames and IPs")
	certsGenerateCmd.Flags().StringVar(&generateFlags.org, "org", "Gemini Relay", "organization name")
	certsGenerateCmd.Flags().IntVar(&generateFlags.validity, "validity", 365, "validity in days")
	certsGenerateCmd.Flags().IntVar(&generateFlags.keySize, "key-size", 2048, "RSA key size (2048, 3072, 4096)")
	certsGenerateCmd.Flags().StringVarP(&generateFlags.output, "output", "o", "certs", "output directory")
}

func generateCertificate(cmd *cobra.Command, args []string) error {
	if generateFlags.validity <= 0 {
		return fmt.Errorf("invalid validity: %d days", generateFlags.validity)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generating %d-bit RSA self-signed certificate...\n", generateFlags.keySize)

	kp, err := relaytls.GenerateSelfSigned(relaytls.GenerateOptions{
		Hosts:        strings.Split(generateFlags.hosts, ","),
		Organization: generateFlags.org,
		Validity:     time.Duration(generateFlags.validity) * 24 * time.Hour,
		KeySize:      generateFlags.keySize,
	})
	if err != nil {
		return err
	}

	certPath, keyPath, err := relaytls.WriteKeyPair(generateFlags.output, kp)
	if err != nil {
		return err
	}

	if len(kp.DNSNames) > 0 {
		fmt.Fprintf(out, "  DNS Names: %v\n", kp.DNSNames)
	}
	if len(kp.IPs) > 0 {
		fmt.Fprintf(out, "  IP Addresses: %v\n", kp.IPs)
	}
	fmt.Fprintf(out, "  Not After: %s\n", kp.NotAfter.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "✓ Certificate generated: %s\n", certPath)
	fmt.Fprintf(out, "✓ Private key generated: %s\n", keyPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Self-signed certificates are for testing only. To use it, add to config.yaml:")
	fmt.Fprintln(out, "server:")
	fmt.Fprintln(out, "  tls:")
	fmt.Fprintln(out, "    enabled: true")
	fmt.Fprintf(out, "    cert_file: %q\n", certPath)
	fmt.Fprintf(out, "    key_file: %q\n", keyPath)
	return nil
}
