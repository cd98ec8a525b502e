/*
Package security groups the relay's transport security and credential
handling.

# TLS

Package tls builds the server's *tls.Config from configuration, reloads
rotated certificates from disk and generates self-signed certificates for
development:

	reloader := tls.NewCertificateReloader(cfg.CertFile, cfg.KeyFile, time.Minute)
	tlsConfig, err := tls.ServerConfig(cfg, reloader)

# Secrets

Package secrets resolves the Gemini API key from the environment or a
mounted secrets directory, falling back in provider order:

	manager, err := secrets.NewManagerFromConfig(cfg.Secrets)
	if err != nil {
		return err
	}
	defer manager.Close()

	apiKey, err := manager.GetSecret(ctx, secrets.GeminiAPIKey)
*/
package security
