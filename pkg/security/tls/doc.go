// Package tls provides HTTPS support for the standalone relay server.
//
// The server presents a certificate loaded from PEM files. A
// CertificateReloader checks the files for changes and swaps the
// certificate in place, so renewals take effect on new connections
// without a restart:
//
//	reloader := tls.NewCertificateReloader(cfg.CertFile, cfg.KeyFile, cfg.ReloadInterval)
//	if err := reloader.Start(ctx); err != nil {
//		return err
//	}
//	tlsConfig, err := tls.ServerConfig(cfg, reloader)
//
// Only TLS 1.2 and 1.3 are accepted. GenerateSelfSigned creates
// development certificates for the "certs generate" command.
package tls
