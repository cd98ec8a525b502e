package tls

import (
	"crypto/tls"
	"fmt"

	"relay-hq/gemini/pkg/config"
)

// ParseMinVersion converts a configured minimum version to a crypto/tls
// constant. TLS 1.0 and 1.1 are not supported.
func ParseMinVersion(v string) (uint16, error) {
	switch v {
	case "1.2":
		return tls.VersionTLS12, nil
	case "1.3", "":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q (must be 1.2 or 1.3)", v)
	}
}

// ServerConfig builds the server's crypto/tls configuration. Certificates
// are served from reloader, so files replaced on disk take effect for new
// connections without a restart. Go's default cipher suites are used.
func ServerConfig(cfg config.TLSConfig, reloader *CertificateReloader) (*tls.Config, error) {
	minVersion, err := ParseMinVersion(cfg.MinVersion)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		MinVersion:     minVersion,
		GetCertificate: reloader.GetCertificateFunc(),
		NextProtos:     []string{"h2", "http/1.1"},
	}, nil
}
