package tls

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File names written by WriteKeyPair.
const (
	CertFileName = "cert.pem"
	KeyFileName  = "key.pem"
)

// GenerateOptions configures a self-signed certificate.
type GenerateOptions struct {
	// Hosts are DNS names or IP addresses. The first one becomes the
	// common name. Required.
	Hosts []string

	// Organization defaults to "Gemini Relay".
	Organization string

	// Validity defaults to one year.
	Validity time.Duration

	// KeySize is the RSA key size: 2048 (default), 3072 or 4096.
	KeySize int
}

// KeyPair is a PEM-encoded certificate and private key.
type KeyPair struct {
	CertPEM   []byte
	KeyPEM    []byte
	NotBefore time.Time
	NotAfter  time.Time
	DNSNames  []string
	IPs       []net.IP
}

// GenerateSelfSigned creates a self-signed server certificate for local
// development. It must not be used in production.
func GenerateSelfSigned(opts GenerateOptions) (*KeyPair, error) {
	if opts.KeySize == 0 {
		opts.KeySize = 2048
	}
	if opts.KeySize != 2048 && opts.KeySize != 3072 && opts.KeySize != 4096 {
		return nil, fmt.Errorf("invalid key size: %d (must be 2048, 3072, or 4096)", opts.KeySize)
	}
	if opts.Organization == "" {
		opts.Organization = "Gemini Relay"
	}
	if opts.Validity <= 0 {
		opts.Validity = 365 * 24 * time.Hour
	}

	var hosts, dnsNames []string
	var ips []net.IP
	for _, h := range opts.Hosts {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		hosts = append(hosts, h)
		if ip := net.ParseIP(h); ip != nil {
			ips = append(ips, ip)
		} else {
			dnsNames = append(dnsNames, h)
		}
	}
	if len(hosts) == 0 {
		return nil, fmt.Errorf("at least one host is required")
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, opts.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	notBefore := time.Now().Add(-time.Minute)
	notAfter := notBefore.Add(opts.Validity)

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{opts.Organization},
			CommonName:   hosts[0],
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		IPAddresses:           ips,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	return &KeyPair{
		CertPEM:   pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPEM:    pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)}),
		NotBefore: notBefore,
		NotAfter:  notAfter,
		DNSNames:  dnsNames,
		IPs:       ips,
	}, nil
}

// WriteKeyPair writes kp to dir as cert.pem (0644) and key.pem (0600),
// creating dir if needed.
func WriteKeyPair(dir string, kp *KeyPair) (certPath, keyPath string, err error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	certPath = filepath.Join(dir, CertFileName)
	if err := os.WriteFile(certPath, kp.CertPEM, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write certificate: %w", err)
	}

	keyPath = filepath.Join(dir, KeyFileName)
	if err := os.WriteFile(keyPath, kp.KeyPEM, 0o600); err != nil {
		return "", "", fmt.Errorf("failed to write private key: %w", err)
	}

	return certPath, keyPath, nil
}
