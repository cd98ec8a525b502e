package tls

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// pairStamp identifies one on-disk version of the certificate/key pair.
type pairStamp struct {
	cert, key time.Time
}

func (p pairStamp) newerThan(o pairStamp) bool {
	return p.cert.After(o.cert) || p.key.After(o.key)
}

type loadedPair struct {
	cert  *tls.Certificate
	stamp pairStamp
}

// CertificateReloader serves the relay's TLS certificate and swaps in a
// renewed pair when the files change on disk. Handshakes always see the
// last pair that loaded and validated.
type CertificateReloader struct {
	certFile string
	keyFile  string
	interval time.Duration
	logger   *slog.Logger

	current atomic.Pointer[loadedPair]
}

// NewCertificateReloader polls certFile and keyFile every interval once
// started. A zero interval loads the pair once and never polls.
func NewCertificateReloader(certFile, keyFile string, interval time.Duration) *CertificateReloader {
	return &CertificateReloader{
		certFile: certFile,
		keyFile:  keyFile,
		interval: interval,
		logger:   slog.Default().With("component", "tls", "cert_file", certFile),
	}
}

// Start loads the pair, failing if it is unreadable or expired, and then
// polls for changes until ctx is done.
func (r *CertificateReloader) Start(ctx context.Context) error {
	stamp, err := r.stat()
	if err != nil {
		return err
	}
	if err := r.load(stamp); err != nil {
		return err
	}
	if r.interval > 0 {
		go r.poll(ctx)
	}
	return nil
}

func (r *CertificateReloader) poll(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// failed remembers a version that did not load so it is reported once.
	var failed pairStamp
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		stamp, err := r.stat()
		if err != nil || !stamp.newerThan(r.current.Load().stamp) || stamp == failed {
			continue
		}
		if err := r.load(stamp); err != nil {
			failed = stamp
			r.logger.Error("certificate reload failed, keeping previous certificate", "error", err)
			continue
		}
		r.logger.Info("certificate reloaded")
	}
}

func (r *CertificateReloader) stat() (pairStamp, error) {
	ci, err := os.Stat(r.certFile)
	if err != nil {
		return pairStamp{}, fmt.Errorf("certificate file: %w", err)
	}
	ki, err := os.Stat(r.keyFile)
	if err != nil {
		return pairStamp{}, fmt.Errorf("key file: %w", err)
	}
	return pairStamp{cert: ci.ModTime(), key: ki.ModTime()}, nil
}

func (r *CertificateReloader) load(stamp pairStamp) error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}
	leaf, err := leafOf(&cert)
	if err != nil {
		return err
	}
	if err := ValidateX509Certificate(leaf); err != nil {
		return fmt.Errorf("certificate %q: %w", leaf.Subject.CommonName, err)
	}
	cert.Leaf = leaf

	r.current.Store(&loadedPair{cert: &cert, stamp: stamp})

	days, warning := CheckCertificateExpiration(leaf)
	attrs := []any{
		"subject", leaf.Subject.CommonName,
		"expires_at", leaf.NotAfter.Format(time.RFC3339),
		"expires_in_days", days,
	}
	if warning != "" {
		r.logger.Warn(warning, attrs...)
	} else {
		r.logger.Info("certificate loaded", append(attrs, "issuer", leaf.Issuer.CommonName)...)
	}
	return nil
}

// GetCertificate returns the active certificate, or nil before Start succeeds.
func (r *CertificateReloader) GetCertificate() *tls.Certificate {
	if p := r.current.Load(); p != nil {
		return p.cert
	}
	return nil
}

// GetCertificateFunc adapts the reloader to tls.Config.GetCertificate.
func (r *CertificateReloader) GetCertificateFunc() func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		if cert := r.GetCertificate(); cert != nil {
			return cert, nil
		}
		return nil, errors.New("tls: no certificate loaded")
	}
}
