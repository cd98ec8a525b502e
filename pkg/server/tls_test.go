package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	relaytls "relay-hq/gemini/pkg/security/tls"
)

func TestServer_StartTLS(t *testing.T) {
	kp, err := relaytls.GenerateSelfSigned(relaytls.GenerateOptions{Hosts: []string{"127.0.0.1"}})
	if err != nil {
		t.Fatalf("GenerateSelfSigned() error = %v", err)
	}
	certPath, keyPath, err := relaytls.WriteKeyPair(t.TempDir(), kp)
	if err != nil {
		t.Fatalf("WriteKeyPair() error = %v", err)
	}

	srv := newTestServer(t, "AIzaServerTestKey")
	srv.config.Server.TLS.Enabled = true
	srv.config.Server.TLS.CertFile = certPath
	srv.config.Server.TLS.KeyFile = keyPath

	if srv.Scheme() != "https" {
		t.Errorf("Scheme() = %q, want https", srv.Scheme())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		t.Fatalf("Start() returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(kp.CertPEM)
	client := &http.Client{
		Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool}},
		Timeout:   5 * time.Second,
	}

	resp, err := client.Post("https://"+srv.Addr()+"/", "application/json", strings.NewReader(`{"prompt":"hello"}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.TLS == nil || resp.TLS.Version < tls.VersionTLS13 {
		t.Errorf("expected a TLS 1.3 connection, got %+v", resp.TLS)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_StartTLS_MissingCertificate(t *testing.T) {
	srv := newTestServer(t, "k")
	srv.config.Server.TLS.Enabled = true
	srv.config.Server.TLS.CertFile = filepath.Join(t.TempDir(), "missing.pem")
	srv.config.Server.TLS.KeyFile = filepath.Join(t.TempDir(), "missing-key.pem")

	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("expected certificate error")
	}
	if srv.IsRunning() {
		t.Error("server must not be running after a certificate error")
	}
	if srv.Addr() != "" {
		t.Error("server must not listen after a certificate error")
	}
}
