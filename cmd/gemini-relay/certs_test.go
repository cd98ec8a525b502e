package main

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertsGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")

	out, err := executeCommand(t, "certs", "generate", "--host", "localhost,127.0.0.1", "--output", dir)
	require.NoError(t, err)

	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	assert.Contains(t, out, "✓ Certificate generated: "+certPath)
	assert.Contains(t, out, "cert_file:")

	_, err = tls.LoadX509KeyPair(certPath, keyPath)
	require.NoError(t, err)

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCertsGenerate_InvalidFlags(t *testing.T) {
	dir := t.TempDir()

	_, err := executeCommand(t, "certs", "generate", "--key-size", "1024", "--output", dir)
	assert.Error(t, err)

	_, err = executeCommand(t, "certs", "generate", "--validity", "0", "--output", dir)
	assert.Error(t, err)
}
