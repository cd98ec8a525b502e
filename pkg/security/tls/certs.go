package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"
)

// ExpiryWarningDays is the remaining validity below which a loaded
// certificate is logged as expiring soon.
const ExpiryWarningDays = 30

// leafOf returns the parsed first certificate of the chain, reusing
// cert.Leaf when the loader already populated it.
func leafOf(cert *tls.Certificate) (*x509.Certificate, error) {
	switch {
	case cert == nil:
		return nil, errors.New("no certificate")
	case cert.Leaf != nil:
		return cert.Leaf, nil
	case len(cert.Certificate) == 0:
		return nil, errors.New("empty certificate chain")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parse leaf: %w", err)
	}
	return leaf, nil
}

// ValidateCertificate rejects a chain whose leaf is outside its validity window.
func ValidateCertificate(cert *tls.Certificate) error {
	leaf, err := leafOf(cert)
	if err != nil {
		return err
	}
	return ValidateX509Certificate(leaf)
}

func ValidateX509Certificate(cert *x509.Certificate) error {
	switch now := time.Now(); {
	case now.Before(cert.NotBefore):
		return fmt.Errorf("not valid until %s", cert.NotBefore.Format(time.RFC3339))
	case now.After(cert.NotAfter):
		return fmt.Errorf("expired at %s", cert.NotAfter.Format(time.RFC3339))
	}
	return nil
}

// CheckCertificateExpiration reports whole days of validity left, plus a
// warning once fewer than ExpiryWarningDays remain.
func CheckCertificateExpiration(cert *x509.Certificate) (days int, warning string) {
	days = int(time.Until(cert.NotAfter) / (24 * time.Hour))
	if days < ExpiryWarningDays {
		warning = fmt.Sprintf("certificate %q expires in %d days (%s)",
			cert.Subject.CommonName, days, cert.NotAfter.Format(time.DateOnly))
	}
	return days, warning
}
