package smtp

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// CertExpiryWarning is how close to expiry a STARTTLS certificate gets logged
const CertExpiryWarning = 14 * 24 * time.Hour

// LoadTLSConfig reads a PEM certificate chain and key for STARTTLS and
// returns the leaf certificate's expiry.
func LoadTLSConfig(certPath, keyPath string) (*tls.Config, time.Time, error) {
	if certPath == "" || keyPath == "" {
		return nil, time.Time{}, errors.New("certificate and key paths are both required")
	}

	pair, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load certificate: %w", err)
	}

	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse certificate: %w", err)
	}
	pair.Leaf = leaf

	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}, leaf.NotAfter, nil
}

// CheckExpiry logs when a certificate has expired or is about to
func CheckExpiry(logger *slog.Logger, expiresAt, now time.Time) {
	remaining := expiresAt.Sub(now)
	switch {
	case remaining <= 0:
		logger.Error("STARTTLS certificate has expired", slog.Time("expires_at", expiresAt))
	case remaining < CertExpiryWarning:
		logger.Warn("STARTTLS certificate expires soon",
			slog.Time("expires_at", expiresAt),
			slog.Duration("remaining", remaining.Round(time.Hour)),
		)
	}
}
