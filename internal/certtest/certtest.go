// Package certtest generates throwaway TLS material for tests. Real
// deployments point the launcher at certificate files managed outside this
// repository; nothing here is used at runtime.
package certtest

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"
)

// Options controls the generated certificate.
type Options struct {
	// CommonName for the subject. Defaults to "issuer-test".
	CommonName string
	// Curve for the ECDSA key. Defaults to P-256. Ignored when Ed25519 is set.
	Curve elliptic.Curve
	// SignatureAlgorithm for the certificate. Defaults to ECDSAWithSHA256.
	SignatureAlgorithm x509.SignatureAlgorithm
	// Ed25519 generates an Ed25519 key pair instead of ECDSA.
	Ed25519 bool
}

// PEMPair returns a self-signed certificate and its private key, PEM encoded.
func PEMPair(opts Options) (certPEM, keyPEM []byte, err error) {
	if opts.CommonName == "" {
		opts.CommonName = "issuer-test"
	}
	if opts.Curve == nil {
		opts.Curve = elliptic.P256()
	}

	var signer crypto.Signer
	if opts.Ed25519 {
		_, key, genErr := ed25519.GenerateKey(rand.Reader)
		if genErr != nil {
			return nil, nil, fmt.Errorf("failed to generate key: %w", genErr)
		}
		signer = key
		if opts.SignatureAlgorithm == 0 {
			opts.SignatureAlgorithm = x509.PureEd25519
		}
	} else {
		key, genErr := ecdsa.GenerateKey(opts.Curve, rand.Reader)
		if genErr != nil {
			return nil, nil, fmt.Errorf("failed to generate key: %w", genErr)
		}
		signer = key
		if opts.SignatureAlgorithm == 0 {
			opts.SignatureAlgorithm = x509.ECDSAWithSHA256
		}
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: opts.CommonName},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		SignatureAlgorithm:    opts.SignatureAlgorithm,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, signer.Public(), signer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(signer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM, nil
}

// WritePair writes a generated pair as cert.pem and key.pem under dir and
// returns the two paths.
func WritePair(dir string, opts Options) (certPath, keyPath string, err error) {
	certPEM, keyPEM, err := PEMPair(opts)
	if err != nil {
		return "", "", err
	}

	certPath = filepath.Join(dir, "cert.pem")
	keyPath = filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		return "", "", fmt.Errorf("failed to write cert: %w", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return "", "", fmt.Errorf("failed to write key: %w", err)
	}
	return certPath, keyPath, nil
}
