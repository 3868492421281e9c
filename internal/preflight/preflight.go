package preflight

import (
	"crypto/ecdsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/pid-provider/issuerctl/internal/config"
)

// supportedAlgorithms maps acceptable certificate signature algorithms to the
// public-key curves allowed with them. A nil curve list means the algorithm
// carries no curve constraint (RSA).
var supportedAlgorithms = map[x509.SignatureAlgorithm][]string{
	x509.ECDSAWithSHA256: {"P-256"},
	x509.ECDSAWithSHA384: {"P-384"},
	x509.ECDSAWithSHA512: {"P-521"},
	x509.SHA256WithRSA:   nil,
	x509.SHA384WithRSA:   nil,
	x509.SHA512WithRSA:   nil,
}

// CheckKeyPair verifies the certificate and key files exist, are readable,
// and parse as a matching pair. It returns the parsed leaf certificate.
func CheckKeyPair(certPath, keyPath string) (*x509.Certificate, error) {
	pair, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate pair: %w", err)
	}

	if len(pair.Certificate) == 0 {
		return nil, errors.New("certificate file contains no certificates")
	}

	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse leaf certificate: %w", err)
	}
	return leaf, nil
}

// CheckCertAlgorithm verifies the certificate's signature algorithm, and for
// EC keys the public-key curve, is on the supported list.
func CheckCertAlgorithm(cert *x509.Certificate) error {
	curves, ok := supportedAlgorithms[cert.SignatureAlgorithm]
	if !ok {
		return fmt.Errorf("certificate algorithm %s not supported", cert.SignatureAlgorithm)
	}
	if curves == nil {
		return nil
	}

	pub, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("certificate algorithm %s requires an EC public key, got %T",
			cert.SignatureAlgorithm, cert.PublicKey)
	}
	curve := pub.Curve.Params().Name
	for _, c := range curves {
		if c == curve {
			return nil
		}
	}
	return fmt.Errorf("certificate curve %s not supported with algorithm %s", curve, cert.SignatureAlgorithm)
}

// LoadCABundle loads the CA bundle into a certificate pool.
func LoadCABundle(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA bundle: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, errors.New("CA bundle contains no usable certificates")
	}
	return pool, nil
}

// IsPEMPublicKey reports whether data is a PEM-encoded public key.
func IsPEMPublicKey(data []byte) bool {
	block, _ := pem.Decode(data)
	if block == nil {
		return false
	}
	_, err := x509.ParsePKIXPublicKey(block.Bytes)
	return err == nil
}

// Run executes the full preflight for a launch configuration: key pair,
// algorithm and curve, then the CA bundle. The first failing check aborts.
func Run(cfg *config.Config) error {
	leaf, err := CheckKeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return err
	}
	if err := CheckCertAlgorithm(leaf); err != nil {
		return err
	}
	if _, err := LoadCABundle(cfg.ResolvedCABundle()); err != nil {
		return err
	}
	return nil
}
