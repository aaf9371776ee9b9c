package sigscan

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"math/big"
	"time"
)

// Certificate is the subset of an X.509 signing certificate the inspector
// reports: identity, validity window, and the raw DER for fingerprinting.
type Certificate struct {
	Subject            string
	Issuer             string
	SerialNumber       *big.Int
	NotBefore          time.Time
	NotAfter           time.Time
	SignatureAlgorithm string
	Raw                []byte
}

// ParseCertificate decodes one DER-encoded certificate. Distinguished
// names are rendered in RFC 2253 order, most specific attribute first.
func ParseCertificate(der []byte) (*Certificate, error) {
	parsed, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, &MalformedCertificateError{Err: err}
	}
	return fromX509(parsed), nil
}

func fromX509(c *x509.Certificate) *Certificate {
	return &Certificate{
		Subject:            c.Subject.String(),
		Issuer:             c.Issuer.String(),
		SerialNumber:       c.SerialNumber,
		NotBefore:          c.NotBefore.UTC(),
		NotAfter:           c.NotAfter.UTC(),
		SignatureAlgorithm: c.SignatureAlgorithm.String(),
		Raw:                c.Raw,
	}
}

// FingerprintMD5 returns the lowercase hex MD5 digest of the DER bytes.
// Weak hashes are still the convention for APK certificate identities.
func (c *Certificate) FingerprintMD5() string {
	sum := md5.Sum(c.Raw)
	return hex.EncodeToString(sum[:])
}

// FingerprintSHA1 returns the lowercase hex SHA-1 digest of the DER bytes.
func (c *Certificate) FingerprintSHA1() string {
	sum := sha1.Sum(c.Raw)
	return hex.EncodeToString(sum[:])
}

// FingerprintSHA256 returns the lowercase hex SHA-256 digest of the DER bytes.
func (c *Certificate) FingerprintSHA256() string {
	sum := sha256.Sum256(c.Raw)
	return hex.EncodeToString(sum[:])
}
