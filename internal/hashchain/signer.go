package hashchain

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrBadSignature indicates that a signature does not verify against the
// public key.
var ErrBadSignature = errors.New("signature verification failed")

// Signer signs transaction hashes with an RSA private key.
//
// The key is loaded once at construction; a missing or malformed key file is
// a fatal configuration error, never a per-call one.
type Signer struct {
	key *rsa.PrivateKey
}

// NewSigner returns a Signer around the given private key.
func NewSigner(key *rsa.PrivateKey) *Signer {
	return &Signer{key: key}
}

// NewSignerFromFile loads a PEM encoded RSA private key (PKCS#8 or PKCS#1)
// from path and returns a Signer around it.
func NewSignerFromFile(path string) (*Signer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing key %s: %w", path, err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("signing key %s: no PEM block found", path)
	}

	key, err := parsePrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("signing key %s: %w", path, err)
	}

	return &Signer{key: key}, nil
}

func parsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("not an RSA private key")
		}

		return rsaKey, nil
	}

	return x509.ParsePKCS1PrivateKey(der)
}

// Sign signs the UTF-8 bytes of the hex hash string with SHA256/RSA
// PKCS#1 v1.5 and returns the signature base64 encoded.
func (s *Signer) Sign(hash string) (string, error) {
	digest := sha256.Sum256([]byte(hash))

	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign hash: %w", err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// Public returns the public key matching the signing key.
func (s *Signer) Public() *rsa.PublicKey {
	return &s.key.PublicKey
}

// Verify checks a base64 signature over the given hex hash string against
// the public key.
func Verify(pub *rsa.PublicKey, hash, signature string) error {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	digest := sha256.Sum256([]byte(hash))

	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return ErrBadSignature
	}

	return nil
}
