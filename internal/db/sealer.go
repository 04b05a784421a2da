package db

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	sealedPrefix = "SEAL:v1:"
	sealInfo     = "feedbacktool local store v1"
)

// ErrUnseal is returned when a sealed value cannot be authenticated.
var ErrUnseal = errors.New("sealed value failed authentication")

// Sealer encrypts stored values with XChaCha20-Poly1305. A Sealer built without a secret
// passes values through unchanged.
type Sealer struct {
	key     []byte
	enabled bool
}

// NewSealer derives a 256-bit key from secret with HKDF-SHA256.
func NewSealer(secret string) (*Sealer, error) {
	if strings.TrimSpace(secret) == "" {
		return &Sealer{}, nil
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(sealInfo)), key); err != nil {
		return nil, fmt.Errorf("derive store key: %w", err)
	}
	return &Sealer{key: key, enabled: true}, nil
}

func (s *Sealer) Enabled() bool { return s != nil && s.enabled }

// Seal encrypts value, binding it to slot so a ciphertext cannot be moved to another key.
func (s *Sealer) Seal(slot string, value []byte) (string, error) {
	if !s.Enabled() {
		return string(value), nil
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	out := aead.Seal(nonce, nonce, value, []byte(slot))
	return sealedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Values without the sealed prefix are returned as stored, which
// covers rows written before a secret was configured.
func (s *Sealer) Open(slot, stored string) ([]byte, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return []byte(stored), nil
	}
	if !s.Enabled() {
		return nil, errors.New("value is sealed but no store secret is configured")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnseal, err)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("%w: value too short", ErrUnseal)
	}
	plain, err := aead.Open(nil, raw[:aead.NonceSize()], raw[aead.NonceSize():], []byte(slot))
	if err != nil {
		return nil, ErrUnseal
	}
	return plain, nil
}
