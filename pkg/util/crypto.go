package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

var (
	ErrInvalidKey    = errors.New("encryption key must be 32 bytes, hex or base64 encoded")
	ErrDecryptFailed = errors.New("failed to decrypt token")
)

const nonceSize = 24

// TokenSealer encrypts OAuth access tokens before they are stored
type TokenSealer struct {
	key [32]byte
}

// NewTokenSealer builds a sealer from a 32 byte key given as 64 hex characters or base64
func NewTokenSealer(encodedKey string) (*TokenSealer, error) {
	raw, err := decodeKey(strings.TrimSpace(encodedKey))
	if err != nil || len(raw) != 32 {
		return nil, ErrInvalidKey
	}
	s := &TokenSealer{}
	copy(s.key[:], raw)
	return s, nil
}

func decodeKey(key string) ([]byte, error) {
	if len(key) == 64 {
		if raw, err := hex.DecodeString(key); err == nil {
			return raw, nil
		}
	}
	if raw, err := base64.StdEncoding.DecodeString(key); err == nil {
		return raw, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(key, "="))
}

// NewTokenSealerFromSecret derives the key from an arbitrary secret. Development only.
func NewTokenSealerFromSecret(secret string) *TokenSealer {
	return &TokenSealer{key: sha256.Sum256([]byte(secret))}
}

// Seal returns base64(nonce || box). Empty input stays empty.
func (s *TokenSealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

// Open reverses Seal
func (s *TokenSealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrDecryptFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrDecryptFailed
	}
	return string(plain), nil
}
