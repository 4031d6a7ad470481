package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const sealedPrefix = "enc:v1:"

var ErrDecrypt = errors.New("failed to decrypt field")

// FieldCipher seals personal fields (email, mobile) before they are stored.
type FieldCipher interface {
	Seal(plain string) (string, error)
	Open(stored string) (string, error)
}

type aeadCipher struct {
	key []byte
}

// NewFieldCipher returns a passthrough cipher when key is empty.
func NewFieldCipher(key []byte) (FieldCipher, error) {
	if len(key) == 0 {
		return plainCipher{}, nil
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("field encryption key must be %d bytes", chacha20poly1305.KeySize)
	}
	return &aeadCipher{key: key}, nil
}

func (a *aeadCipher) Seal(plain string) (string, error) {
	aead, err := chacha20poly1305.NewX(a.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plain), nil)
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open accepts values written before encryption was enabled and returns them as-is.
func (a *aeadCipher) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", ErrDecrypt
	}
	aead, err := chacha20poly1305.NewX(a.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrDecrypt
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

type plainCipher struct{}

func (plainCipher) Seal(plain string) (string, error) { return plain, nil }

func (plainCipher) Open(stored string) (string, error) {
	if strings.HasPrefix(stored, sealedPrefix) {
		return "", ErrDecrypt
	}
	return stored, nil
}

// SealPtr and OpenPtr keep nil as nil.
func SealPtr(c FieldCipher, v *string) (*string, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	s, err := c.Seal(*v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func OpenPtr(c FieldCipher, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, err := c.Open(*v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
