// Package secretbox cifra secretos de configuración con AES-256-GCM.
//
// Formato: base64(nonce)|base64(ciphertext). En el YAML o el entorno el valor
// lleva el prefijo "enc:".
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// Prefix marca un valor cifrado en la configuración.
	Prefix = "enc:"

	nonceSize = 12
	keyLen    = 32
	sep       = "|"
)

var (
	ErrInvalidKey    = errors.New("secretbox: clave inválida")
	ErrInvalidFormat = errors.New("secretbox: formato inválido, esperado base64(nonce)|base64(ciphertext)")
)

// Box cifra y descifra con una clave fija.
type Box struct {
	aead cipher.AEAD
}

// New acepta la clave en base64 (con o sin padding), hex o 32 bytes crudos.
func New(key string) (*Box, error) {
	k, err := parseKey(strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Box{aead: aead}, nil
}

func parseKey(key string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == keyLen {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == keyLen {
		return b, nil
	}
	if len(key) == 2*keyLen {
		if b, err := hex.DecodeString(key); err == nil {
			return b, nil
		}
	}
	if len(key) == keyLen {
		return []byte(key), nil
	}
	return nil, fmt.Errorf("%w: se requieren %d bytes", ErrInvalidKey, keyLen)
}

// Seal cifra plain con un nonce aleatorio.
func (b *Box) Seal(plain string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Open descifra la salida de Seal. El prefijo "enc:" es opcional.
func (b *Box) Open(sealed string) (string, error) {
	nonceB64, ctB64, ok := strings.Cut(strings.TrimPrefix(sealed, Prefix), sep)
	if !ok {
		return "", ErrInvalidFormat
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil || len(nonce) != nonceSize {
		return "", ErrInvalidFormat
	}
	ct, err := base64.StdEncoding.DecodeString(ctB64)
	if err != nil {
		return "", ErrInvalidFormat
	}
	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("secretbox: descifrado: %w", err)
	}
	return string(pt), nil
}

// IsSealed reporta si v lleva el prefijo de valor cifrado.
func IsSealed(v string) bool { return strings.HasPrefix(v, Prefix) }
