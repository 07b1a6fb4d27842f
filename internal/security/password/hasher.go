// Package password hashea y verifica contraseñas y aplica la política de complejidad.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hasher es la capacidad opaca hash/verify que consumen los servicios.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// Params de argon2id.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
}

var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32}

// Fast es solo para tests: argon2id con memoria mínima.
var Fast = Params{Memory: 8, Time: 1, Parallelism: 1, KeyLen: 16}

var ErrEmptyPassword = errors.New("password: vacío")

// Argon2id emite hashes PHC argon2id y acepta además hashes bcrypt ($2a$/$2b$/$2y$)
// importados de la base anterior.
type Argon2id struct {
	Params Params
}

// NewHasher retorna un Argon2id con los parámetros dados (zero value → Default).
func NewHasher(p Params) *Argon2id {
	if p.Memory == 0 || p.Time == 0 || p.KeyLen == 0 {
		p = Default
	}
	if p.Parallelism == 0 {
		p.Parallelism = 1
	}
	return &Argon2id{Params: p}
}

// Hash devuelve $argon2id$v=19$m=...,t=...,p=...$<saltB64>$<dkB64>
func (h *Argon2id) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	p := h.Params
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: salt: %w", err)
	}
	dk := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Verify compara en tiempo constante. Un hash ilegible nunca verifica.
func (h *Argon2id) Verify(plain, hash string) bool {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return verifyArgon2id(plain, hash)
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
	default:
		return false
	}
}

// NeedsRehash reporta si el hash no es argon2id con los parámetros actuales.
func (h *Argon2id) NeedsRehash(hash string) bool {
	want := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$", argon2.Version, h.Params.Memory, h.Params.Time, h.Params.Parallelism)
	return !strings.HasPrefix(hash, want)
}

func verifyArgon2id(plain, phc string) bool {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, dk
	parts := strings.Split(phc, "$")
	if len(parts) != 6 {
		return false
	}
	var v int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &v); err != nil || v != argon2.Version {
		return false
	}
	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	dkStored, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(dkStored) == 0 {
		return false
	}
	key := argon2.IDKey([]byte(plain), salt, t, m, p, uint32(len(dkStored)))
	return subtle.ConstantTimeCompare(key, dkStored) == 1
}
