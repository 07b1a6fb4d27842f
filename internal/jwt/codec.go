// Package jwt emite y valida los tokens de acceso y refresh (HS256, claims tipadas).
//
// El codec es un sobre firmado genérico: valida firma y expiración pero NO
// separa tipos. Quien consume un token debe chequear Claims.Type o usar
// ParseAccess/ParseRefresh.
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

// TokenType distingue access de refresh.
type TokenType string

const (
	TypeAccess  TokenType = "ACCESS"
	TypeRefresh TokenType = "REFRESH"
)

// MinSecretLen es el largo mínimo aceptado para la clave HMAC.
const MinSecretLen = 32

var (
	ErrMalformed        = errors.New("jwt: token malformado")
	ErrInvalidSignature = errors.New("jwt: firma inválida")
	ErrExpired          = errors.New("jwt: token expirado")
	ErrInvalidClaims    = errors.New("jwt: claims inválidas")
	ErrWrongType        = errors.New("jwt: tipo de token incorrecto")
	ErrWeakSecret       = errors.New("jwt: secret demasiado corto")
)

// Claims es el claim set de ambos tipos de token. Los campos que no aplican a un
// tipo quedan vacíos y se omiten en el JSON.
type Claims struct {
	Type       TokenType        `json:"type"`
	Email      string           `json:"email,omitempty"`
	Role       types.Role       `json:"role,omitempty"`
	TenantRole types.TenantRole `json:"tenantRole,omitempty"`
	TenantID   *string          `json:"tenantId,omitempty"`
	RememberMe bool             `json:"rememberMe,omitempty"`
	jwtv5.RegisteredClaims
}

// UserID es el subject.
func (c *Claims) UserID() string { return c.Subject }

// AccessSubject son los datos del usuario que viajan en un access token.
type AccessSubject struct {
	UserID     string
	Email      string
	Role       types.Role
	TenantRole types.TenantRole
	TenantID   *string
}

// Config del codec. TTLs en cero toman los defaults.
type Config struct {
	Secret        string
	Issuer        string
	AccessTTL     time.Duration // default 1h
	RefreshTTL    time.Duration // default 7d
	RememberMeTTL time.Duration // default 30d
	// Now permite fijar el reloj en tests.
	Now func() time.Time
}

// Codec firma y valida tokens con una clave simétrica compartida por el proceso.
type Codec struct {
	key           []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	rememberMeTTL time.Duration
	now           func() time.Time
}

// NewCodec valida la configuración y construye el codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < MinSecretLen {
		return nil, fmt.Errorf("%w: %d bytes (mínimo %d)", ErrWeakSecret, len(cfg.Secret), MinSecretLen)
	}
	c := &Codec{
		key:           []byte(cfg.Secret),
		issuer:        cfg.Issuer,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		rememberMeTTL: cfg.RememberMeTTL,
		now:           cfg.Now,
	}
	if c.accessTTL <= 0 {
		c.accessTTL = time.Hour
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = 7 * 24 * time.Hour
	}
	if c.rememberMeTTL <= 0 {
		c.rememberMeTTL = 30 * 24 * time.Hour
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL retorna la vida nominal del refresh token según rememberMe.
func (c *Codec) RefreshTTL(rememberMe bool) time.Duration {
	if rememberMe {
		return c.rememberMeTTL
	}
	return c.refreshTTL
}

// Sign firma claims con iat=now y exp=now+ttl. Completa jti e iss.
func (c *Codec) Sign(claims Claims, ttl time.Duration) (string, error) {
	now := c.now()
	claims.IssuedAt = jwtv5.NewNumericDate(now)
	claims.ExpiresAt = jwtv5.NewNumericDate(now.Add(ttl))
	if claims.ID == "" {
		// jti: dos tokens emitidos en el mismo segundo nunca son iguales
		claims.ID = uuid.NewString()
	}
	if c.issuer != "" {
		claims.Issuer = c.issuer
	}
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	s, err := tok.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return s, nil
}

// IssueAccess emite un access token y retorna su vida en segundos.
func (c *Codec) IssueAccess(sub AccessSubject) (string, int64, error) {
	tok, err := c.Sign(Claims{
		Type:             TypeAccess,
		Email:            sub.Email,
		Role:             sub.Role,
		TenantRole:       sub.TenantRole,
		TenantID:         sub.TenantID,
		RegisteredClaims: jwtv5.RegisteredClaims{Subject: sub.UserID},
	}, c.accessTTL)
	return tok, int64(c.accessTTL / time.Second), err
}

// IssueRefresh emite un refresh token y retorna su vida nominal en segundos.
func (c *Codec) IssueRefresh(userID string, tenantID *string, rememberMe bool) (string, int64, error) {
	ttl := c.RefreshTTL(rememberMe)
	tok, err := c.Sign(Claims{
		Type:             TypeRefresh,
		TenantID:         tenantID,
		RememberMe:       rememberMe,
		RegisteredClaims: jwtv5.RegisteredClaims{Subject: userID},
	}, ttl)
	return tok, int64(ttl / time.Second), err
}

// Parse valida firma (solo HS256) y expiración sin tolerancia. No mira el tipo.
func (c *Codec) Parse(raw string) (*Claims, error) {
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(c.issuer))
	}

	var claims Claims
	_, err := jwtv5.ParseWithClaims(raw, &claims, func(t *jwtv5.Token) (any, error) {
		return c.key, nil
	}, opts...)
	if err != nil {
		return nil, mapError(err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidClaims
	}
	return &claims, nil
}

// ParseAccess es Parse + chequeo de tipo ACCESS.
func (c *Codec) ParseAccess(raw string) (*Claims, error) {
	return c.parseTyped(raw, TypeAccess)
}

// ParseRefresh es Parse + chequeo de tipo REFRESH.
func (c *Codec) ParseRefresh(raw string) (*Claims, error) {
	return c.parseTyped(raw, TypeRefresh)
}

func (c *Codec) parseTyped(raw string, want TokenType) (*Claims, error) {
	claims, err := c.Parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, ErrWrongType
	}
	return claims, nil
}

// mapError traduce los errores de jwt/v5. La firma se verifica antes que las
// claims, así que un token vencido y mal firmado reporta firma inválida.
func mapError(err error) error {
	switch {
	case errors.Is(err, jwtv5.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwtv5.ErrTokenSignatureInvalid), errors.Is(err, jwtv5.ErrTokenUnverifiable):
		return ErrInvalidSignature
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return ErrExpired
	default:
		return fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}
}
