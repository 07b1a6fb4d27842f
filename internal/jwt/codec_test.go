package jwt

import (
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestCodec(t *testing.T, clk *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec(Config{Secret: testSecret, Issuer: "kbsaas", Now: clk.Now})
	require.NoError(t, err)
	return c
}

func TestNewCodec_RejectsWeakSecret(t *testing.T) {
	_, err := NewCodec(Config{Secret: "short"})
	require.ErrorIs(t, err, ErrWeakSecret)
}

func TestAccessRoundTrip(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)
	tid := "tenant-1"

	tok, expiresIn, err := c.IssueAccess(AccessSubject{
		UserID: "u1", Email: "alice@x.com", Role: types.RoleUser,
		TenantRole: types.TenantRoleMember, TenantID: &tid,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3600, expiresIn)

	claims, err := c.ParseAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
	assert.Equal(t, TypeAccess, claims.Type)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, types.TenantRoleMember, claims.TenantRole)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, tid, *claims.TenantID)
	assert.Equal(t, clk.t.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestRefreshCarriesRememberMe(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clk)

	tok, expiresIn, err := c.IssueRefresh("u1", nil, true)
	require.NoError(t, err)
	assert.EqualValues(t, 30*24*3600, expiresIn)

	claims, err := c.ParseRefresh(tok)
	require.NoError(t, err)
	assert.True(t, claims.RememberMe)
	assert.Nil(t, claims.TenantID)

	_, plain, err := c.IssueRefresh("u1", nil, false)
	require.NoError(t, err)
	assert.EqualValues(t, 7*24*3600, plain)
}

func TestTypeIsNotEnforcedByParse(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now()})
	tok, _, err := c.IssueRefresh("u1", nil, false)
	require.NoError(t, err)

	claims, err := c.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, TypeRefresh, claims.Type)

	_, err = c.ParseAccess(tok)
	require.ErrorIs(t, err, ErrWrongType)
}

func TestExpiredButSignedFails(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clk)
	tok, _, err := c.IssueAccess(AccessSubject{UserID: "u1"})
	require.NoError(t, err)

	clk.t = clk.t.Add(time.Hour)
	_, err = c.Parse(tok)
	require.ErrorIs(t, err, ErrExpired)
}

func TestUnexpiredButForeignSignatureFails(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clk)
	other, err := NewCodec(Config{Secret: strings.Repeat("z", 40), Issuer: "kbsaas", Now: clk.Now})
	require.NoError(t, err)

	tok, _, err := other.IssueAccess(AccessSubject{UserID: "u1"})
	require.NoError(t, err)

	_, err = c.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestUnsignedTokenFails(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now()})
	claims := Claims{
		Type: TypeAccess,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "kbsaas",
			ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, claims).SignedString(jwtv5.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.Parse(raw)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestMalformed(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now()})
	_, err := c.Parse("not-a-jwt")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestTokensAreDistinctWithinSameSecond(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now()})
	a, _, err := c.IssueRefresh("u1", nil, false)
	require.NoError(t, err)
	b, _, err := c.IssueRefresh("u1", nil, false)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
