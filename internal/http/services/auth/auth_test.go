package auth

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/authz"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	"github.com/kobecorporation/kbsaas/internal/email"
	"github.com/kobecorporation/kbsaas/internal/email/emailtest"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/auth"
	jwtx "github.com/kobecorporation/kbsaas/internal/jwt"
	"github.com/kobecorporation/kbsaas/internal/rate"
	"github.com/kobecorporation/kbsaas/internal/security/password"
	"github.com/kobecorporation/kbsaas/internal/store/memory"
	"github.com/kobecorporation/kbsaas/internal/validation"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc    Services
	store  *memory.Store
	rec    *emailtest.Recorder
	clk    *clock
	tenant *repository.Tenant
	scope  repository.Scope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	st := memory.New()
	rec := &emailtest.Recorder{}
	mailer, err := email.NewMailer(rec, email.MailerConfig{FrontendURL: "https://app.test"})
	require.NoError(t, err)
	codec, err := jwtx.NewCodec(jwtx.Config{Secret: "0123456789abcdef0123456789abcdef", Issuer: "kbsaas", Now: clk.Now})
	require.NoError(t, err)

	settings := repository.DefaultTenantSettings()
	settings.AllowPublicSignup = true
	tenant := &repository.Tenant{
		ID: "t-acme", Name: "Acme", Slug: "acme", Plan: types.PlanFree,
		Status: types.TenantStatusActive, Settings: settings, OwnerID: "owner",
		CreatedAt: clk.Now(), UpdatedAt: clk.Now(),
	}
	require.NoError(t, st.Tenants().Create(context.Background(), tenant))

	svc := NewServices(Deps{
		Store:         st,
		Codec:         codec,
		Hasher:        password.NewHasher(password.Fast),
		Policy:        password.DefaultPolicy,
		Mailer:        mailer,
		ResendLimiter: rate.NewMemoryLimiter("resend:", 3, 10*time.Minute),
		Now:           clk.Now,
	})
	return &fixture{svc: svc, store: st, rec: rec, clk: clk, tenant: tenant, scope: repository.TenantScope(tenant.ID)}
}

func (f *fixture) register(t *testing.T, username, mail string) {
	t.Helper()
	_, err := f.svc.Register.Register(context.Background(), f.scope, dto.RegisterRequest{
		Username: username, Email: mail, Password: "s3cretpass",
		FirstName: "Alice", LastName: "Martin",
	})
	require.NoError(t, err)
}

func (f *fixture) code(t *testing.T, mail string) string {
	t.Helper()
	u, err := f.store.Users().GetByEmail(context.Background(), f.scope, mail)
	require.NoError(t, err)
	require.NotNil(t, u.EmailVerificationCode)
	return *u.EmailVerificationCode
}

// activeUser registra y verifica un usuario.
func (f *fixture) activeUser(t *testing.T, username, mail string) *dto.AuthData {
	t.Helper()
	f.register(t, username, mail)
	data, err := f.svc.Register.VerifyEmail(context.Background(), f.scope, dto.VerifyEmailRequest{Email: mail, Code: f.code(t, mail)})
	require.NoError(t, err)
	return data
}

func TestRegisterThenVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register.Register(ctx, f.scope, dto.RegisterRequest{
		Username: "Alice_01", Email: " Alice@Example.com ", Password: "s3cretpass",
		FirstName: "Alice", LastName: "Martin",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", res.Email)
	assert.False(t, res.EmailVerified)

	u, err := f.store.Users().GetByEmail(ctx, f.scope, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice_01", u.Username)
	assert.Equal(t, types.TenantRoleMember, u.TenantRole)
	assert.Equal(t, types.RoleUser, u.Role)
	assert.Regexp(t, `^[0-9]{6}$`, *u.EmailVerificationCode)
	assert.Equal(t, f.clk.Now().Add(10*time.Minute), *u.EmailVerificationCodeExpiresAt)

	msg, ok := f.rec.Last()
	require.True(t, ok)
	assert.Contains(t, msg.Text, *u.EmailVerificationCode)

	data, err := f.svc.Register.VerifyEmail(ctx, f.scope, dto.VerifyEmailRequest{Email: "alice@example.com", Code: *u.EmailVerificationCode})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", data.TokenType)
	assert.True(t, data.User.IsEmailVerified)
	assert.NotEmpty(t, data.AccessToken)

	u, err = f.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, u.EmailVerificationCode)
	assert.Nil(t, u.EmailVerificationCodeExpiresAt)

	_, err = f.svc.Register.VerifyEmail(ctx, f.scope, dto.VerifyEmailRequest{Email: "alice@example.com", Code: "000000"})
	require.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestRegisterRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ok := dto.RegisterRequest{Username: "bob", Email: "bob@x.com", Password: "s3cretpass", FirstName: "Bob", LastName: "Durand"}

	_, err := f.svc.Register.Register(ctx, repository.PlatformScope(), ok)
	require.ErrorIs(t, err, ErrTenantRequired)

	bad := ok
	bad.Username = "b!"
	_, err = f.svc.Register.Register(ctx, f.scope, bad)
	require.ErrorIs(t, err, validation.ErrInvalid)

	weak := ok
	weak.Password = "short"
	_, err = f.svc.Register.Register(ctx, f.scope, weak)
	require.ErrorIs(t, err, password.ErrPolicy)

	f.register(t, "bob", "bob@x.com")
	_, err = f.svc.Register.Register(ctx, f.scope, ok)
	require.ErrorIs(t, err, ErrEmailTaken)

	sameName := ok
	sameName.Email = "other@x.com"
	_, err = f.svc.Register.Register(ctx, f.scope, sameName)
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterHonorsTenantPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// FREE admite 3 usuarios
	f.register(t, "user1", "u1@x.com")
	f.register(t, "user2", "u2@x.com")
	f.register(t, "user3", "u3@x.com")
	_, err := f.svc.Register.Register(ctx, f.scope, dto.RegisterRequest{
		Username: "user4", Email: "u4@x.com", Password: "s3cretpass", FirstName: "Uuu", LastName: "Four",
	})
	require.ErrorIs(t, err, ErrCapacityExceeded)

	f.tenant.Settings.AllowPublicSignup = false
	require.NoError(t, f.store.Tenants().Update(ctx, f.tenant))
	_, err = f.svc.Register.Register(ctx, f.scope, dto.RegisterRequest{
		Username: "user5", Email: "u5@x.com", Password: "s3cretpass", FirstName: "Uuu", LastName: "Five",
	})
	require.ErrorIs(t, err, ErrPublicSignupDisabled)
}

func TestRegisterFailsWhenEmailCannotBeSent(t *testing.T) {
	f := newFixture(t)
	f.rec.SetErr(errors.New("smtp down"))

	_, err := f.svc.Register.Register(context.Background(), f.scope, dto.RegisterRequest{
		Username: "carol", Email: "carol@x.com", Password: "s3cretpass", FirstName: "Carol", LastName: "Petit",
	})
	require.ErrorIs(t, err, email.ErrDelivery)

	exists, err := f.store.Users().ExistsByEmail(context.Background(), f.scope, "carol@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestVerifyEmailStrictness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "dave", "dave@x.com")
	code := f.code(t, "dave@x.com")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err := f.svc.Register.VerifyEmail(ctx, f.scope, dto.VerifyEmailRequest{Email: "dave@x.com", Code: wrong})
	require.ErrorIs(t, err, ErrInvalidCode)

	_, err = f.svc.Register.VerifyEmail(ctx, f.scope, dto.VerifyEmailRequest{Email: "nobody@x.com", Code: code})
	require.ErrorIs(t, err, ErrAccountNotFound)

	// now == expiry ya no es válido
	f.clk.Advance(10 * time.Minute)
	_, err = f.svc.Register.VerifyEmail(ctx, f.scope, dto.VerifyEmailRequest{Email: "dave@x.com", Code: code})
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestResendCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "erin", "erin@x.com")
	first := f.code(t, "erin@x.com")

	f.rec.SetErr(errors.New("smtp down"))
	_, err := f.svc.Register.ResendCode(ctx, f.scope, "erin@x.com")
	require.ErrorIs(t, err, email.ErrDelivery)
	assert.Equal(t, first, f.code(t, "erin@x.com"))

	f.rec.SetErr(nil)
	for i := 0; i < 2; i++ {
		_, err = f.svc.Register.ResendCode(ctx, f.scope, "erin@x.com")
		require.NoError(t, err)
	}
	_, err = f.svc.Register.ResendCode(ctx, f.scope, "erin@x.com")
	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	require.ErrorIs(t, err, ErrRateLimited)

	_, err = f.svc.Register.ResendCode(ctx, f.scope, "ghost@x.com")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestLoginChecksInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login.Login(ctx, f.scope, dto.LoginRequest{EmailOrUsername: "ghost", Password: "whatever1"}, false)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	f.register(t, "frank", "frank@x.com")
	_, err = f.svc.Login.Login(ctx, f.scope, dto.LoginRequest{EmailOrUsername: "frank", Password: "s3cretpass"}, false)
	require.ErrorIs(t, err, ErrEmailNotVerified)

	_, err = f.svc.Register.VerifyEmail(ctx, f.scope, dto.VerifyEmailRequest{Email: "frank@x.com", Code: f.code(t, "frank@x.com")})
	require.NoError(t, err)

	data, err := f.svc.Login.Login(ctx, f.scope, dto.LoginRequest{EmailOrUsername: "FRANK@x.com", Password: "s3cretpass"}, true)
	require.NoError(t, err)
	assert.EqualValues(t, 30*24*3600, data.RefreshExpiresIn)
	assert.NotNil(t, data.User.LastLoginAt)

	u, err := f.store.Users().GetByEmail(ctx, f.scope, "frank@x.com")
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, f.store.Users().Update(ctx, u))
	_, err = f.svc.Login.Login(ctx, f.scope, dto.LoginRequest{EmailOrUsername: "frank", Password: "s3cretpass"}, false)
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activeUser(t, "gina", "gina@x.com")

	for i := 0; i < 5; i++ {
		_, err := f.svc.Login.Login(ctx, f.scope, dto.LoginRequest{EmailOrUsername: "gina", Password: "wrongpass"}, false)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := f.svc.Login.Login(ctx, f.scope, dto.LoginRequest{EmailOrUsername: "gina", Password: "s3cretpass"}, false)
	require.ErrorIs(t, err, ErrAccountLocked)

	f.clk.Advance(15 * time.Minute)
	_, err = f.svc.Login.Login(ctx, f.scope, dto.LoginRequest{EmailOrUsername: "gina", Password: "s3cretpass"}, false)
	require.NoError(t, err)

	u, err := f.store.Users().GetByEmail(ctx, f.scope, "gina@x.com")
	require.NoError(t, err)
	assert.Zero(t, u.FailedLoginAttempts)
	assert.Nil(t, u.LockedUntil)
}

func TestLoginIsScoped(t *testing.T) {
	f := newFixture(t)
	f.activeUser(t, "hugo", "hugo@x.com")

	_, err := f.svc.Login.Login(context.Background(), repository.PlatformScope(),
		dto.LoginRequest{EmailOrUsername: "hugo", Password: "s3cretpass"}, false)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSecondLoginSupersedesFirstRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activeUser(t, "ivy", "ivy@x.com")

	a, err := f.svc.Login.Login(ctx, f.scope, dto.LoginRequest{EmailOrUsername: "ivy", Password: "s3cretpass"}, false)
	require.NoError(t, err)
	b, err := f.svc.Login.Login(ctx, f.scope, dto.LoginRequest{EmailOrUsername: "ivy", Password: "s3cretpass"}, false)
	require.NoError(t, err)
	assert.NotEqual(t, a.AccessToken, b.AccessToken)
	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)

	_, err = f.svc.Refresh.Refresh(ctx, a.RefreshToken)
	require.ErrorIs(t, err, ErrTokenMismatch)

	next, err := f.svc.Refresh.Refresh(ctx, b.RefreshToken)
	require.NoError(t, err)

	// el token rotado ya no sirve
	_, err = f.svc.Refresh.Refresh(ctx, b.RefreshToken)
	require.ErrorIs(t, err, ErrTokenMismatch)
	_, err = f.svc.Refresh.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshServerSideIdleWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	login := f.activeUser(t, "jack", "jack@x.com")

	rotated, err := f.svc.Refresh.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)

	f.clk.Advance(time.Hour)
	_, err = f.svc.Refresh.Refresh(ctx, rotated.RefreshToken)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestIssuedPairsExpireWhenIdle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	verified := f.activeUser(t, "jill", "jill@x.com")

	f.clk.Advance(3 * time.Hour)
	_, err := f.svc.Refresh.Refresh(ctx, verified.RefreshToken)
	require.ErrorIs(t, err, ErrTokenExpired)

	for _, rememberMe := range []bool{false, true} {
		login, err := f.svc.Login.Login(ctx, f.scope, dto.LoginRequest{EmailOrUsername: "jill", Password: "s3cretpass"}, rememberMe)
		require.NoError(t, err)

		f.clk.Advance(2 * time.Hour)
		_, err = f.svc.Refresh.Refresh(ctx, login.RefreshToken)
		require.ErrorIs(t, err, ErrTokenExpired, "rememberMe=%v", rememberMe)
	}

	login, err := f.svc.Login.Login(ctx, f.scope, dto.LoginRequest{EmailOrUsername: "jill", Password: "s3cretpass"}, true)
	require.NoError(t, err)
	f.clk.Advance(59 * time.Minute)
	_, err = f.svc.Refresh.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
}

func TestStaleUserWriteKeepsRotatedRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	login := f.activeUser(t, "kurt", "kurt@x.com")

	stale, err := f.store.Users().GetByEmail(ctx, f.scope, "kurt@x.com")
	require.NoError(t, err)

	next, err := f.svc.Refresh.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)

	// un fallo de login persiste el usuario leído antes de la rotación
	_, err = f.svc.Login.Login(ctx, f.scope, dto.LoginRequest{EmailOrUsername: "kurt", Password: "wrong-pass"}, false)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	bio := "hola"
	stale.Bio = &bio
	require.NoError(t, f.store.Users().Update(ctx, stale))

	_, err = f.svc.Refresh.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, ErrTokenMismatch)
	_, err = f.svc.Refresh.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsAccessTokenAndGarbage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	login := f.activeUser(t, "kate", "kate@x.com")

	_, err := f.svc.Refresh.Refresh(ctx, login.AccessToken)
	require.ErrorIs(t, err, ErrWrongTokenType)
	_, err = f.svc.Refresh.Refresh(ctx, "nope")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestConcurrentRefreshOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	login := f.activeUser(t, "liam", "liam@x.com")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Refresh.Refresh(context.Background(), login.RefreshToken)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, ErrTokenMismatch)
	}
	assert.Equal(t, 1, wins)
}

var resetTokenRe = regexp.MustCompile(`token=([A-Za-z0-9]+)`)

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	login := f.activeUser(t, "mia", "mia@x.com")

	res, err := f.svc.Password.RequestReset(ctx, f.scope, "ghost@x.com")
	require.NoError(t, err)
	assert.True(t, res.Success)

	f.rec.Reset()
	res, err = f.svc.Password.RequestReset(ctx, f.scope, "mia@x.com")
	require.NoError(t, err)
	assert.True(t, res.Success)

	msg, ok := f.rec.Last()
	require.True(t, ok)
	m := resetTokenRe.FindStringSubmatch(msg.Text)
	require.Len(t, m, 2)
	raw := m[1]
	assert.Len(t, raw, ResetTokenLen)

	_, err = f.svc.Password.Reset(ctx, dto.ResetPasswordRequest{Token: raw, NewPassword: "x"})
	require.ErrorIs(t, err, password.ErrPolicy)

	_, err = f.svc.Password.Reset(ctx, dto.ResetPasswordRequest{Token: raw, NewPassword: "brandnew99"})
	require.NoError(t, err)

	_, err = f.svc.Refresh.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, ErrTokenMismatch)
	_, err = f.svc.Login.Login(ctx, f.scope, dto.LoginRequest{EmailOrUsername: "mia", Password: "brandnew99"}, false)
	require.NoError(t, err)

	_, err = f.svc.Password.Reset(ctx, dto.ResetPasswordRequest{Token: raw, NewPassword: "another99"})
	require.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestPasswordResetExpiresAndUnverified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "noah", "noah@x.com")

	f.rec.Reset()
	res, err := f.svc.Password.RequestReset(ctx, f.scope, "noah@x.com")
	require.NoError(t, err)
	unknown, err := f.svc.Password.RequestReset(ctx, f.scope, "nobody@x.com")
	require.NoError(t, err)
	assert.Equal(t, unknown, res)
	assert.True(t, res.Success)
	assert.Empty(t, f.rec.Messages())

	f.activeUser(t, "olga", "olga@x.com")
	f.rec.Reset()
	_, err = f.svc.Password.RequestReset(ctx, f.scope, "olga@x.com")
	require.NoError(t, err)
	msg, _ := f.rec.Last()
	raw := resetTokenRe.FindStringSubmatch(msg.Text)[1]

	f.clk.Advance(30 * time.Minute)
	_, err = f.svc.Password.Reset(ctx, dto.ResetPasswordRequest{Token: raw, NewPassword: "brandnew99"})
	require.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestLogoutRevokesAndMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	login := f.activeUser(t, "paul", "paul@x.com")
	tid := f.tenant.ID
	p := authz.Principal{UserID: login.User.ID, Role: types.RoleUser, TenantRole: types.TenantRoleMember, TenantID: &tid}

	me, err := f.svc.Session.Me(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "paul", me.Username)

	res, err := f.svc.Session.Logout(ctx, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, err = f.svc.Session.Logout(ctx, &p)
	require.NoError(t, err)
	_, err = f.svc.Refresh.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, ErrTokenMismatch)
}
