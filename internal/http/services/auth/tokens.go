package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/auth"
	jwtx "github.com/kobecorporation/kbsaas/internal/jwt"
	tokens "github.com/kobecorporation/kbsaas/internal/security/token"
)

// issuePair emite access+refresh para u. No persiste nada.
func (d *Deps) issuePair(u *repository.User, rememberMe bool) (*dto.AuthData, error) {
	access, accessIn, err := d.Codec.IssueAccess(jwtx.AccessSubject{
		UserID:     u.ID,
		Email:      u.Email,
		Role:       u.Role,
		TenantRole: u.TenantRole,
		TenantID:   u.TenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("issue access: %w", err)
	}
	refresh, refreshIn, err := d.Codec.IssueRefresh(u.ID, u.TenantID, rememberMe)
	if err != nil {
		return nil, fmt.Errorf("issue refresh: %w", err)
	}
	return &dto.AuthData{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresIn:        accessIn,
		RefreshExpiresIn: refreshIn,
		User:             dto.NewUserResponse(u),
	}, nil
}

// storeRefresh guarda el digest del refresh con la ventana de inactividad
// server-side. Todo par emitido expira si no se usa dentro de RefreshIdle.
func (d *Deps) storeRefresh(ctx context.Context, userID, raw string, now time.Time) error {
	h := tokens.SHA256Base64URL(raw)
	exp := now.Add(d.Config.RefreshIdle)
	if err := d.Store.Users().SetRefreshToken(ctx, userID, &h, &exp); err != nil {
		return fmt.Errorf("store refresh: %w", err)
	}
	return nil
}

func (d *Deps) revokeRefresh(ctx context.Context, userID string) error {
	if err := d.Store.Users().SetRefreshToken(ctx, userID, nil, nil); err != nil {
		return fmt.Errorf("revoke refresh: %w", err)
	}
	return nil
}

// tenantFor carga el tenant del scope; la plataforma retorna nil.
func (d *Deps) tenantFor(ctx context.Context, scope repository.Scope) (*repository.Tenant, error) {
	id, ok := scope.TenantID()
	if !ok {
		return nil, nil
	}
	t, err := d.Store.Tenants().GetByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	return t, nil
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// greetingName es el nombre que se usa en los correos.
func greetingName(u *repository.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

func ptrTime(t time.Time) *time.Time { return &t }
