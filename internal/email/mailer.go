package email

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	"github.com/kobecorporation/kbsaas/internal/metrics"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

// MailerConfig son los valores por defecto de branding y links.
type MailerConfig struct {
	FromName       string
	FromAddress    string
	FrontendURL    string
	TenantPrefix   string
	PlatformDomain string
	CodeTTL        time.Duration
	ResetTTL       time.Duration
	InvitationTTL  time.Duration
}

func (c *MailerConfig) defaults() {
	if c.FromName == "" {
		c.FromName = "KOBE Corporation"
	}
	if c.FromAddress == "" {
		c.FromAddress = "noreply@example.com"
	}
	if c.FrontendURL == "" {
		c.FrontendURL = "http://localhost:3000"
	}
	if c.CodeTTL <= 0 {
		c.CodeTTL = 10 * time.Minute
	}
	if c.ResetTTL <= 0 {
		c.ResetTTL = 30 * time.Minute
	}
	if c.InvitationTTL <= 0 {
		c.InvitationTTL = repository.InvitationTTL
	}
}

// Mailer compone los correos transaccionales y los entrega con un Sender.
// tenant nil usa el branding de la plataforma.
type Mailer struct {
	sender Sender
	cfg    MailerConfig
	tpl    *templates
}

func NewMailer(sender Sender, cfg MailerConfig) (*Mailer, error) {
	cfg.defaults()
	tpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	return &Mailer{sender: sender, cfg: cfg, tpl: tpl}, nil
}

// vars son las variables disponibles en los templates de texto.
type vars struct {
	UserName    string
	Brand       string
	FromName    string
	Code        string
	Link        string
	RoleName    string
	InviterName string
	TTLMinutes  int
	TTLDays     int
}

type branding struct {
	brand       string
	fromName    string
	fromAddress string
	layout      layoutData
}

// brandingFor: fromName = settings.emailFromName, luego tenant.name, luego config.
func (m *Mailer) brandingFor(tenant *repository.Tenant) branding {
	b := branding{
		brand:       m.cfg.FromName,
		fromName:    m.cfg.FromName,
		fromAddress: m.cfg.FromAddress,
		layout:      layoutData{PrimaryColor: repository.DefaultTenantSettings().PrimaryColor},
	}
	if tenant == nil {
		b.layout.FromName = b.fromName
		return b
	}
	s := tenant.Settings
	b.brand = tenant.Name
	b.fromName = tenant.Name
	if s.EmailFromName != nil && *s.EmailFromName != "" {
		b.fromName = *s.EmailFromName
	}
	if s.EmailFromAddress != nil && *s.EmailFromAddress != "" {
		b.fromAddress = *s.EmailFromAddress
	}
	if s.PrimaryColor != "" {
		b.layout.PrimaryColor = s.PrimaryColor
	}
	if s.Logo != nil {
		b.layout.Logo = *s.Logo
	}
	if s.EmailFooter != nil {
		b.layout.Footer = *s.EmailFooter
	}
	b.layout.FromName = b.fromName
	return b
}

func (m *Mailer) send(ctx context.Context, kind string, tenant *repository.Tenant, to, subject string, v vars) error {
	b := m.brandingFor(tenant)
	v.Brand = b.brand
	v.FromName = b.fromName
	layout := b.layout
	layout.Subject = subject

	text, html, err := m.tpl.render(kind, v, layout)
	if err != nil {
		return err
	}
	err = m.sender.Send(ctx, Message{
		FromName:    b.fromName,
		FromAddress: b.fromAddress,
		To:          to,
		Subject:     subject,
		Text:        text,
		HTML:        html,
	})
	metrics.RecordEmail(kind, err)

	log := logger.From(ctx).With(logger.Component("email"), logger.Op(kind), logger.MaskedEmail(to))
	if err != nil {
		log.Warn("email not delivered", logger.Err(err))
		return err
	}
	log.Info("email sent")
	return nil
}

// SendVerification envía el código de verificación de 6 dígitos.
func (m *Mailer) SendVerification(ctx context.Context, tenant *repository.Tenant, to, userName, code string) error {
	subject := "Vérification de votre adresse email - " + m.brandingFor(tenant).fromName
	return m.send(ctx, KindVerification, tenant, to, subject, vars{
		UserName:   userName,
		Code:       code,
		TTLMinutes: int(m.cfg.CodeTTL / time.Minute),
	})
}

// SendPasswordReset envía el link {frontendUrl}/reset-password?token=...
func (m *Mailer) SendPasswordReset(ctx context.Context, tenant *repository.Tenant, to, userName, token string) error {
	subject := "Réinitialisation de votre mot de passe - " + m.brandingFor(tenant).fromName
	link := strings.TrimRight(m.cfg.FrontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
	return m.send(ctx, KindPasswordReset, tenant, to, subject, vars{
		UserName:   userName,
		Link:       link,
		TTLMinutes: int(m.cfg.ResetTTL / time.Minute),
	})
}

// SendAccountConfirmation confirma la creación de la cuenta tras verificar el email.
func (m *Mailer) SendAccountConfirmation(ctx context.Context, tenant *repository.Tenant, to, userName string, role types.Role) error {
	subject := "Bienvenue sur " + m.brandingFor(tenant).fromName + " - Votre compte a été créé"
	return m.send(ctx, KindAccountConfirmation, tenant, to, subject, vars{
		UserName: userName,
		RoleName: displayOr(role.DisplayName(), string(role)),
	})
}

// SendTenantWelcome da la bienvenida al espacio del tenant.
func (m *Mailer) SendTenantWelcome(ctx context.Context, tenant *repository.Tenant, to, userName string, role types.TenantRole) error {
	subject := "Bienvenue sur " + m.brandingFor(tenant).fromName + " !"
	return m.send(ctx, KindTenantWelcome, tenant, to, subject, vars{
		UserName: userName,
		RoleName: displayOr(role.DisplayName(), string(role)),
		Link:     "https://" + m.activeDomain(tenant),
	})
}

// SendInvitation envía el link https://{activeDomain}/invitation?token=...
func (m *Mailer) SendInvitation(ctx context.Context, tenant *repository.Tenant, to, inviterName, token string, role types.TenantRole) error {
	subject := "Invitation à rejoindre " + m.brandingFor(tenant).fromName
	return m.send(ctx, KindInvitation, tenant, to, subject, vars{
		InviterName: inviterName,
		RoleName:    displayOr(role.DisplayName(), string(role)),
		Link:        InvitationLink(m.activeDomain(tenant), token),
		TTLDays:     int(m.cfg.InvitationTTL / (24 * time.Hour)),
	})
}

// InvitationLink construye el link de aceptación de una invitación.
func InvitationLink(domain, token string) string {
	return "https://" + domain + "/invitation?token=" + url.QueryEscape(token)
}

func (m *Mailer) activeDomain(tenant *repository.Tenant) string {
	if tenant == nil {
		return m.cfg.PlatformDomain
	}
	return tenant.ActiveDomain(m.cfg.TenantPrefix, m.cfg.PlatformDomain)
}

func displayOr(display, raw string) string {
	if display == "" {
		return raw
	}
	return display
}
