package types

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrSlugFormat   = errors.New("slug: formato inválido")
	ErrSlugReserved = errors.New("slug: reservado")
)

// 3-50 chars, minúsculas/dígitos/guiones, sin guion al inicio ni al final.
var slugRE = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,48}[a-z0-9]$`)

var reservedSlugs = map[string]struct{}{}

func init() {
	for _, s := range []string{
		"admin", "api", "www", "app", "dashboard", "login", "signup", "register",
		"auth", "platform", "system", "root", "support", "help", "docs", "status",
		"mail", "email", "ftp", "ssh", "test", "demo", "staging", "dev", "prod",
		"kb-saas",
	} {
		reservedSlugs[s] = struct{}{}
	}
}

// IsReservedSlug reporta si el slug está en la lista reservada.
func IsReservedSlug(slug string) bool {
	_, ok := reservedSlugs[strings.ToLower(slug)]
	return ok
}

// ValidateSlug valida formato y lista reservada.
func ValidateSlug(slug string) error {
	if !slugRE.MatchString(slug) {
		return ErrSlugFormat
	}
	if IsReservedSlug(slug) {
		return ErrSlugReserved
	}
	return nil
}
