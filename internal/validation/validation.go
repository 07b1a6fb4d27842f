// Package validation valida campos de entrada y acumula los errores por campo.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrInvalid es el error base de cualquier falla de validación.
var ErrInvalid = errors.New("validation failed")

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s.]+$`)
	codeRe     = regexp.MustCompile(`^[0-9]{6}$`)
	// etiquetas DNS separadas por punto, al menos dos
	domainRe = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)
)

// FieldError describe un campo inválido.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors agrupa los errores de un request.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool { return target == ErrInvalid }

// Validator acumula errores; el primero por campo gana.
type Validator struct {
	errs Errors
	seen map[string]bool
}

func New() *Validator { return &Validator{seen: map[string]bool{}} }

// Check registra msg para field si cond es falso.
func (v *Validator) Check(cond bool, field, msg string) {
	if cond || v.seen[field] {
		return
	}
	v.seen[field] = true
	v.errs = append(v.errs, FieldError{Field: field, Message: msg})
}

func (v *Validator) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "es requerido")
}

// Length cuenta runas; max <= 0 no limita.
func (v *Validator) Length(field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	v.Check(n >= min, field, "es demasiado corto")
	v.Check(max <= 0 || n <= max, field, "es demasiado largo")
}

func (v *Validator) Email(field, value string) {
	v.Required(field, value)
	v.Check(IsEmail(value), field, "no es un email válido")
}

func (v *Validator) Username(field, value string, min, max int) {
	v.Required(field, value)
	v.Length(field, value, min, max)
	v.Check(IsUsername(value), field, "solo admite letras, dígitos, guiones y guiones bajos")
}

// Err retorna nil o Errors.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

func IsEmail(s string) bool { return len(s) <= 254 && emailRe.MatchString(s) }
func IsUsername(s string) bool { return usernameRe.MatchString(s) }
func IsVerificationCode(s string) bool { return codeRe.MatchString(s) }

// IsDomain valida un hostname en minúsculas sin puerto.
func IsDomain(s string) bool { return len(s) <= 253 && domainRe.MatchString(s) }
