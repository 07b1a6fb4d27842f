package password

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrPolicy envuelve las razones de rechazo de una contraseña.
var ErrPolicy = errors.New("password: no cumple la política")

// PolicyError lista las reglas incumplidas.
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return ErrPolicy.Error() + ": " + strings.Join(e.Reasons, ",")
}

func (e *PolicyError) Unwrap() error { return ErrPolicy }

// Policy define la complejidad mínima. Blacklist es opcional.
type Policy struct {
	MinLength     int
	MaxLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
	Blacklist     map[string]struct{}
}

// DefaultPolicy: 8-100 caracteres, sin reglas de composición.
var DefaultPolicy = Policy{MinLength: 8, MaxLength: 100}

// Validate retorna *PolicyError (errors.Is(err, ErrPolicy)) si s no cumple.
func (p Policy) Validate(s string) error {
	var reasons []string
	n := len([]rune(s))
	if n < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		reasons = append(reasons, "too_long")
	}
	var hasU, hasL, hasD, hasS bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasS = true
		}
	}
	if p.RequireUpper && !hasU {
		reasons = append(reasons, "missing_upper")
	}
	if p.RequireLower && !hasL {
		reasons = append(reasons, "missing_lower")
	}
	if p.RequireDigit && !hasD {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !hasS {
		reasons = append(reasons, "missing_symbol")
	}
	if _, bad := p.Blacklist[strings.ToLower(strings.TrimSpace(s))]; bad {
		reasons = append(reasons, "blacklisted")
	}
	if len(reasons) > 0 {
		return &PolicyError{Reasons: reasons}
	}
	return nil
}

// LoadBlacklist lee una contraseña por línea; ignora vacías y comentarios (#).
// Un path vacío retorna una lista vacía.
func LoadBlacklist(path string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	if strings.TrimSpace(path) == "" {
		return out, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(strings.ToLower(sc.Text()))
		if s != "" && !strings.HasPrefix(s, "#") {
			out[s] = struct{}{}
		}
	}
	return out, sc.Err()
}
