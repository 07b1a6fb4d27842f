package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*.txt templates/layout.html
var templateFS embed.FS

// Tipos de correo. También se usan como label de métricas.
const (
	KindVerification        = "verification"
	KindPasswordReset       = "password_reset"
	KindAccountConfirmation = "account_confirmation"
	KindTenantWelcome       = "tenant_welcome"
	KindInvitation          = "invitation"
)

var kinds = []string{
	KindVerification, KindPasswordReset, KindAccountConfirmation,
	KindTenantWelcome, KindInvitation,
}

type templates struct {
	text   map[string]*texttemplate.Template
	layout *template.Template
}

func loadTemplates() (*templates, error) {
	t := &templates{text: make(map[string]*texttemplate.Template, len(kinds))}
	for _, k := range kinds {
		tpl, err := texttemplate.ParseFS(templateFS, "templates/"+k+".txt")
		if err != nil {
			return nil, fmt.Errorf("email: template %s: %w", k, err)
		}
		t.text[k] = tpl.Option("missingkey=error")
	}
	layout, err := template.New("layout.html").Funcs(template.FuncMap{
		"isLink": isLink,
		"lines":  lines,
	}).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("email: layout: %w", err)
	}
	t.layout = layout
	return t, nil
}

// layoutData alimenta el layout HTML común.
type layoutData struct {
	Subject      string
	FromName     string
	PrimaryColor string
	Logo         string
	Paragraphs   []string
	Footer       string
}

func (t *templates) render(kind string, data any, layout layoutData) (text, html string, err error) {
	tpl, ok := t.text[kind]
	if !ok {
		return "", "", fmt.Errorf("email: template desconocido %q", kind)
	}
	var tb bytes.Buffer
	if err := tpl.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("email: render %s: %w", kind, err)
	}
	text = strings.TrimSpace(tb.String())

	layout.Paragraphs = strings.Split(text, "\n\n")
	var hb bytes.Buffer
	if err := t.layout.Execute(&hb, layout); err != nil {
		return "", "", fmt.Errorf("email: render layout %s: %w", kind, err)
	}
	if layout.Footer != "" {
		text += "\n\n--\n" + layout.Footer
	}
	return text, hb.String(), nil
}

func isLink(p string) bool {
	return (strings.HasPrefix(p, "https://") || strings.HasPrefix(p, "http://")) && !strings.ContainsAny(p, " \n")
}

func lines(p string) template.HTML {
	parts := strings.Split(p, "\n")
	for i := range parts {
		parts[i] = template.HTMLEscapeString(parts[i])
	}
	return template.HTML(strings.Join(parts, "<br>"))
}
