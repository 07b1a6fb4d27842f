package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	Token     string
	Tenant    string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimRight(c.BaseURL, "/")+path, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if c.Tenant != "" {
		req.Header.Set("X-Tenant-ID", c.Tenant)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

// call ejecuta el request, falla con status no-2xx e imprime la respuesta.
func (c *client) call(name, method, path string, payload any) error {
	status, body, err := c.do(method, path, payload)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return fmt.Errorf("%s falló: status=%d body=%s", name, status, string(body))
	}
	c.print(status, body)
	return nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	_ = godotenv.Load()

	cl := &client{
		BaseURL:   envOr("KBSAAS_URL", "http://localhost:8080"),
		Token:     envOr("KBSAAS_TOKEN", ""),
		OutFormat: envOr("KBSAAS_OUT", "text"),
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}
	var configPath string

	root := &cobra.Command{
		Use:          "kbsaas",
		Short:        "CLI de operación de la plataforma KB SaaS",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cl.BaseURL, "url", cl.BaseURL, "URL base del API (env KBSAAS_URL)")
	root.PersistentFlags().StringVar(&cl.Token, "token", cl.Token, "Access token de platform admin (env KBSAAS_TOKEN)")
	root.PersistentFlags().StringVar(&cl.OutFormat, "out", cl.OutFormat, "Formato de salida: json|text")
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("KBSAAS_CONFIG"), "YAML de configuración para los comandos locales")

	root.AddCommand(loginCmd(cl), tenantsCmd(cl), migrateCmd(&configPath), seedAdminCmd(&configPath), encryptCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func loginCmd(cl *client) *cobra.Command {
	var user, pass string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtiene un access token (sin --tenant: cuenta de plataforma)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" || pass == "" {
				return fmt.Errorf("--user y --password son requeridos")
			}
			status, body, err := cl.do(http.MethodPost, "/api/auth/login", map[string]string{
				"emailOrUsername": user,
				"password":        pass,
			})
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("login falló: status=%d body=%s", status, string(body))
			}
			var env struct {
				Data struct {
					AccessToken string `json:"accessToken"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &env); err != nil {
				return err
			}
			if cl.OutFormat == "json" {
				cl.print(status, body)
				return nil
			}
			fmt.Println(env.Data.AccessToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Email o username")
	cmd.Flags().StringVar(&pass, "password", "", "Password")
	cmd.Flags().StringVar(&cl.Tenant, "tenant", "", "Slug del tenant (opcional)")
	return cmd
}

func tenantsCmd(cl *client) *cobra.Command {
	const base = "/api/platform/admin/tenants"
	requireToken := func(cmd *cobra.Command, args []string) error {
		if cl.Token == "" {
			return fmt.Errorf("falta token (flag --token o env KBSAAS_TOKEN)")
		}
		return nil
	}
	cmd := &cobra.Command{
		Use:               "tenants",
		Short:             "Administración de tenants (vía /api/platform/admin)",
		PersistentPreRunE: requireToken,
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "Lista tenants, opcionalmente filtrados por estado",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := base
			if status != "" {
				path += "?status=" + url.QueryEscape(status)
			}
			return cl.call("list", http.MethodGet, path, nil)
		},
	}
	list.Flags().StringVar(&status, "status", "", "TRIAL|ACTIVE|SUSPENDED|CANCELLED|PENDING")

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Busca por nombre o slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("search", http.MethodGet, base+"/search?query="+url.QueryEscape(args[0]), nil)
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Detalle de un tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("get", http.MethodGet, base+"/"+url.PathEscape(args[0]), nil)
		},
	}

	setStatus := &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Cambia el estado de un tenant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{"status": strings.ToUpper(args[1])}
			return cl.call("set-status", http.MethodPut, base+"/"+url.PathEscape(args[0])+"/status", payload)
		},
	}

	members := &cobra.Command{
		Use:   "members <id>",
		Short: "Miembros de un tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("members", http.MethodGet, base+"/"+url.PathEscape(args[0])+"/members", nil)
		},
	}

	var yes bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Borra un tenant con sus usuarios e invitaciones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("operación destructiva: confirmar con --yes")
			}
			return cl.call("delete", http.MethodDelete, base+"/"+url.PathEscape(args[0]), nil)
		},
	}
	del.Flags().BoolVar(&yes, "yes", false, "Confirma el borrado")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Resumen de la flota de tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("stats", http.MethodGet, "/api/platform/admin/stats", nil)
		},
	}

	cmd.AddCommand(list, search, get, setStatus, members, del, stats)
	return cmd
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
