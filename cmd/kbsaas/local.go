package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kobecorporation/kbsaas/internal/bootstrap"
	"github.com/kobecorporation/kbsaas/internal/config"
	"github.com/kobecorporation/kbsaas/internal/http/server"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
	"github.com/kobecorporation/kbsaas/internal/security/password"
	"github.com/kobecorporation/kbsaas/internal/security/secretbox"
	"github.com/kobecorporation/kbsaas/internal/store"
)

// Los comandos locales abren el store directamente con la configuración.

func loadLocal(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "kbsaas-cli"})
	return cfg, nil
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas del driver configurado",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadLocal(*configPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			cfg.Storage.AutoMigrate = false
			st, err := server.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := store.Migrate(ctx, st)
			if err != nil {
				return err
			}
			fmt.Printf("driver=%s applied=%v skipped=%d (%s)\n",
				st.Driver(), res.Applied, len(res.Skipped), res.Duration.Truncate(time.Millisecond))
			return nil
		},
	}
}

func seedAdminCmd(configPath *string) *cobra.Command {
	var email, username, pass string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Crea el platform admin si no existe",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadLocal(*configPath)
			if err != nil {
				return err
			}
			if email == "" {
				email = cfg.Bootstrap.AdminEmail
			}
			if username == "" {
				username = cfg.Bootstrap.AdminUsername
			}
			if pass == "" {
				pass = cfg.Bootstrap.AdminPassword
			}

			policy, err := server.PasswordPolicy(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, err := server.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := bootstrap.EnsurePlatformAdmin(ctx, bootstrap.AdminConfig{
				Store:    st,
				Hasher:   password.NewHasher(password.Default),
				Policy:   policy,
				Email:    email,
				Username: username,
				Password: pass,
				Prod:     cfg.IsProd(),
			})
			if err != nil {
				return err
			}
			if !res.Created {
				fmt.Printf("platform admin ya existe: id=%s email=%s\n", res.User.ID, res.User.Email)
				return nil
			}
			fmt.Printf("platform admin creado: id=%s email=%s\n", res.User.ID, res.User.Email)
			if res.GeneratedPassword != "" {
				fmt.Printf("password generado (cambiarlo tras el primer login): %s\n", res.GeneratedPassword)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email (default bootstrap.admin_email)")
	cmd.Flags().StringVar(&username, "username", "", "Username (default bootstrap.admin_username)")
	cmd.Flags().StringVar(&pass, "password", "", "Password (vacío: se genera fuera de prod)")
	return cmd
}

func encryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <valor>",
		Short: "Cifra un secreto para la configuración (usa " + config.SecretKeyEnv + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := os.Getenv(config.SecretKeyEnv)
			if key == "" {
				return fmt.Errorf("%s no seteada; generar una con: openssl rand -base64 32", config.SecretKeyEnv)
			}
			box, err := secretbox.New(key)
			if err != nil {
				return err
			}
			sealed, err := box.Seal(args[0])
			if err != nil {
				return err
			}
			fmt.Println(secretbox.Prefix + sealed)
			return nil
		},
	}
}
