// Package logger expone un logger Zap único para todo el proceso con scoping por contexto.
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "kbsaas"})
//	defer logger.Sync()
//
// En handlers/services:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"))
//	log.Info("login ok", logger.UserID(u.ID))
//
// El middleware WithLogging inyecta en el contexto un logger con request_id,
// method, path y, si el request fue resuelto, tenant_id/tenant_slug.
package logger
