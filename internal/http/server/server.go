package server

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

// Run sirve hasta que ctx se cancele y luego hace un shutdown ordenado con
// server.shutdown_timeout. Cierra store y cache al salir.
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("server")
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", zap.String("addr", s.HTTP.Addr))
		if err := s.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down", zap.Duration("timeout", s.cfg.Server.ShutdownTimeout))
		return s.HTTP.Shutdown(sctx)
	})

	err := g.Wait()
	if cerr := s.Close(); cerr != nil {
		log.Warn("close failed", logger.Err(cerr))
	}
	return err
}
