package sqlite

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

// gormLogger redirige los logs de gorm al logger zap "gorm".
// Solo registra queries lentas y errores distintos de record-not-found.
type gormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger() gormlogger.Interface {
	return &gormLogger{level: gormlogger.Warn, slowThreshold: 200 * time.Millisecond}
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *gormLogger) log(ctx context.Context) *zap.Logger {
	return logger.From(ctx).Named("gorm")
}

func (g *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.log(ctx).Sugar().Infof(msg, args...)
	}
}

func (g *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.log(ctx).Sugar().Warnf(msg, args...)
	}
}

func (g *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.log(ctx).Sugar().Errorf(msg, args...)
	}
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && g.level >= gormlogger.Error:
		sql, rows := fc()
		g.log(ctx).Warn("sqlite query failed",
			zap.String("sql", sql), zap.Int64("rows", rows), logger.DurationMs(elapsed.Milliseconds()), logger.Err(err))
	case elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.log(ctx).Warn("sqlite slow query",
			zap.String("sql", sql), zap.Int64("rows", rows), logger.DurationMs(elapsed.Milliseconds()))
	}
}
