package gormlog

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"github.com/fatflowers/paygate/pkg/logctx"
)

// ZapLogger routes gorm logs to zap, picking up the request logger from ctx.
type ZapLogger struct {
	base  *zap.SugaredLogger
	level gormlogger.LogLevel
	slow  time.Duration
}

type Option func(*ZapLogger)

func WithSlowThreshold(d time.Duration) Option {
	return func(z *ZapLogger) { z.slow = d }
}

func WithLevel(l gormlogger.LogLevel) Option {
	return func(z *ZapLogger) { z.level = l }
}

func New(base *zap.SugaredLogger, opts ...Option) *ZapLogger {
	z := &ZapLogger{base: base, level: gormlogger.Warn, slow: 300 * time.Millisecond}
	for _, o := range opts {
		o(z)
	}
	return z
}

func (z *ZapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *z
	cp.level = level
	return &cp
}

func (z *ZapLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if z.level >= gormlogger.Info {
		logctx.FromCtx(ctx, z.base).Infow(msg, "args", data)
	}
}

func (z *ZapLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if z.level >= gormlogger.Warn {
		logctx.FromCtx(ctx, z.base).Warnw(msg, "args", data)
	}
}

func (z *ZapLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if z.level >= gormlogger.Error {
		logctx.FromCtx(ctx, z.base).Errorw(msg, "args", data)
	}
}

func (z *ZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if z.level == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	lg := logctx.FromCtx(ctx, z.base)
	sql, rows := fc()
	fields := []interface{}{
		"sql", sql,
		"rows", rows,
		"elapsed_ms", elapsed.Milliseconds(),
		"caller", trimCaller(utils.FileWithLineNum()),
	}
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && z.level >= gormlogger.Error:
		lg.Errorw("gorm_error", append(fields, "err", err)...)
	case z.slow > 0 && elapsed > z.slow && z.level >= gormlogger.Warn:
		lg.Warnw("gorm_slow", fields...)
	case z.level >= gormlogger.Info:
		lg.Debugw("gorm", fields...)
	}
}

// trimCaller turns an absolute source path into a module-relative one,
// e.g. /home/ci/paygate/internal/platform/db/db.go:40 -> internal/platform/db/db.go:40.
func trimCaller(s string) string {
	p := strings.ReplaceAll(s, `\`, "/")
	for _, root := range []string{"/internal/", "/pkg/", "/cmd/"} {
		if i := strings.LastIndex(p, root); i >= 0 {
			return p[i+1:]
		}
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
