package logctx

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ctxKey string

// Keys shared by the middleware and the services. Gin stores the same values
// under the string form of each key.
const (
	KeyLogger  ctxKey = "logger"
	KeyTraceID ctxKey = "traceID"
	KeyUserID  ctxKey = "user_id"
	KeyTxID    ctxKey = "transaction_id"
)

func (k ctxKey) String() string { return string(k) }

// FromGin returns a request-scoped logger from gin.Context if present,
// otherwise returns the provided base logger.
func FromGin(c *gin.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return base
	}
	if l, ok := c.Get(KeyLogger.String()); ok {
		if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
			return lg
		}
	}
	return FromCtx(c.Request.Context(), base)
}

// FromCtx returns the logger stored in ctx, or base enriched with trace_id and
// user_id when those are present.
func FromCtx(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if ctx == nil {
		return base
	}
	if lg, ok := ctx.Value(KeyLogger).(*zap.SugaredLogger); ok && lg != nil {
		return lg
	}
	var fields []interface{}
	if tid := TraceID(ctx); tid != "" {
		fields = append(fields, "trace_id", tid)
	}
	if uid := UserID(ctx); uid != "" {
		fields = append(fields, "user_id", uid)
	}
	if txid := TransactionID(ctx); txid != "" {
		fields = append(fields, "transaction_id", txid)
	}
	if len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}

func WithLogger(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, KeyLogger, l)
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, KeyTraceID, id)
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, KeyUserID, id)
}

func TraceID(ctx context.Context) string {
	s, _ := ctx.Value(KeyTraceID).(string)
	return s
}

func UserID(ctx context.Context) string {
	s, _ := ctx.Value(KeyUserID).(string)
	return s
}

// WithTransactionID tags ctx with the payment being worked on so provider
// calls and ledger writes log under the same id.
func WithTransactionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, KeyTxID, id)
}

func TransactionID(ctx context.Context) string {
	s, _ := ctx.Value(KeyTxID).(string)
	return s
}
