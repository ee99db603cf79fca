package callback

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	callbacklog "github.com/fatflowers/paygate/internal/app/service/callback_log"
	"github.com/fatflowers/paygate/internal/app/service/gateway"
	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/logctx"
	"github.com/fatflowers/paygate/pkg/types"
)

// Verifier is the part of the payment manager a callback drives.
type Verifier interface {
	VerifyPayment(ctx context.Context, req *gateway.UnifiedVerificationRequest) (*gateway.VerificationResponse, error)
	FindTransactionID(ctx context.Context, g types.GatewayType, authority string) (string, error)
}

type CallbackHandler struct {
	verifier Verifier
	logs     *callbacklog.Service
	log      *zap.SugaredLogger
}

func NewCallbackHandler(verifier *gateway.Manager, logs *callbacklog.Service, log *zap.SugaredLogger) *CallbackHandler {
	return newCallbackHandler(verifier, logs, log)
}

func newCallbackHandler(verifier Verifier, logs *callbacklog.Service, log *zap.SugaredLogger) *CallbackHandler {
	return &CallbackHandler{verifier: verifier, logs: logs, log: log}
}

// HandleCallback turns a bank redirect into a verification. Every callback is
// logged twice: on receipt and with its outcome. operator is set when an
// authenticated admin posted the fields, which bank transfers require.
func (h *CallbackHandler) HandleCallback(ctx context.Context, g types.GatewayType, values url.Values, operator bool) (res *gateway.VerificationResponse, resErr error) {
	parser, err := GetCallbackParser(g, values)
	if err != nil {
		return nil, err
	}
	data := parser.GetData()
	dataBytes, _ := json.Marshal(data)
	traceID := logctx.TraceID(ctx)

	txID := parser.GetTransactionID()
	if txID == "" && parser.GetAuthority() != "" {
		if id, ferr := h.verifier.FindTransactionID(ctx, g, parser.GetAuthority()); ferr == nil {
			txID = id
		}
	}

	h.logs.Save(ctx, &models.PaymentCallbackLog{
		Gateway:       g,
		UserID:        lo.EmptyableToPtr(logctx.UserID(ctx)),
		TraceID:       traceID,
		TransactionID: txID,
		Data:          datatypes.JSON(dataBytes),
		Status:        models.PaymentCallbackLogStatusReceived,
	})

	defer func() {
		resMap := map[string]any{"verification": res}
		status := models.PaymentCallbackLogStatusHandled
		if resErr != nil {
			resMap["error"] = apperr.Public(resErr, true)
			status = models.PaymentCallbackLogStatusHandleFailed
		}
		resBytes, _ := json.Marshal(resMap)
		h.logs.Save(ctx, &models.PaymentCallbackLog{
			Gateway:       g,
			UserID:        lo.EmptyableToPtr(logctx.UserID(ctx)),
			TraceID:       traceID,
			TransactionID: txID,
			Data:          datatypes.JSON(dataBytes),
			Result:        lo.ToPtr(datatypes.JSON(resBytes)),
			Status:        status,
		})
	}()

	if txID == "" {
		resErr = apperr.StaleTransaction(parser.GetAuthority())
		return nil, resErr
	}
	ctx = logctx.WithTransactionID(ctx, txID)
	res, resErr = h.verifier.VerifyPayment(ctx, &gateway.UnifiedVerificationRequest{
		TransactionID: txID,
		Authority:     parser.GetAuthority(),
		CallbackData:  data,

		OperatorConfirmed: operator,
	})
	if resErr != nil {
		logctx.FromCtx(ctx, h.log).Warnw("callback verification failed", "gateway", g, "error", resErr)
		return nil, resErr
	}
	logctx.FromCtx(ctx, h.log).Infow("callback handled", "gateway", g, "status", res.Status)
	return res, nil
}

var Module = fx.Options(
	fx.Provide(NewCallbackHandler),
)
