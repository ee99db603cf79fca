// Command api serves the paygate HTTP API: payment creation with gateway
// fallback, bank callbacks, the wallet ledger and the admin surface.
package main

// @title           paygate API
// @version         1.0
// @description     Routes payments across ZarinPal, Mellat, Saman, bank transfer and an internal wallet. A failed gateway falls back to the next healthy one. Every response is HTTP 200 with a numeric code in the body.
// @termsOfService  http://example.com/terms/

// @contact.name   paygate maintainers
// @contact.url    https://github.com/fatflowers/paygate/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8888
// @BasePath  /

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 "Bearer <jwt>"; the subject is the paying user.

// @securityDefinitions.apikey  AdminToken
// @in                          header
// @name                        X-Admin-Token
// @description                 Operator token for /api/v1/admin and bank transfer confirmations.

// @tag.name         Payment
// @tag.description  Create, verify, cancel and refund payments of the calling user.
// @tag.name         Wallet
// @tag.description  Balance and ledger history of the calling user.
// @tag.name         Webhook
// @tag.description  Bank return URLs. Gateways post here after the payer leaves the bank page.
// @tag.name         Admin
// @tag.description  Gateway health, statistics, expiry sweep, transaction listing and manual wallet operations.
// @tag.name         System
// @tag.description  Liveness.

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/paygate/internal/app"
)

func main() {
	os.Exit(run())
}

// run starts the paygate app and blocks until fx reports a shutdown signal.
// The exit code is the one carried by that signal.
func run() int {
	// the app logger is not built yet when start fails
	bootLog := zap.NewExample().Sugar()

	a := fx.New(app.Module)
	startCtx, cancel := context.WithTimeout(context.Background(), app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		bootLog.Errorw("paygate failed to start", "error", err)
		return 1
	}

	sig := <-a.Wait()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
	defer cancelStop()
	if err := a.Stop(stopCtx); err != nil {
		bootLog.Errorw("paygate failed to stop cleanly", "signal", sig.Signal, "error", err)
		return 1
	}
	return sig.ExitCode
}
