package gateway

import (
	"context"

	"github.com/zoobzio/clockz"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/paygate/internal/app/service/wallet"
	"github.com/fatflowers/paygate/internal/platform/httpx"
	"github.com/fatflowers/paygate/internal/platform/mellat"
	"github.com/fatflowers/paygate/internal/platform/saman"
	"github.com/fatflowers/paygate/internal/platform/zarinpal"
	"github.com/fatflowers/paygate/pkg/config"
)

func limitsOf(c config.GatewayCommon) AmountLimits {
	return AmountLimits{Min: c.MinAmount, Max: c.MaxAmount}
}

func httpClient(c config.GatewayCommon) *httpx.Client {
	return httpx.New(httpx.Config{BaseURL: c.BaseURL, Timeout: c.Timeout})
}

// NewAdaptersFromConfig builds an adapter for every enabled gateway.
func NewAdaptersFromConfig(cfg *config.PaymentConfig, ledger Ledger, archive Archive, clock clockz.Clock, log *zap.SugaredLogger) (*Adapters, error) {
	gw := cfg.Gateways
	var list []Adapter

	if zp := gw.ZarinPal; zp.Enabled {
		common, startPay := zp.GatewayCommon, zp.StartPayURL
		if zp.Sandbox {
			common.BaseURL = zarinpal.SandboxBaseURL
			startPay = zarinpal.SandboxStartPayURL
		}
		client := zarinpal.New(httpClient(common), zarinpal.Options{
			MerchantID:  zp.MerchantID,
			AccessToken: zp.AccessToken,
			StartPayURL: startPay,
		})
		list = append(list, NewZarinPalAdapter(client, limitsOf(zp.GatewayCommon)))
	}
	if bm := gw.Mellat; bm.Enabled {
		client := mellat.New(httpClient(bm.GatewayCommon), mellat.Credentials{
			TerminalID: bm.TerminalID,
			Username:   bm.Username,
			Password:   bm.Password,
		}, bm.StartPayURL)
		list = append(list, NewMellatAdapter(client, limitsOf(bm.GatewayCommon), clock))
	}
	if sb := gw.Saman; sb.Enabled {
		client := saman.New(httpClient(sb.GatewayCommon), saman.Options{
			MerchantID: sb.MerchantID,
			Username:   sb.Username,
			Password:   sb.Password,
			PaymentURL: sb.PaymentURL,
		})
		list = append(list, NewSamanAdapter(client, limitsOf(sb.GatewayCommon), archive))
	}
	if gw.Wallet.Enabled {
		list = append(list, NewWalletAdapter(ledger, limitsOf(gw.Wallet.GatewayCommon)))
	}
	if bt := gw.BankTransfer; bt.Enabled {
		list = append(list, NewBankTransferAdapter(bt, limitsOf(bt.GatewayCommon)))
	}

	adapters, err := NewAdapters(list...)
	if err != nil {
		return nil, err
	}
	log.Infow("payment gateways registered", "gateways", adapters.Types())
	return adapters, nil
}

func ledgerFromWallet(s *wallet.Service) Ledger { return s }

func registerLifecycle(lc fx.Lifecycle, health *HealthMonitor, sweeper *Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			health.Start()
			sweeper.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := sweeper.Stop(ctx); err != nil {
				return err
			}
			return health.Stop(ctx)
		},
	})
}

// Module exposes the payment orchestration layer via Fx.
var Module = fx.Options(
	fx.Provide(
		ledgerFromWallet,
		NewAdaptersFromConfig,
		NewHealthMonitor,
		NewMemoryRegistry,
		NewGormArchive,
		NewOrderNotifier,
		NewManager,
		NewSweeper,
	),
	fx.Invoke(registerLifecycle),
)
