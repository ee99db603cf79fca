package wallet

import "go.uber.org/fx"

// Module exposes the wallet ledger via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
