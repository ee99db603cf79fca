package callback

import (
	"net/url"
	"strings"

	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/types"
)

// CallbackParser reads one gateway's redirect parameters.
type CallbackParser interface {
	GetGateway() types.GatewayType
	// GetTransactionID is our payment id when the gateway echoes it, else "".
	GetTransactionID() string
	// GetAuthority is the provider-side handle used to find the payment otherwise.
	GetAuthority() string
	// GetData is what the adapter's VerifyPayment receives as callback data.
	GetData() map[string]string
}

// GetCallbackParser picks the parser for g. values holds the query string
// and, for POST callbacks, the form body.
func GetCallbackParser(g types.GatewayType, values url.Values) (CallbackParser, error) {
	data := flatten(values)
	switch g {
	case types.GatewayTypeZarinPal:
		return &zarinPalParser{data: data}, nil
	case types.GatewayTypeMellat:
		return &mellatParser{data: data}, nil
	case types.GatewayTypeSaman:
		return &samanParser{data: data}, nil
	case types.GatewayTypeBankTransfer:
		return &bankTransferParser{data: data}, nil
	}
	return nil, apperr.Validation("unsupported_gateway", "gateway %q has no callback", g)
}

func flatten(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = strings.TrimSpace(v[0])
		}
	}
	return out
}

// pick copies keys from data, skipping absent ones.
func pick(data map[string]string, keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := data[k]; ok {
			out[k] = v
		}
	}
	return out
}

type zarinPalParser struct{ data map[string]string }

func (p *zarinPalParser) GetGateway() types.GatewayType { return types.GatewayTypeZarinPal }
func (p *zarinPalParser) GetTransactionID() string      { return p.data["transaction_id"] }
func (p *zarinPalParser) GetAuthority() string          { return p.data["Authority"] }
func (p *zarinPalParser) GetData() map[string]string {
	return pick(p.data, "Authority", "Status")
}

type mellatParser struct{ data map[string]string }

func (p *mellatParser) GetGateway() types.GatewayType { return types.GatewayTypeMellat }
func (p *mellatParser) GetTransactionID() string      { return p.data["transaction_id"] }
func (p *mellatParser) GetAuthority() string          { return p.data["RefId"] }
func (p *mellatParser) GetData() map[string]string {
	return pick(p.data, "RefId", "ResCode", "SaleOrderId", "SaleReferenceId", "CardHolderPan", "CardHolderInfo")
}

// samanParser: SEP echoes our payment id as ResNum.
type samanParser struct{ data map[string]string }

func (p *samanParser) GetGateway() types.GatewayType { return types.GatewayTypeSaman }
func (p *samanParser) GetTransactionID() string {
	if id := p.data["ResNum"]; id != "" {
		return id
	}
	return p.data["transaction_id"]
}
func (p *samanParser) GetAuthority() string { return p.data["Token"] }
func (p *samanParser) GetData() map[string]string {
	return pick(p.data, "State", "StateCode", "ResNum", "RefNum", "MID", "TraceNo", "TRACENO", "SecurePan", "RRN", "Token")
}

type bankTransferParser struct{ data map[string]string }

func (p *bankTransferParser) GetGateway() types.GatewayType { return types.GatewayTypeBankTransfer }
func (p *bankTransferParser) GetTransactionID() string      { return p.data["transaction_id"] }
func (p *bankTransferParser) GetAuthority() string          { return p.data["reference_code"] }
func (p *bankTransferParser) GetData() map[string]string {
	return pick(p.data, "reference_code", "confirmed", "bank_reference", "confirmed_by")
}
