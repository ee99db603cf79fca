package types

import (
	"fmt"
	"strings"
)

type GatewayType string

const (
	GatewayTypeZarinPal     GatewayType = "zarinpal"
	GatewayTypeMellat       GatewayType = "mellat_bank"
	GatewayTypeSaman        GatewayType = "saman_bank"
	GatewayTypeWallet       GatewayType = "wallet"
	GatewayTypeBankTransfer GatewayType = "bank_transfer"
	GatewayTypeCrypto       GatewayType = "crypto"
)

// AllGatewayTypes lists every gateway in its canonical order. Listings and
// health snapshots iterate in this order so output is stable.
var AllGatewayTypes = []GatewayType{
	GatewayTypeZarinPal,
	GatewayTypeMellat,
	GatewayTypeSaman,
	GatewayTypeWallet,
	GatewayTypeBankTransfer,
	GatewayTypeCrypto,
}

func (g GatewayType) Valid() bool {
	for _, t := range AllGatewayTypes {
		if t == g {
			return true
		}
	}
	return false
}

// IsExternal reports whether payments on g leave the system through a bank or PSP.
func (g GatewayType) IsExternal() bool {
	return g != GatewayTypeWallet && g != ""
}

func (g GatewayType) DisplayName() string {
	switch g {
	case GatewayTypeZarinPal:
		return "ZarinPal"
	case GatewayTypeMellat:
		return "Bank Mellat"
	case GatewayTypeSaman:
		return "Saman Bank"
	case GatewayTypeWallet:
		return "Wallet"
	case GatewayTypeBankTransfer:
		return "Bank Transfer"
	case GatewayTypeCrypto:
		return "Crypto"
	}
	return string(g)
}

// ParseGatewayType accepts the canonical names plus the short aliases used by
// bank callback routes ("mellat", "saman").
func ParseGatewayType(s string) (GatewayType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "mellat":
		return GatewayTypeMellat, nil
	case "saman", "sep":
		return GatewayTypeSaman, nil
	}
	g := GatewayType(v)
	if !g.Valid() {
		return "", fmt.Errorf("unknown gateway type: %q", s)
	}
	return g, nil
}
