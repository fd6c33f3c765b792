// Package settings owns the store-wide settings singleton: branding shown by
// the storefront and the wallet addresses crypto purchases pay into.
package settings

import (
	"strings"
	"time"
)

type Settings struct {
	AppTitle    string            `json:"appTitle"`
	AppSubtitle string            `json:"appSubtitle"`
	Accent      string            `json:"accent"`
	Wallets     map[string]string `json:"wallets"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// UpdateInput is the payload of PATCH /api/settings. Wallet entries are
// merged into the stored map; an empty address removes the entry.
type UpdateInput struct {
	AppTitle    *string           `json:"appTitle"`
	AppSubtitle *string           `json:"appSubtitle"`
	Accent      *string           `json:"accent" validate:"omitempty,max=32"`
	Wallets     map[string]string `json:"wallets"`
}

// Defaults seed the singleton the first time it is read.
type Defaults struct {
	AppTitle    string
	AppSubtitle string
	Accent      string
	Wallets     map[string]string
}

// NormalizeSymbol maps a currency symbol to its wallet key: upper case with
// underscores as dashes, e.g. "usdt_trc20" becomes "USDT-TRC20".
func NormalizeSymbol(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(symbol)), "_", "-")
}

func normalizeWallets(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for symbol, addr := range in {
		key := NormalizeSymbol(symbol)
		addr = strings.TrimSpace(addr)
		if key == "" || addr == "" {
			continue
		}
		out[key] = addr
	}
	return out
}
