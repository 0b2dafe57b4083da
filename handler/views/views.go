package views

import (
	"flowpool/core"

	"github.com/shopspring/decimal"
)

// Asset asset view with derived pool figures
type Asset struct {
	core.Asset
	AvailableLiquidity decimal.Decimal `json:"available_liquidity"`
	SharePrice         decimal.Decimal `json:"share_price"`
}

// NewAsset new asset view
func NewAsset(asset *core.Asset) *Asset {
	return &Asset{
		Asset:              *asset,
		AvailableLiquidity: asset.AvailableLiquidity(),
		SharePrice:         asset.SharePrice(),
	}
}

// Balance balance view; Amount is the current redeemable value of the shares
type Balance struct {
	core.Balance
	Amount decimal.Decimal `json:"amount"`
}

// NewBalance new balance view
func NewBalance(balance *core.Balance, asset *core.Asset) *Balance {
	return &Balance{
		Balance: *balance,
		Amount:  balance.Shares.Mul(asset.SharePrice()).Truncate(8),
	}
}

// Protocol protocol view with its current risk-adjusted score
type Protocol struct {
	core.Protocol
	Score decimal.Decimal `json:"score"`
}

// Allocation allocation view
type Allocation struct {
	core.Allocation
}
