package domain

import "github.com/ethereum/go-ethereum/common"

// FeeDenominator is the basis-point denominator for the platform fee rate.
const FeeDenominator uint64 = 10_000

// MarketplaceConfig is the engine-wide configuration singleton: who may
// administer the marketplace, the platform cut, and where that cut is paid.
// It is created once at bootstrap and mutated only through the owner-gated
// admin operations; it is never deleted.
type MarketplaceConfig struct {
	Owner        common.Address `json:"owner"`
	FeeRateBps   uint64         `json:"fee_rate_bps"`
	FeeRecipient common.Address `json:"fee_recipient"`
}
