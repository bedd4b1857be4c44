package market

import (
	"fmt"
	"math/bits"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftbay/marketd/internal/domain"
)

// Split is the three-way division of a settlement amount. The parts always
// sum exactly to the amount they were computed from.
type Split struct {
	Fee       uint64
	Royalty   uint64
	Remainder uint64
}

// mulDiv computes floor(amount * num / den) and fails instead of wrapping
// when the product overflows 64 bits.
func mulDiv(amount, num, den uint64) (uint64, error) {
	hi, lo := bits.Mul64(amount, num)
	if hi >= den {
		return 0, fmt.Errorf("market: %d * %d / %d overflows: %w", amount, num, den, domain.ErrSplitExceedsAmount)
	}
	q, _ := bits.Div64(hi, lo, den)
	return q, nil
}

// computeSplit applies the shared settlement arithmetic of the buy and claim
// paths: platform fee in basis points, creator royalty as a fraction, and the
// seller remainder. It fails when fee plus royalty exceeds the amount rather
// than letting the remainder wrap.
func computeSplit(amount, feeRateBps uint64, roy domain.RoyaltyInfo) (Split, error) {
	fee, err := mulDiv(amount, feeRateBps, domain.FeeDenominator)
	if err != nil {
		return Split{}, err
	}

	var royalty uint64
	if roy.Denominator > 0 {
		royalty, err = mulDiv(amount, roy.Numerator, roy.Denominator)
		if err != nil {
			return Split{}, err
		}
	}

	if fee > amount || royalty > amount-fee {
		return Split{}, fmt.Errorf("market: fee %d + royalty %d against %d: %w",
			fee, royalty, amount, domain.ErrSplitExceedsAmount)
	}
	return Split{Fee: fee, Royalty: royalty, Remainder: amount - fee - royalty}, nil
}

// paySplit moves the three shares from payer: fee to the configured fee
// recipient, royalty to the asset's royalty recipient, remainder to the
// seller. Zero shares move nothing. The transfers happen inside the caller's
// transaction, so a failure of any leg undoes the others.
func paySplit(tx domain.Tx, payer, seller common.Address, cfg domain.MarketplaceConfig, roy domain.RoyaltyInfo, sp Split) error {
	if err := tx.TransferValue(payer, cfg.FeeRecipient, sp.Fee); err != nil {
		return err
	}
	if sp.Royalty > 0 {
		if err := tx.TransferValue(payer, roy.Recipient, sp.Royalty); err != nil {
			return err
		}
	}
	return tx.TransferValue(payer, seller, sp.Remainder)
}
