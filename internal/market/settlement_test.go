package market

import (
	"errors"
	"math"
	"testing"

	"github.com/nftbay/marketd/internal/domain"
)

func TestComputeSplit(t *testing.T) {
	tests := []struct {
		name    string
		amount  uint64
		feeBps  uint64
		roy     domain.RoyaltyInfo
		want    Split
		wantErr error
	}{
		{
			name:   "five percent fee with 2/100 royalty",
			amount: 1000,
			feeBps: 500,
			roy:    domain.RoyaltyInfo{Recipient: artist, Numerator: 2, Denominator: 100},
			want:   Split{Fee: 50, Royalty: 20, Remainder: 930},
		},
		{
			name:   "no royalty",
			amount: 1000,
			feeBps: 250,
			want:   Split{Fee: 25, Royalty: 0, Remainder: 975},
		},
		{
			name:   "zero amount",
			amount: 0,
			feeBps: 500,
			roy:    domain.RoyaltyInfo{Recipient: artist, Numerator: 1, Denominator: 10},
			want:   Split{},
		},
		{
			name:   "floor division truncates",
			amount: 999,
			feeBps: 500,
			roy:    domain.RoyaltyInfo{Recipient: artist, Numerator: 1, Denominator: 1000},
			// 999*500/10000 = 49.95 -> 49, 999/1000 -> 0
			want: Split{Fee: 49, Royalty: 0, Remainder: 950},
		},
		{
			name:   "full fee leaves nothing",
			amount: 100,
			feeBps: 10_000,
			want:   Split{Fee: 100, Royalty: 0, Remainder: 0},
		},
		{
			name:    "fee plus royalty exceeds amount",
			amount:  100,
			feeBps:  10_000,
			roy:     domain.RoyaltyInfo{Recipient: artist, Numerator: 1, Denominator: 10},
			wantErr: domain.ErrSplitExceedsAmount,
		},
		{
			name:    "royalty product overflow",
			amount:  math.MaxUint64,
			feeBps:  0,
			roy:     domain.RoyaltyInfo{Recipient: artist, Numerator: math.MaxUint64, Denominator: 2},
			wantErr: domain.ErrSplitExceedsAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := computeSplit(tt.amount, tt.feeBps, tt.roy)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("computeSplit err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("computeSplit: %v", err)
			}
			if got != tt.want {
				t.Errorf("computeSplit = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeSplitConservation(t *testing.T) {
	roy := domain.RoyaltyInfo{Recipient: artist, Numerator: 7, Denominator: 250}
	for amount := uint64(0); amount < 5000; amount += 37 {
		for _, feeBps := range []uint64{0, 1, 250, 500, 9999} {
			sp, err := computeSplit(amount, feeBps, roy)
			if errors.Is(err, domain.ErrSplitExceedsAmount) {
				// Near-total fee rates can push fee+royalty past the amount;
				// rejecting instead of wrapping is the required behavior.
				continue
			}
			if err != nil {
				t.Fatalf("computeSplit(%d, %d): %v", amount, feeBps, err)
			}
			if sp.Fee+sp.Royalty+sp.Remainder != amount {
				t.Fatalf("split of %d at %d bps does not conserve: %+v", amount, feeBps, sp)
			}
		}
	}
}
