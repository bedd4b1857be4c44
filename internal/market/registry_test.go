package market

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftbay/marketd/internal/domain"
)

func TestBootstrapIdempotent(t *testing.T) {
	f := newFixture(t)

	// A second bootstrap must not clobber the existing configuration.
	err := f.engine.Bootstrap(context.Background(), domain.MarketplaceConfig{
		Owner:        buyer,
		FeeRateBps:   9999,
		FeeRecipient: buyer,
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	cfg, err := f.store.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if cfg.Owner != owner || cfg.FeeRateBps != 500 || cfg.FeeRecipient != treasury {
		t.Errorf("config = %+v, want original", cfg)
	}
}

func TestSetOwner(t *testing.T) {
	f := newFixture(t)
	next := common.HexToAddress("0x0000000000000000000000000000000000000009")

	if err := f.engine.SetOwner(context.Background(), buyer, next); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("set owner by stranger err = %v, want ErrUnauthorized", err)
	}
	if err := f.engine.SetOwner(context.Background(), owner, next); err != nil {
		t.Fatalf("SetOwner: %v", err)
	}

	// The old owner lost control, the new one has it.
	if err := f.engine.SetFeeRate(context.Background(), owner, 100); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("old owner err = %v, want ErrUnauthorized", err)
	}
	if err := f.engine.SetFeeRate(context.Background(), next, 100); err != nil {
		t.Errorf("new owner SetFeeRate: %v", err)
	}
}

func TestSetFeeRateBounds(t *testing.T) {
	f := newFixture(t)

	if err := f.engine.SetFeeRate(context.Background(), owner, domain.FeeDenominator); err != nil {
		t.Errorf("rate at denominator should be accepted: %v", err)
	}
	if err := f.engine.SetFeeRate(context.Background(), owner, domain.FeeDenominator+1); !errors.Is(err, domain.ErrFeeRateTooHigh) {
		t.Errorf("err = %v, want ErrFeeRateTooHigh", err)
	}
	cfg, _ := f.store.GetConfig(context.Background())
	if cfg.FeeRateBps != domain.FeeDenominator {
		t.Errorf("fee rate = %d, want %d", cfg.FeeRateBps, domain.FeeDenominator)
	}
}

func TestSetFeeRecipient(t *testing.T) {
	f := newFixture(t)
	vault := common.HexToAddress("0x0000000000000000000000000000000000000042")

	if err := f.engine.SetFeeRecipient(context.Background(), seller, vault); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
	if err := f.engine.SetFeeRecipient(context.Background(), owner, vault); err != nil {
		t.Fatalf("SetFeeRecipient: %v", err)
	}
	cfg, _ := f.store.GetConfig(context.Background())
	if cfg.FeeRecipient != vault {
		t.Errorf("fee recipient = %s, want %s", cfg.FeeRecipient, vault)
	}

	// Fees from a subsequent sale land at the new recipient.
	a := asset("after-change")
	f.mintListed(t, a, 1000)
	f.store.Credit(buyer, 1000)
	if err := f.engine.Buy(context.Background(), buyer, a); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if got := f.store.Balance(vault); got != 50 {
		t.Errorf("vault balance = %d, want 50", got)
	}
}

func TestOwnerChangeKeepsCustody(t *testing.T) {
	f := newFixture(t)
	a := asset("held")
	f.mintListed(t, a, 1000)

	next := common.HexToAddress("0x0000000000000000000000000000000000000009")
	if err := f.engine.SetOwner(context.Background(), owner, next); err != nil {
		t.Fatalf("SetOwner: %v", err)
	}

	// The listing survives the owner change and the seller can still delist.
	if err := f.engine.Delist(context.Background(), seller, a); err != nil {
		t.Errorf("Delist after owner change: %v", err)
	}
}
