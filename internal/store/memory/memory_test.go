package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftbay/marketd/internal/domain"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func testAsset() domain.AssetID {
	return domain.AssetID{
		Creator:    alice,
		Collection: "gallery",
		Name:       "sunset",
		Edition:    1,
	}
}

func TestRollbackOnError(t *testing.T) {
	s := New()
	s.MintAsset(testAsset(), alice)
	s.Credit(alice, 100)

	boom := errors.New("boom")
	err := s.Do(context.Background(), func(tx domain.Tx) error {
		if err := tx.TransferValue(alice, bob, 60); err != nil {
			t.Fatalf("TransferValue: %v", err)
		}
		if err := tx.TransferAsset(alice, bob, testAsset()); err != nil {
			t.Fatalf("TransferAsset: %v", err)
		}
		if err := tx.PutListing(domain.Listing{ListingID: 1, Asset: testAsset(), Seller: alice, Price: 10}); err != nil {
			t.Fatalf("PutListing: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Do error = %v, want boom", err)
	}

	if got := s.Balance(alice); got != 100 {
		t.Errorf("alice balance after rollback = %d, want 100", got)
	}
	if holder, _ := s.Holder(testAsset()); holder != alice {
		t.Errorf("asset holder after rollback = %s, want alice", holder)
	}
	if _, err := s.GetListing(context.Background(), testAsset()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("listing after rollback: err = %v, want ErrNotFound", err)
	}
}

func TestCommitPersists(t *testing.T) {
	s := New()
	s.Credit(alice, 100)

	err := s.Do(context.Background(), func(tx domain.Tx) error {
		return tx.TransferValue(alice, bob, 40)
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := s.Balance(alice); got != 60 {
		t.Errorf("alice balance = %d, want 60", got)
	}
	if got := s.Balance(bob); got != 40 {
		t.Errorf("bob balance = %d, want 40", got)
	}
}

func TestTransferValueInsufficient(t *testing.T) {
	s := New()
	s.Credit(alice, 10)
	err := s.Do(context.Background(), func(tx domain.Tx) error {
		return tx.TransferValue(alice, bob, 11)
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestTransferAssetNotHeld(t *testing.T) {
	s := New()
	s.MintAsset(testAsset(), alice)
	err := s.Do(context.Background(), func(tx domain.Tx) error {
		return tx.TransferAsset(bob, alice, testAsset())
	})
	if !errors.Is(err, domain.ErrInsufficientAsset) {
		t.Errorf("err = %v, want ErrInsufficientAsset", err)
	}
}

func TestNextIDMonotonicAndNotBurnedOnAbort(t *testing.T) {
	s := New()
	var first uint64
	if err := s.Do(context.Background(), func(tx domain.Tx) error {
		var err error
		first, err = tx.NextID()
		return err
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}

	// An aborted transaction must not consume an id.
	boom := errors.New("boom")
	_ = s.Do(context.Background(), func(tx domain.Tx) error {
		if _, err := tx.NextID(); err != nil {
			return err
		}
		return boom
	})

	var second uint64
	if err := s.Do(context.Background(), func(tx domain.Tx) error {
		var err error
		second, err = tx.NextID()
		return err
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if second != first+1 {
		t.Errorf("second id = %d, want %d", second, first+1)
	}
}

func TestEscrowRoundTrip(t *testing.T) {
	s := New()
	asset := testAsset()
	err := s.Do(context.Background(), func(tx domain.Tx) error {
		if err := tx.PutEscrow(domain.BidEscrow{Asset: asset, Bidder: bob, Amount: 25}); err != nil {
			return err
		}
		e, ok, err := tx.GetEscrow(asset, bob)
		if err != nil || !ok {
			t.Fatalf("GetEscrow ok=%v err=%v", ok, err)
		}
		if e.Amount != 25 {
			t.Errorf("escrow amount = %d, want 25", e.Amount)
		}
		if err := tx.DeleteEscrow(asset, bob); err != nil {
			return err
		}
		_, ok, err = tx.GetEscrow(asset, bob)
		if err != nil {
			return err
		}
		if ok {
			t.Error("escrow still present after delete")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
}
