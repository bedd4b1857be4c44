package market

import (
	"context"
	"errors"
	"testing"

	"github.com/nftbay/marketd/internal/domain"
)

func TestInitiateAuction(t *testing.T) {
	f := newFixture(t)
	a := asset("dune")
	id := f.mintAuctioned(t, a, 100, 3600)

	if id == 0 {
		t.Error("auction id should be non-zero")
	}
	if holder, _ := f.store.Holder(a); holder != f.engine.Custodian() {
		t.Errorf("asset holder = %s, want custodian", holder)
	}
	auc, err := f.store.GetAuction(context.Background(), a)
	if err != nil {
		t.Fatalf("GetAuction: %v", err)
	}
	if auc.HasBid() || auc.HighestBid != 0 {
		t.Errorf("fresh auction should have no bid: %+v", auc)
	}
	if auc.EndsAt() != f.now+3600 {
		t.Errorf("EndsAt = %d, want %d", auc.EndsAt(), f.now+3600)
	}
}

func TestInitiateAuctionDuplicate(t *testing.T) {
	f := newFixture(t)
	a := asset("dune")
	f.mintAuctioned(t, a, 100, 3600)

	_, err := f.engine.InitiateAuction(context.Background(), seller, a, 100, 3600)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestInitiateAuctionWhileListed(t *testing.T) {
	f := newFixture(t)
	a := asset("dune")
	f.mintListed(t, a, 500)

	_, err := f.engine.InitiateAuction(context.Background(), seller, a, 100, 3600)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

// Scenario: A bids 150, B outbids with 200. A is refunded in the same step,
// only B's escrow remains, and it equals the standing bid.
func TestBidOutbidRefundsLoser(t *testing.T) {
	f := newFixture(t)
	a := asset("dune")
	f.mintAuctioned(t, a, 100, 3600)
	f.store.Credit(bidderA, 150)
	f.store.Credit(bidderB, 200)

	if err := f.engine.Bid(context.Background(), bidderA, a, 150); err != nil {
		t.Fatalf("Bid A: %v", err)
	}
	if got := f.store.Balance(bidderA); got != 0 {
		t.Errorf("A balance after bid = %d, want 0", got)
	}

	if err := f.engine.Bid(context.Background(), bidderB, a, 200); err != nil {
		t.Fatalf("Bid B: %v", err)
	}

	// Escrow conservation: the loser is refunded in full, the winner's
	// escrow equals the standing bid.
	if got := f.store.Balance(bidderA); got != 150 {
		t.Errorf("A balance after outbid = %d, want 150", got)
	}
	if got := f.store.Balance(bidderB); got != 0 {
		t.Errorf("B balance = %d, want 0", got)
	}
	auc, err := f.store.GetAuction(context.Background(), a)
	if err != nil {
		t.Fatalf("GetAuction: %v", err)
	}
	if auc.HighestBidder != bidderB || auc.HighestBid != 200 {
		t.Errorf("auction = %+v", auc)
	}

	kinds := f.emit.kinds()
	wantTail := []string{"auction.bid", "auction.bid_refunded", "auction.bid"}
	tail := kinds[len(kinds)-3:]
	for i := range wantTail {
		if tail[i] != wantTail[i] {
			t.Errorf("event tail = %v, want %v", tail, wantTail)
			break
		}
	}
}

func TestBidRejections(t *testing.T) {
	f := newFixture(t)
	a := asset("dune")
	f.mintAuctioned(t, a, 100, 3600)
	f.store.Credit(bidderA, 1000)
	f.store.Credit(seller, 1000)

	if err := f.engine.Bid(context.Background(), bidderA, asset("missing"), 150); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("bid on missing auction err = %v, want ErrNotFound", err)
	}
	if err := f.engine.Bid(context.Background(), seller, a, 150); !errors.Is(err, domain.ErrSelfBid) {
		t.Errorf("self bid err = %v, want ErrSelfBid", err)
	}
	if err := f.engine.Bid(context.Background(), bidderA, a, 99); !errors.Is(err, domain.ErrBidTooLow) {
		t.Errorf("below min err = %v, want ErrBidTooLow", err)
	}

	if err := f.engine.Bid(context.Background(), bidderA, a, 150); err != nil {
		t.Fatalf("Bid: %v", err)
	}
	// Ties lose: strictly greater is required.
	f.store.Credit(bidderB, 150)
	if err := f.engine.Bid(context.Background(), bidderB, a, 150); !errors.Is(err, domain.ErrBidTooLow) {
		t.Errorf("tie bid err = %v, want ErrBidTooLow", err)
	}

	// Bids are accepted through the expiry instant and rejected after it.
	f.advance(3600)
	f.store.Credit(bidderB, 50)
	if err := f.engine.Bid(context.Background(), bidderB, a, 200); err != nil {
		t.Errorf("bid at expiry instant should succeed: %v", err)
	}
	f.advance(1)
	f.store.Credit(bidderA, 300)
	if err := f.engine.Bid(context.Background(), bidderA, a, 300); !errors.Is(err, domain.ErrAuctionExpired) {
		t.Errorf("late bid err = %v, want ErrAuctionExpired", err)
	}
}

func TestBidInsufficientFundsRollsBack(t *testing.T) {
	f := newFixture(t)
	a := asset("dune")
	f.mintAuctioned(t, a, 100, 3600)
	f.store.Credit(bidderA, 150)
	f.store.Credit(bidderB, 100) // cannot cover the outbid

	if err := f.engine.Bid(context.Background(), bidderA, a, 150); err != nil {
		t.Fatalf("Bid A: %v", err)
	}
	err := f.engine.Bid(context.Background(), bidderB, a, 200)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	// The failed bid must not have refunded A or touched the auction.
	if got := f.store.Balance(bidderA); got != 0 {
		t.Errorf("A balance = %d, want 0 (still escrowed)", got)
	}
	auc, _ := f.store.GetAuction(context.Background(), a)
	if auc.HighestBidder != bidderA || auc.HighestBid != 150 {
		t.Errorf("auction = %+v, want A at 150", auc)
	}
}

func TestBidRaiseOwnBid(t *testing.T) {
	f := newFixture(t)
	a := asset("dune")
	f.mintAuctioned(t, a, 100, 3600)
	// 250 total: enough for 150, then 250 after the 150 refund.
	f.store.Credit(bidderA, 250)

	if err := f.engine.Bid(context.Background(), bidderA, a, 150); err != nil {
		t.Fatalf("first bid: %v", err)
	}
	if err := f.engine.Bid(context.Background(), bidderA, a, 250); err != nil {
		t.Fatalf("raise: %v", err)
	}

	if got := f.store.Balance(bidderA); got != 0 {
		t.Errorf("A balance = %d, want 0", got)
	}
	auc, _ := f.store.GetAuction(context.Background(), a)
	if auc.HighestBid != 250 || auc.HighestBidder != bidderA {
		t.Errorf("auction = %+v", auc)
	}
}

// Scenario: the seller may not cancel once a bid stands.
func TestCancelAuction(t *testing.T) {
	f := newFixture(t)
	a := asset("dune")
	f.mintAuctioned(t, a, 100, 3600)

	if err := f.engine.CancelAuction(context.Background(), bidderA, a); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("cancel by stranger err = %v, want ErrUnauthorized", err)
	}

	f.store.Credit(bidderA, 150)
	if err := f.engine.Bid(context.Background(), bidderA, a, 150); err != nil {
		t.Fatalf("Bid: %v", err)
	}
	if err := f.engine.CancelAuction(context.Background(), seller, a); !errors.Is(err, domain.ErrBidderExists) {
		t.Errorf("cancel with bid err = %v, want ErrBidderExists", err)
	}
	// Ledger unchanged by the rejected cancel.
	if _, err := f.store.GetAuction(context.Background(), a); err != nil {
		t.Errorf("auction should remain: %v", err)
	}
}

func TestCancelAuctionNoBids(t *testing.T) {
	f := newFixture(t)
	a := asset("dune")
	f.mintAuctioned(t, a, 100, 3600)

	if err := f.engine.CancelAuction(context.Background(), seller, a); err != nil {
		t.Fatalf("CancelAuction: %v", err)
	}
	if holder, _ := f.store.Holder(a); holder != seller {
		t.Errorf("asset holder = %s, want seller", holder)
	}
	if err := f.engine.CancelAuction(context.Background(), seller, a); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second cancel err = %v, want ErrNotFound", err)
	}
}

// Scenario: B's winning 200 settles among fee, royalty, and seller, and the
// asset transfers to B.
func TestClaimSettlement(t *testing.T) {
	f := newFixture(t)
	a := asset("dune")
	f.store.SetRoyalty(a, domain.RoyaltyInfo{Recipient: artist, Numerator: 2, Denominator: 100})
	f.mintAuctioned(t, a, 100, 3600)
	f.store.Credit(bidderA, 150)
	f.store.Credit(bidderB, 200)

	if err := f.engine.Bid(context.Background(), bidderA, a, 150); err != nil {
		t.Fatalf("Bid A: %v", err)
	}
	if err := f.engine.Bid(context.Background(), bidderB, a, 200); err != nil {
		t.Fatalf("Bid B: %v", err)
	}

	// Claim at the expiry instant is still live; strictly after is required.
	f.advance(3600)
	if err := f.engine.Claim(context.Background(), bidderB, a); !errors.Is(err, domain.ErrAuctionLive) {
		t.Fatalf("claim at expiry err = %v, want ErrAuctionLive", err)
	}
	f.advance(1)

	// Only the winner may claim.
	if err := f.engine.Claim(context.Background(), bidderA, a); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("claim by loser err = %v, want ErrUnauthorized", err)
	}

	if err := f.engine.Claim(context.Background(), bidderB, a); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	if holder, _ := f.store.Holder(a); holder != bidderB {
		t.Errorf("asset holder = %s, want winner", holder)
	}
	// 200 at 5% fee and 2/100 royalty: 10 + 4 + 186.
	if got := f.store.Balance(treasury); got != 10 {
		t.Errorf("treasury = %d, want 10", got)
	}
	if got := f.store.Balance(artist); got != 4 {
		t.Errorf("artist = %d, want 4", got)
	}
	if got := f.store.Balance(seller); got != 186 {
		t.Errorf("seller = %d, want 186", got)
	}
	// Custodian holds no residual escrow value.
	if got := f.store.Balance(f.engine.Custodian()); got != 0 {
		t.Errorf("custodian balance = %d, want 0", got)
	}

	if _, err := f.store.GetAuction(context.Background(), a); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("auction should be gone, err = %v", err)
	}
	if err := f.engine.Claim(context.Background(), bidderB, a); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second claim err = %v, want ErrNotFound", err)
	}
}

func TestClaimNoBidsReturnsToSeller(t *testing.T) {
	f := newFixture(t)
	a := asset("dune")
	f.mintAuctioned(t, a, 100, 3600)
	f.advance(3601)

	// A stranger cannot take an un-bid expired auction.
	if err := f.engine.Claim(context.Background(), bidderA, a); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("claim by stranger err = %v, want ErrUnauthorized", err)
	}

	if err := f.engine.Claim(context.Background(), seller, a); err != nil {
		t.Fatalf("Claim by seller: %v", err)
	}
	if holder, _ := f.store.Holder(a); holder != seller {
		t.Errorf("asset holder = %s, want seller", holder)
	}
	if got := f.store.Balance(seller); got != 0 {
		t.Errorf("no value should move on a no-bid claim, seller = %d", got)
	}
}

func TestAuctionIDsMonotonicAcrossLedgers(t *testing.T) {
	f := newFixture(t)
	lid := f.mintListed(t, asset("x"), 100)
	aid := f.mintAuctioned(t, asset("y"), 100, 60)
	lid2 := f.mintListed(t, asset("z"), 100)

	if !(lid < aid && aid < lid2) {
		t.Errorf("ids not strictly increasing: %d, %d, %d", lid, aid, lid2)
	}
}
