package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftbay/marketd/internal/domain"
)

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(ctx context.Context, title, message string) error {
	r.titles = append(r.titles, title)
	return nil
}

func (r *recordingSender) Name() string { return "recording" }

func TestSettlementEmitterFiltersByAmount(t *testing.T) {
	rec := &recordingSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := NewNotifier([]Sender{rec}, nil, logger)
	em := NewSettlementEmitter(n, 100)

	asset := domain.AssetID{
		Creator:    common.HexToAddress("0x00000000000000000000000000000000000000c1"),
		Collection: "gallery",
		Name:       "dawn",
		Edition:    1,
	}

	em.Emit(context.Background(),
		domain.BoughtEvent{Asset: asset, Price: 50},
		domain.BoughtEvent{Asset: asset, Price: 100},
		domain.ClaimedEvent{Asset: asset, Amount: 250},
		domain.ListedEvent{Asset: asset, Price: 9_999},
	)

	if len(rec.titles) != 2 {
		t.Fatalf("sent %d notifications, want 2: %v", len(rec.titles), rec.titles)
	}
	if rec.titles[0] != "Listing sold" || rec.titles[1] != "Auction settled" {
		t.Errorf("unexpected titles: %v", rec.titles)
	}
}
