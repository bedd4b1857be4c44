package domain

import "github.com/ethereum/go-ethereum/common"

// Listing is a fixed-price sale record. One exists for an AssetID exactly
// while the engine custodies that asset for sale: created by List, removed by
// whichever of Buy or Delist happens first.
type Listing struct {
	ListingID uint64         `json:"listing_id"`
	Asset     AssetID        `json:"asset"`
	Seller    common.Address `json:"seller"`
	Price     uint64         `json:"price"`
	CreatedAt int64          `json:"created_at"`
}
