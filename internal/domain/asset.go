// Package domain defines the core types of the marketplace escrow engine:
// asset identities, listing and auction records, bid escrows, the marketplace
// configuration singleton, domain events, and the transactional state
// abstraction every engine operation runs against.
package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AssetID is the globally unique identity of one non-fungible item. It is
// immutable and used as the lookup key in every ledger.
type AssetID struct {
	Creator    common.Address `json:"creator"`
	Collection string         `json:"collection"`
	Name       string         `json:"name"`
	Edition    uint64         `json:"edition"`
}

// Key renders the AssetID as the canonical ledger key
// "0xcreator/collection/name/edition".
func (a AssetID) Key() string {
	return fmt.Sprintf("%s/%s/%s/%d", strings.ToLower(a.Creator.Hex()), a.Collection, a.Name, a.Edition)
}

func (a AssetID) String() string { return a.Key() }

// IsZero reports whether the AssetID is the zero value.
func (a AssetID) IsZero() bool {
	return a.Creator == (common.Address{}) && a.Collection == "" && a.Name == "" && a.Edition == 0
}

// ParseAssetKey parses the canonical key form produced by Key.
func ParseAssetKey(key string) (AssetID, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 4 {
		return AssetID{}, fmt.Errorf("domain: malformed asset key %q", key)
	}
	if !common.IsHexAddress(parts[0]) {
		return AssetID{}, fmt.Errorf("domain: malformed creator address %q", parts[0])
	}
	edition, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil {
		return AssetID{}, fmt.Errorf("domain: malformed edition %q: %w", parts[3], err)
	}
	return AssetID{
		Creator:    common.HexToAddress(parts[0]),
		Collection: parts[1],
		Name:       parts[2],
		Edition:    edition,
	}, nil
}

// RoyaltyInfo describes the creator share of settlement proceeds for one
// asset, expressed as Numerator/Denominator. A zero Denominator means no
// royalty is due.
type RoyaltyInfo struct {
	Recipient   common.Address `json:"recipient"`
	Numerator   uint64         `json:"numerator"`
	Denominator uint64         `json:"denominator"`
}
