// Package custodian provides the delegated custodian identity: the single
// engine-controlled account that holds every custodied asset and locked bid
// escrow, and under which listing/auction identifiers are issued. It is
// deliberately separate from the administrative owner so that changing the
// owner never migrates held assets or invalidates outstanding records.
package custodian

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nftbay/marketd/internal/domain"
)

// derivationTag namespaces the custodian derivation so a seed reused by
// another deployment component cannot collide with the custodian address.
const derivationTag = "marketd/custodian/v1/"

// Custodian is the engine's internal authority. Only the address leaves this
// package; nothing else about the derivation is exposed.
type Custodian struct {
	addr common.Address
}

// Derive deterministically resolves the custodian identity from the
// deployment seed. The same seed always yields the same address, so restarts
// keep custody of previously held assets.
func Derive(seed string) (*Custodian, error) {
	if seed == "" {
		return nil, errors.New("custodian: empty derivation seed")
	}
	digest := crypto.Keccak256([]byte(derivationTag + seed))
	return &Custodian{addr: common.BytesToAddress(digest[12:])}, nil
}

// Address resolves the custodian identity. It never fails once derived.
func (c *Custodian) Address() common.Address {
	return c.addr
}

// NextID issues the next strictly increasing identifier under the custodian
// identity, drawn from the transactional counter so an aborted operation
// never burns an id that a later observer has seen.
func (c *Custodian) NextID(tx domain.Tx) (uint64, error) {
	return tx.NextID()
}
