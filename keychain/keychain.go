// Package keychain declares the external collaborator interface the swap
// state machine depends on for HD-key derivation and blinding-factor
// arithmetic. The concrete implementation (wallet seed, key derivation
// paths, persistence) is out of scope for this codebase -- see spec.md
// §1 -- this package only fixes the interface the swap core is written
// against.
package keychain

import "github.com/btcsuite/btcd/btcec/v2"

// Identifier names a derivation path understood by the external keychain.
// Opaque to this codebase; passed through unmodified.
type Identifier struct {
	Path  []uint32
	Value uint64
}

// ToValuePath returns a copy of the identifier carrying the given output
// value, mirroring the keychain's value-path convention used when deriving
// a redeem output key tied to a specific amount.
func (id Identifier) ToValuePath(value uint64) Identifier {
	return Identifier{Path: id.Path, Value: value}
}

// BlindSum accumulates positive and negative blinding factors the way the
// external keychain's blind_sum primitive does: add_blinding_factor /
// sub_blinding_factor contribute raw scalars, add_key_id / sub_key_id
// contribute scalars derived from a key identifier.
type BlindSum struct {
	Positive []Identifier
	Negative []Identifier
	PosKeys  [][]byte
	NegKeys  [][]byte
}

// NewBlindSum returns an empty accumulator.
func NewBlindSum() *BlindSum {
	return &BlindSum{}
}

// AddBlindingFactor adds a raw scalar (32-byte big-endian) to the sum.
func (b *BlindSum) AddBlindingFactor(k []byte) *BlindSum {
	b.PosKeys = append(b.PosKeys, k)
	return b
}

// SubBlindingFactor subtracts a raw scalar from the sum.
func (b *BlindSum) SubBlindingFactor(k []byte) *BlindSum {
	b.NegKeys = append(b.NegKeys, k)
	return b
}

// AddKeyID adds the scalar the keychain derives for id.
func (b *BlindSum) AddKeyID(id Identifier) *BlindSum {
	b.Positive = append(b.Positive, id)
	return b
}

// SubKeyID subtracts the scalar the keychain derives for id.
func (b *BlindSum) SubKeyID(id Identifier) *BlindSum {
	b.Negative = append(b.Negative, id)
	return b
}

// Keychain is the external collaborator the swap core calls into for key
// derivation and blind-sum arithmetic. A production implementation backs
// this with an HD wallet; tests back it with a deterministic in-memory
// stub.
type Keychain interface {
	// DeriveKey derives the secret key at the given identifier for the
	// given swap index.
	DeriveKey(swapIdx uint32, id Identifier) (*btcec.PrivateKey, error)

	// BlindSum resolves a BlindSum accumulator to a single secret key.
	BlindSum(sum *BlindSum) (*btcec.PrivateKey, error)
}
