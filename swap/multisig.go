package swap

import (
	"bytes"
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/mwcproject/mwc-swap/swaperr"
)

// MultisigParticipant is the round-1 payload one party publishes: its
// commitment share, its nonce share, and a hash of the value it believes
// it's committing to. Exported/imported as a unit, matching the wire shape
// of the original implementation's multisig::ParticipantData.
type MultisigParticipant struct {
	CommitShare *Commitment
	NonceShare  *btcec.PublicKey
	ValueHash   [32]byte
}

// valueHash lets each side confirm they agree on the value being committed
// to, without exposing the value itself to anyone watching the wire --
// spec.md §4.2's "commitment value mismatch ... detected by value hash
// comparison".
func valueHash(value uint64) [32]byte {
	var buf [8]byte
	putUint64BE(buf[:], value)
	return sha256.Sum256(buf[:])
}

// MultisigBuilder builds the joint 2-of-2 Pedersen commitment and runs the
// two-round protocol of spec.md §4.2:
//
//  1. Each party publishes Ri = riG and a nonce share.
//  2. Each party imports the counterparty's round-1 payload and derives the
//     common nonce; Round2 then marks the protocol complete for this party.
//  3. The final commitment is C = C1 + C2.
//
// No round-2 share and no joint range proof are computed by this builder.
type MultisigBuilder struct {
	numParticipants int
	value           uint64
	localIndex      int
	localNonce      *btcec.PrivateKey

	participants [2]*MultisigParticipant
	imported     [2]bool

	round1Done  bool
	round2Done  bool
	CommonNonce *btcec.PublicKey

	localBlind *btcec.PrivateKey
}

// NewMultisigBuilder constructs a builder for a 2-of-2 commitment to value,
// where this party is at localIndex (0 for Seller, 1 for Buyer) and nonce
// is this party's round-1 nonce secret.
func NewMultisigBuilder(numParticipants int, value uint64, localIndex int, nonce *btcec.PrivateKey) *MultisigBuilder {
	return &MultisigBuilder{
		numParticipants: numParticipants,
		value:           value,
		localIndex:      localIndex,
		localNonce:      nonce,
	}
}

// CreateParticipant computes this party's round-1 payload (commitment share
// under blind, nonce share under m.localNonce) and stores it at its own
// index. Fatal protocol error if called twice.
func (m *MultisigBuilder) CreateParticipant(blind *btcec.PrivateKey) error {
	if m.participants[m.localIndex] != nil {
		return swaperr.OneShotf("multisig CreateParticipant() already created local participant")
	}

	commit, err := PedersenCommit(m.value, blind)
	if err != nil {
		return &swaperr.Secp{Reason: err.Error()}
	}

	m.localBlind = blind
	m.participants[m.localIndex] = &MultisigParticipant{
		CommitShare: commit,
		NonceShare:  m.localNonce.PubKey(),
		ValueHash:   valueHash(m.value),
	}
	return nil
}

// ImportParticipant imports the counterparty's round-1 payload at id.
// Double-import of the same round is rejected, and a value-hash mismatch
// against this party's own value is rejected, per spec.md §4.2.
func (m *MultisigBuilder) ImportParticipant(id int, part *MultisigParticipant) error {
	if id < 0 || id >= m.numParticipants {
		return swaperr.UnexpectedActionf("multisig ImportParticipant() invalid participant id %d", id)
	}
	if m.imported[id] {
		return swaperr.OneShotf("multisig ImportParticipant() round 1 for participant %d already imported", id)
	}
	if id != m.localIndex {
		expect := valueHash(m.value)
		if !bytes.Equal(part.ValueHash[:], expect[:]) {
			return &swaperr.Multisig{Reason: "counterparty commitment value hash does not match"}
		}
	}

	m.participants[id] = part
	m.imported[id] = true
	return nil
}

// otherIndex returns the counterparty's participant index.
func (m *MultisigBuilder) otherIndex() int {
	if m.localIndex == 0 {
		return 1
	}
	return 0
}

// Round1 finalizes round 1: both participants' round-1 payloads must be
// present. The common nonce is derived from both nonce shares.
func (m *MultisigBuilder) Round1() error {
	mine := m.participants[m.localIndex]
	if mine == nil {
		return swaperr.UnexpectedActionf("multisig Round1() local participant not created yet")
	}
	other := m.participants[m.otherIndex()]
	if other == nil {
		return swaperr.UnexpectedActionf("multisig Round1() missing counterparty round-1 payload")
	}

	m.CommonNonce = addPublicKeys(mine.NonceShare, other.NonceShare)
	m.round1Done = true
	return nil
}

// Round2 marks round 2 complete for this party. It computes no round-2
// share or range-proof data; it only enforces ordering. Requires Round1 to
// have completed and the common nonce to be set; a missing counterparty
// round-1 payload before Round2 is a fatal protocol error.
func (m *MultisigBuilder) Round2() error {
	if !m.round1Done || m.CommonNonce == nil {
		return swaperr.UnexpectedActionf("multisig Round2() round 1 not completed")
	}
	if m.round2Done {
		return swaperr.OneShotf("multisig Round2() already completed")
	}
	m.round2Done = true
	return nil
}

// Commit returns the final joint Pedersen commitment C = C1 + C2. Requires
// both participants' round-1 payloads to be present.
func (m *MultisigBuilder) Commit() (*Commitment, error) {
	a := m.participants[0]
	b := m.participants[1]
	if a == nil || b == nil {
		return nil, swaperr.UnexpectedActionf("multisig Commit() missing a participant's commitment share")
	}
	return a.CommitShare.Add(b.CommitShare), nil
}

// Export returns this party's round-1 payload for transmission to the
// counterparty.
func (m *MultisigBuilder) Export() (*MultisigParticipant, error) {
	p := m.participants[m.localIndex]
	if p == nil {
		return nil, swaperr.UnexpectedActionf("multisig Export() local participant not created yet")
	}
	return p, nil
}

// LocalBlind returns the blinding factor this party contributed, needed by
// the BlindSum expressions of spec.md §4.5.
func (m *MultisigBuilder) LocalBlind() *btcec.PrivateKey {
	return m.localBlind
}

// MultisigSnapshot is the persistable state of a MultisigBuilder: everything
// needed to resume the protocol exactly where it left off after a process
// restart (spec.md §5's durability requirement). A nil *MultisigParticipant
// in Participants means that round-1 payload hasn't been created/imported
// yet.
type MultisigSnapshot struct {
	NumParticipants int
	Value           uint64
	LocalIndex      int
	LocalNonce      *btcec.PrivateKey
	Participants    [2]*MultisigParticipant
	Imported        [2]bool
	Round1Done      bool
	Round2Done      bool
	CommonNonce     *btcec.PublicKey
	LocalBlindKey   *btcec.PrivateKey
}

// Snapshot captures the builder's current state for persistence.
func (m *MultisigBuilder) Snapshot() MultisigSnapshot {
	return MultisigSnapshot{
		NumParticipants: m.numParticipants,
		Value:           m.value,
		LocalIndex:      m.localIndex,
		LocalNonce:      m.localNonce,
		Participants:    m.participants,
		Imported:        m.imported,
		Round1Done:      m.round1Done,
		Round2Done:      m.round2Done,
		CommonNonce:     m.CommonNonce,
		LocalBlindKey:   m.localBlind,
	}
}

// RestoreMultisigBuilder reconstructs a MultisigBuilder from a snapshot
// produced by Snapshot.
func RestoreMultisigBuilder(s MultisigSnapshot) *MultisigBuilder {
	return &MultisigBuilder{
		numParticipants: s.NumParticipants,
		value:           s.Value,
		localIndex:      s.LocalIndex,
		localNonce:      s.LocalNonce,
		participants:    s.Participants,
		imported:        s.Imported,
		round1Done:      s.Round1Done,
		round2Done:      s.Round2Done,
		CommonNonce:     s.CommonNonce,
		localBlind:      s.LocalBlindKey,
	}
}
