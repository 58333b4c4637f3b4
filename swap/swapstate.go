package swap

import (
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/mwcproject/mwc-swap/swapcfg"
	"github.com/mwcproject/mwc-swap/swaperr"
)

// SecondaryData is the capability set a secondary-chain implementation must
// expose to the core (spec.md §9): deriving the lock address, reporting the
// lock time and confirmation count, and producing the spending script. BTC
// is the only implementation today; the interface leaves room for others.
type SecondaryData interface {
	Currency() Currency
	LockAddress() (string, error)
	LockTime() uint64
	ConfirmationCount() uint64
	SpendingScript() ([]byte, error)
}

// Confirmations tracks the observed confirmation count for a slate's
// transaction, nil until first observed.
type Confirmations struct {
	MwcLock    *uint64
	MwcRefund  *uint64
	MwcRedeem  *uint64
	Secondary  *uint64
}

// Swap is the central per-swap ledger (spec.md §3): every piece of state
// needed to drive one swap forward from either role's side.
type Swap struct {
	ID              uuid.UUID
	Version         uint8
	Network         swapcfg.Network
	Role            Role
	SellerLockFirst bool
	StartTime       time.Time
	Status          Status

	PrimaryAmount     uint64
	SecondaryAmount   uint64
	SecondaryCurrency Currency
	SecondaryData     SecondaryData

	RedeemPublicKey *btcec.PublicKey
	ParticipantIdx  int

	Multisig *MultisigBuilder

	LockSlate   *Slate
	RefundSlate *Slate
	RedeemSlate *Slate

	Confirmations Confirmations

	AdaptorSignature *btcec.ModNScalar

	RequiredMwcLockConfirmations       uint64
	RequiredSecondaryLockConfirmations uint64
	MwcLockTimeSeconds                 uint64
	SellerRedeemTime                   uint64

	lastMessageSent     []byte
	lastMessageReceived []byte
}

// ParticipantID returns this swap's own participant index: 0 for Seller, 1
// for Buyer (spec.md §3 invariant).
func (s *Swap) ParticipantID() int {
	if s.Role == RoleSeller {
		return 0
	}
	return 1
}

// OtherParticipantID returns the counterparty's participant index.
func (s *Swap) OtherParticipantID() int {
	if s.ParticipantID() == 0 {
		return 1
	}
	return 0
}

// expect asserts the swap is in one of the given statuses, returning
// UnexpectedStatus otherwise. Every role API method calls this first,
// matching the original implementation's precondition-per-method structure
// (buyer.rs's expect! macro, spec.md §4.3/§5).
func (s *Swap) expect(allowed ...Status) error {
	for _, st := range allowed {
		if s.Status == st {
			return nil
		}
	}
	return &swaperr.UnexpectedStatus{Expected: allowed[0].String(), Got: s.Status.String()}
}

// advance moves the swap to next, asserting the move is forward-only (spec.md
// §3's "status transitions are monotonic" invariant). Statuses are declared
// in DAG order via their iota values, so a numerically smaller target is a
// bug, not user error -- it trips an UnexpectedAction rather than silently
// no-op'ing.
func (s *Swap) advance(next Status) error {
	if next < s.Status && next != StatusCancelled && next != StatusRefunded {
		return swaperr.UnexpectedActionf("swap advance() refusing to move status backward from %s to %s", s.Status, next)
	}
	s.Status = next
	return nil
}

// NewSellerSwap constructs a fresh Swap for the Seller role at offer time.
func NewSellerSwap(id uuid.UUID, cfg *swapcfg.Config, primaryAmount, secondaryAmount uint64, sellerLockFirst bool) *Swap {
	return &Swap{
		ID:                id,
		Version:           swapcfg.CurrentVersion,
		Network:           cfg.Network,
		Role:              RoleSeller,
		SellerLockFirst:   sellerLockFirst,
		StartTime:         cfg.Clock.Now(),
		Status:            StatusCreated,
		PrimaryAmount:     primaryAmount,
		SecondaryAmount:   secondaryAmount,
		SecondaryCurrency: CurrencyBtc,
		ParticipantIdx:    0,
	}
}

// NewBuyerSwap constructs a fresh Swap for the Buyer role on accepting an
// offer.
func NewBuyerSwap(id uuid.UUID, cfg *swapcfg.Config, primaryAmount, secondaryAmount uint64, sellerLockFirst bool) *Swap {
	return &Swap{
		ID:                id,
		Version:           swapcfg.CurrentVersion,
		Network:           cfg.Network,
		Role:              RoleBuyer,
		SellerLockFirst:   sellerLockFirst,
		StartTime:         cfg.Clock.Now(),
		Status:            StatusCreated,
		PrimaryAmount:     primaryAmount,
		SecondaryAmount:   secondaryAmount,
		SecondaryCurrency: CurrencyBtc,
		ParticipantIdx:    1,
	}
}

// RefundLockHeightFloor computes the minimum acceptable refund_slate lock
// height for a given chain tip, per spec.md §4.3's Buyer validation formula.
func RefundLockHeightFloor(tip uint64, requiredMwcLockConfirmations, mwcLockTimeSeconds uint64) uint64 {
	a := 2*requiredMwcLockConfirmations + 10
	b1 := mwcLockTimeSeconds / 120
	b2 := uint64(0)
	if mwcLockTimeSeconds/60 > 10 {
		b2 = mwcLockTimeSeconds/60 - 10
	}
	b := b1
	if b2 > b {
		b = b2
	}
	floor := a
	if b > floor {
		floor = b
	}
	return tip + floor
}

// ExpectedBtcLockTime computes the BTC lock timestamp a Buyer expects to
// observe given the refund slate's lock height, per spec.md §4.3.
func ExpectedBtcLockTime(now time.Time, tip, refundLockHeight, sellerRedeemTime uint64) uint64 {
	blocksRemaining := refundLockHeight - tip
	return uint64(now.Unix()) + blocksRemaining*60 + sellerRedeemTime
}

// BtcLockTimeWithinTolerance reports whether observed is within 5% of
// expected (spec.md §4.3, S5).
func BtcLockTimeWithinTolerance(expected, observed, sellerRedeemTime uint64) bool {
	tolerance := sellerRedeemTime / 20
	var diff uint64
	if observed > expected {
		diff = observed - expected
	} else {
		diff = expected - observed
	}
	return diff <= tolerance
}
