package swap

import (
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/mwcproject/mwc-swap/swapcfg"
)

// UpdateType discriminates the tagged Update union exchanged between
// parties (spec.md §6). Go has no native tagged union, so Message carries
// one non-nil payload pointer matching Type, much as slate decoding
// dispatches on the version_info tag.
type UpdateType string

const (
	UpdateOffer       UpdateType = "offer"
	UpdateAcceptOffer UpdateType = "accept_offer"
	UpdateInitRedeem  UpdateType = "init_redeem"
	UpdateRedeem      UpdateType = "redeem"
)

// OfferUpdate is the Seller's initial offer: every term of the swap plus
// the Seller's round-1 contribution to all three slates. Every field here
// is validated by BuyApi.AcceptSwapOffer against the rules of spec.md §4.3.
type OfferUpdate struct {
	Version                            uint8
	Network                            swapcfg.Network
	SellerLockFirst                    bool
	StartTime                          time.Time
	PrimaryAmount                      uint64
	SecondaryAmount                    uint64
	SecondaryCurrency                  Currency
	RequiredMwcLockConfirmations       uint64
	RequiredSecondaryLockConfirmations uint64
	MwcLockTimeSeconds                 uint64
	SellerRedeemTime                   uint64

	Multisig          *MultisigParticipant
	LockSlate         *Slate
	RefundSlate       *Slate
	RedeemParticipant ParticipantData
}

// AcceptOfferUpdate is the Buyer's reply: its multisig round-1 payload, its
// redeem public key, and its round-1 contributions to the lock and refund
// slates.
type AcceptOfferUpdate struct {
	Multisig         *MultisigParticipant
	RedeemPublic     *btcec.PublicKey
	LockParticipant  ParticipantData
	RefundParticipant ParticipantData
}

// InitRedeemUpdate carries the Buyer's redeem slate (round-1 only, its
// output added but not yet signed by Seller) plus the adaptor signature
// that lets Seller later recover the Buyer's redeem secret once the real
// redeem kernel is observed on-chain (spec.md §4.4).
type InitRedeemUpdate struct {
	RedeemSlate      *Slate
	AdaptorSignature *btcec.ModNScalar
}

// RedeemUpdate carries the Seller's completed round-2 contribution to the
// redeem slate, letting the Buyer finalize and publish it.
type RedeemUpdate struct {
	RedeemParticipant ParticipantData
}

// BtcOfferUpdate is the BTC-specific extension of OfferUpdate: the public
// keys needed to build the 2-of-2 lock script and its height-locked refund
// branch (spec.md §9's BTC capability set).
type BtcOfferUpdate struct {
	CosignPublicKey *btcec.PublicKey
	RefundPublicKey *btcec.PublicKey
	LockTime        uint64
}

// BtcAcceptOfferUpdate is the Buyer's BTC-side counterpart: its half of the
// 2-of-2 cosigning key.
type BtcAcceptOfferUpdate struct {
	CosignPublicKey *btcec.PublicKey
}

// SecondaryUpdate wraps the currency-specific sub-payload accompanying an
// Offer or AcceptOffer message. Only BTC is implemented; the wrapper leaves
// room for other secondary currencies (spec.md §9).
type SecondaryUpdate struct {
	Currency       Currency
	BtcOffer       *BtcOfferUpdate
	BtcAcceptOffer *BtcAcceptOfferUpdate
}

// Message is the envelope exchanged between Buyer and Seller: a swap
// identifier, the sender's role, and exactly one populated Update payload
// (spec.md §6).
type Message struct {
	SwapID uuid.UUID
	Sender Role
	Type   UpdateType

	Offer           *OfferUpdate
	SecondaryUpdate *SecondaryUpdate
	AcceptOffer     *AcceptOfferUpdate
	InitRedeem      *InitRedeemUpdate
	Redeem          *RedeemUpdate
}
