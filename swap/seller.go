package swap

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/mwcproject/mwc-swap/keychain"
	"github.com/mwcproject/mwc-swap/swapcfg"
	"github.com/mwcproject/mwc-swap/swaperr"
)

// SellApi holds the Seller-role state transitions and cryptographic
// actions (spec.md §4.3's Seller DAG), grounded on the shape of the
// original implementation's BuyApi (buyer.rs) mirrored to the opposite
// role: the Seller adds its round-1 contribution to the redeem slate up
// front (it needs neither the Buyer's output key nor the slate offset) and
// signs it later in RedeemMessage, and completes the lock/refund slates
// only once the Buyer's round-1 contribution arrives.
type SellApi struct{}

// OfferParams bundles the terms a Seller offers a swap on.
type OfferParams struct {
	PrimaryAmount                      uint64
	SecondaryAmount                    uint64
	SecondaryData                      SecondaryData
	SellerLockFirst                    bool
	RequiredMwcLockConfirmations       uint64
	RequiredSecondaryLockConfirmations uint64
	MwcLockTimeSeconds                 uint64
	SellerRedeemTime                   uint64
	Height                             uint64
	LockInputs                         []Input
}

// CreateSwapOffer builds a fresh Seller swap at status Created: it derives
// the Seller's multisig contribution, stubs the lock and refund slates, and
// adds the Seller's round-1 contribution (public blind excess and nonce,
// no partial signature) to the redeem slate (the
// only slate whose Seller signing secret doesn't depend on anything the
// Buyer has yet to supply).
func (SellApi) CreateSwapOffer(
	kc keychain.Keychain, cfg *swapcfg.Config, ctx *Context,
	id uuid.UUID, swapIdx uint32, params OfferParams,
) (*Swap, error) {
	swap := NewSellerSwap(id, cfg, params.PrimaryAmount, params.SecondaryAmount, params.SellerLockFirst)
	swap.SecondaryData = params.SecondaryData
	swap.RequiredMwcLockConfirmations = params.RequiredMwcLockConfirmations
	swap.RequiredSecondaryLockConfirmations = params.RequiredSecondaryLockConfirmations
	swap.MwcLockTimeSeconds = params.MwcLockTimeSeconds
	swap.SellerRedeemTime = params.SellerRedeemTime

	multisigSecret, err := ctx.MultisigSecret(kc, swapIdx)
	if err != nil {
		return nil, &swaperr.Keychain{Reason: err.Error()}
	}

	swap.Multisig = NewMultisigBuilder(2, params.PrimaryAmount, 0, ctx.MultisigNonce)
	if err := swap.Multisig.CreateParticipant(multisigSecret); err != nil {
		return nil, err
	}

	lockFee := TxFee(len(params.LockInputs), 1, 1)
	swap.LockSlate = NewBlankSlate(2)
	swap.LockSlate.Amount = params.PrimaryAmount
	swap.LockSlate.Fee = lockFee
	swap.LockSlate.Height = params.Height
	for _, in := range params.LockInputs {
		TxAddInput(swap.LockSlate, in.Commit)
	}
	swap.LockSlate.Tx.Kernels = []Kernel{{Features: KernelFeatures{Type: KernelPlain, Fee: lockFee}}}

	refundFee := TxFee(1, 1, 1)
	swap.RefundSlate = NewBlankSlate(2)
	swap.RefundSlate.Fee = refundFee
	swap.RefundSlate.Amount = params.PrimaryAmount - refundFee
	swap.RefundSlate.LockHeight = RefundLockHeightFloor(params.Height, params.RequiredMwcLockConfirmations, params.MwcLockTimeSeconds)
	swap.RefundSlate.Tx.Kernels = []Kernel{{Features: KernelFeatures{
		Type:       KernelHeightLocked,
		Fee:        refundFee,
		LockHeight: swap.RefundSlate.LockHeight,
	}}}

	swap.RedeemSlate = NewBlankSlate(2)
	swap.RedeemSlate.Fee = TxFee(1, 1, 1)
	swap.RedeemSlate.Height = params.Height
	swap.RedeemSlate.Amount = params.PrimaryAmount - swap.RedeemSlate.Fee

	redeemSecret, err := RefundTxSecret(kc, swapIdx, multisigSecret)
	if err != nil {
		return nil, &swaperr.Keychain{Reason: err.Error()}
	}
	if err := swap.RedeemSlate.FillRound1(redeemSecret, ctx.RedeemNonce, 0); err != nil {
		return nil, err
	}

	return swap, nil
}

// OfferMessage builds the OfferUpdate a Seller sends to start a swap. The
// accompanying SecondaryUpdate is not built here.
func (SellApi) OfferMessage(swap *Swap) (*OfferUpdate, error) {
	if err := swap.expect(StatusCreated); err != nil {
		return nil, err
	}

	multisigShare, err := swap.Multisig.Export()
	if err != nil {
		return nil, err
	}

	return &OfferUpdate{
		Version:                            swap.Version,
		Network:                            swap.Network,
		SellerLockFirst:                    swap.SellerLockFirst,
		StartTime:                          swap.StartTime,
		PrimaryAmount:                      swap.PrimaryAmount,
		SecondaryAmount:                    swap.SecondaryAmount,
		SecondaryCurrency:                  swap.SecondaryCurrency,
		RequiredMwcLockConfirmations:       swap.RequiredMwcLockConfirmations,
		RequiredSecondaryLockConfirmations: swap.RequiredSecondaryLockConfirmations,
		MwcLockTimeSeconds:                 swap.MwcLockTimeSeconds,
		SellerRedeemTime:                   swap.SellerRedeemTime,
		Multisig:                           multisigShare,
		LockSlate:                          swap.LockSlate,
		RefundSlate:                        swap.RefundSlate,
		RedeemParticipant:                  swap.RedeemSlate.ParticipantData[0],
	}, nil
}

// MessageSent advances the swap after its outgoing message for the current
// status has been delivered, matching the Seller DAG's message_sent
// transitions (spec.md §4.3, §5: "message n is only sent once").
func (SellApi) MessageSent(swap *Swap) error {
	switch swap.Status {
	case StatusCreated:
		return swap.advance(StatusOffered)
	case StatusInitRedeem:
		return swap.advance(StatusRedeem)
	default:
		return swaperr.UnexpectedActionf("seller MessageSent() unexpected status %s", swap.Status)
	}
}

// AcceptOffer processes the Buyer's AcceptOfferUpdate: imports the Buyer's
// multisig and slate contributions, completes the multisig's two rounds,
// and signs the Seller's side of the lock and refund slates.
func (SellApi) AcceptOffer(kc keychain.Keychain, swapIdx uint32, swap *Swap, ctx *Context, accept *AcceptOfferUpdate) error {
	if err := swap.expect(StatusOffered); err != nil {
		return err
	}

	if err := swap.Multisig.ImportParticipant(1, accept.Multisig); err != nil {
		return err
	}
	if err := swap.Multisig.Round1(); err != nil {
		return err
	}
	if err := swap.Multisig.Round2(); err != nil {
		return err
	}

	swap.RedeemPublicKey = accept.RedeemPublic

	commit, err := swap.Multisig.Commit()
	if err != nil {
		return err
	}

	multisigSecret := swap.Multisig.LocalBlind()

	if len(swap.LockSlate.ParticipantData) == 0 {
		TxAddOutput(swap.LockSlate, commit.Bytes(), placeholderRangeProof())
		lockSecret, err := LockTxSecret(kc, swapIdx, multisigSecret)
		if err != nil {
			return &swaperr.Keychain{Reason: err.Error()}
		}
		if err := swap.LockSlate.FillRound1(lockSecret, ctx.LockNonce, 0); err != nil {
			return err
		}
		if err := swap.LockSlate.ImportParticipant(accept.LockParticipant); err != nil {
			return err
		}
		if err := swap.LockSlate.FillRound2(lockSecret, ctx.LockNonce, 0); err != nil {
			return err
		}
	} else {
		return swaperr.OneShotf("seller AcceptOffer() lock slate already signed")
	}

	if len(swap.RefundSlate.ParticipantData) == 0 {
		TxAddInput(swap.RefundSlate, commit.Bytes())
		refundSecret, err := RefundTxSecret(kc, swapIdx, multisigSecret)
		if err != nil {
			return &swaperr.Keychain{Reason: err.Error()}
		}
		if err := swap.RefundSlate.FillRound1(refundSecret, ctx.RefundNonce, 0); err != nil {
			return err
		}
		if err := swap.RefundSlate.ImportParticipant(accept.RefundParticipant); err != nil {
			return err
		}
		if err := swap.RefundSlate.FillRound2(refundSecret, ctx.RefundNonce, 0); err != nil {
			return err
		}
	} else {
		return swaperr.OneShotf("seller AcceptOffer() refund slate already signed")
	}

	if err := swap.advance(StatusAccepted); err != nil {
		return err
	}
	log.Infof("swap %v: seller accepted buyer offer response, lock and refund slates signed", swap.ID)
	return nil
}

// ObserveLockConfirmations records fresh confirmation counts for the lock
// slate on both chains, advancing Accepted -> Locked once both required
// thresholds are met.
func (SellApi) ObserveLockConfirmations(swap *Swap, mwcConfirmations, secondaryConfirmations uint64) error {
	if err := swap.expect(StatusAccepted, StatusLocked); err != nil {
		return err
	}
	swap.Confirmations.MwcLock = &mwcConfirmations
	swap.Confirmations.Secondary = &secondaryConfirmations

	if swap.Status == StatusAccepted &&
		mwcConfirmations >= swap.RequiredMwcLockConfirmations &&
		secondaryConfirmations >= swap.RequiredSecondaryLockConfirmations {
		return swap.advance(StatusLocked)
	}
	return nil
}

// InitRedeem processes the Buyer's InitRedeemUpdate: merges the Buyer's
// redeem slate contents (its input, output, and round-1 data) into the
// Seller's own redeem slate, and stores the adaptor signature.
func (SellApi) InitRedeem(swap *Swap, update *InitRedeemUpdate) error {
	if err := swap.expect(StatusLocked); err != nil {
		return err
	}
	if swap.AdaptorSignature != nil {
		return swaperr.OneShotf("seller InitRedeem() adaptor signature already set")
	}

	buyerIdx := swap.OtherParticipantID()
	buyerData := findParticipant(update.RedeemSlate.ParticipantData, buyerIdx)
	if buyerData == nil {
		return &swaperr.InvalidMessageData{Reason: "InitRedeem update missing buyer participant data"}
	}

	swap.RedeemSlate.Tx = update.RedeemSlate.Tx
	swap.RedeemSlate.Amount = update.RedeemSlate.Amount
	swap.RedeemSlate.Fee = update.RedeemSlate.Fee
	swap.RedeemSlate.Height = update.RedeemSlate.Height

	if err := swap.RedeemSlate.ImportParticipant(*buyerData); err != nil {
		return err
	}

	swap.AdaptorSignature = update.AdaptorSignature

	if err := swap.advance(StatusInitRedeem); err != nil {
		return err
	}
	log.Infof("swap %v: seller imported buyer redeem slate and adaptor signature", swap.ID)
	return nil
}

// RedeemMessage completes the Seller's round-2 contribution to the redeem
// slate and returns it for transmission (spec.md §4.3's "send RedeemUpdate"
// transition).
func (SellApi) RedeemMessage(kc keychain.Keychain, swapIdx uint32, swap *Swap, ctx *Context) (*RedeemUpdate, error) {
	if err := swap.expect(StatusInitRedeem); err != nil {
		return nil, err
	}

	multisigSecret := swap.Multisig.LocalBlind()
	redeemSecret, err := RefundTxSecret(kc, swapIdx, multisigSecret)
	if err != nil {
		return nil, &swaperr.Keychain{Reason: err.Error()}
	}

	if err := swap.RedeemSlate.FillRound2(redeemSecret, ctx.RedeemNonce, swap.ParticipantID()); err != nil {
		return nil, err
	}

	return &RedeemUpdate{RedeemParticipant: *findParticipant(swap.RedeemSlate.ParticipantData, swap.ParticipantID())}, nil
}

// RecoverBuyerRedeemSecret recovers the scalar `t` that unlocks the
// secondary chain, once the finalized redeem kernel's aggregate signature
// is observed on the MWC chain (spec.md §4.4, §4.3's "recover Buyer's
// redeem_secret by subtracting own partial sig from aggregate").
func (SellApi) RecoverBuyerRedeemSecret(swap *Swap, observedAggregateSig *btcec.ModNScalar) (*btcec.ModNScalar, error) {
	sellerPartial := findParticipant(swap.RedeemSlate.ParticipantData, swap.ParticipantID())
	if sellerPartial == nil || sellerPartial.PartialSig == nil {
		return nil, swaperr.UnexpectedActionf("seller RecoverBuyerRedeemSecret() own redeem partial signature missing")
	}
	if swap.AdaptorSignature == nil {
		return nil, swaperr.UnexpectedActionf("seller RecoverBuyerRedeemSecret() adaptor signature missing")
	}

	buyerReal := subScalars(observedAggregateSig, sellerPartial.PartialSig)
	return RecoverAdaptorSecret(buyerReal, swap.AdaptorSignature), nil
}

// Completed moves the swap to Completed once the redeem kernel has been
// observed on-chain with at least one confirmation.
func (SellApi) Completed(swap *Swap) error {
	if err := swap.expect(StatusRedeem, StatusCompleted); err != nil {
		return err
	}
	if swap.Confirmations.MwcRedeem == nil || *swap.Confirmations.MwcRedeem == 0 {
		return swaperr.UnexpectedActionf("seller Completed() redeem_confirmations is not defined")
	}
	swap.Status = StatusCompleted
	return nil
}

// findParticipant returns a pointer to the entry for id within data, or nil.
func findParticipant(data []ParticipantData, id int) *ParticipantData {
	for i := range data {
		if data[i].ID == id {
			return &data[i]
		}
	}
	return nil
}
