package swap

import (
	"github.com/google/uuid"
	"github.com/mwcproject/mwc-swap/keychain"
	"github.com/mwcproject/mwc-swap/nodeclient"
	"github.com/mwcproject/mwc-swap/swapcfg"
	"github.com/mwcproject/mwc-swap/swaperr"
)

// BuyApi holds the Buyer-role state transitions and cryptographic actions
// (spec.md §4.3's Buyer DAG), grounded directly on the original
// implementation's BuyApi (buyer.rs).
type BuyApi struct{}

// AcceptSwapOffer validates a Seller's OfferUpdate against every rule of
// spec.md §4.3 and, if it passes, builds the Buyer's Swap record: imports
// the Seller's multisig share, completes the joint commitment, and signs
// the Buyer's side of the lock and refund slates. Any validation failure
// returns InvalidMessageData (or a more specific error) and builds nothing.
func (BuyApi) AcceptSwapOffer(
	kc keychain.Keychain, cfg *swapcfg.Config, ctx *Context, nc nodeclient.Client,
	id uuid.UUID, swapIdx uint32,
	offer *OfferUpdate, secondaryUpdate *SecondaryUpdate, secondaryData SecondaryData,
) (*Swap, error) {
	now := cfg.Clock.Now()

	if offer.Version != swapcfg.CurrentVersion {
		return nil, &swaperr.IncompatibleVersion{Got: offer.Version, Expected: swapcfg.CurrentVersion}
	}
	if offer.Network != cfg.Network {
		return nil, &swaperr.UnexpectedNetwork{Reason: "offer is for network " + offer.Network.String()}
	}
	if offer.StartTime.After(now.Add(swapcfg.ClockSkewTolerance)) {
		return nil, &swaperr.InvalidMessageData{Reason: "Buyer/Seller clock are out of sync"}
	}

	lockSlate := offer.LockSlate
	if lockSlate.LockHeight != 0 {
		return nil, &swaperr.InvalidLockHeightLockTx{}
	}
	if lockSlate.Amount != offer.PrimaryAmount {
		return nil, &swaperr.InvalidMessageData{Reason: "Lock Slate amount doesn't match offer"}
	}
	if lockSlate.Fee != TxFee(len(lockSlate.Tx.Inputs), len(lockSlate.Tx.Outputs)+1, 1) {
		return nil, &swaperr.InvalidMessageData{Reason: "Lock Slate fee doesn't match expected value"}
	}
	if lockSlate.NumParticipants != 2 {
		return nil, &swaperr.InvalidMessageData{Reason: "Lock Slate participants doesn't match expected value"}
	}
	if len(lockSlate.Tx.Kernels) != 1 {
		return nil, &swaperr.InvalidMessageData{Reason: "Lock Slate invalid kernels"}
	}
	if lockSlate.Tx.Kernels[0].Features.Type != KernelPlain || lockSlate.Tx.Kernels[0].Features.Fee != lockSlate.Fee {
		return nil, &swaperr.InvalidMessageData{Reason: "Lock Slate invalid kernel fee or feature"}
	}
	if len(lockSlate.Tx.Inputs) == 0 {
		return nil, &swaperr.InvalidMessageData{Reason: "Lock Slate empty inputs"}
	}

	var commits []nodeclient.Commit
	for _, in := range lockSlate.Tx.Inputs {
		commits = append(commits, nodeclient.Commit(in.Commit))
	}
	present, err := nc.GetOutputsFromNode(commits)
	if err != nil {
		return nil, &swaperr.IO{Reason: err.Error()}
	}
	if len(present) != len(lockSlate.Tx.Inputs) {
		return nil, &swaperr.InvalidMessageData{Reason: "Lock Slate inputs are not found at the chain"}
	}

	tip, _, err := nc.GetChainTip()
	if err != nil {
		return nil, &swaperr.IO{Reason: err.Error()}
	}
	if lockSlate.Height > tip {
		return nil, &swaperr.InvalidMessageData{Reason: "Lock Slate height is invalid"}
	}

	refundSlate := offer.RefundSlate
	if refundSlate.LockHeight < RefundLockHeightFloor(tip, offer.RequiredMwcLockConfirmations, offer.MwcLockTimeSeconds) {
		return nil, &swaperr.InvalidMessageData{Reason: "Refund lock slate doesn't meet required number of confirmations"}
	}
	if len(refundSlate.Tx.Kernels) != 1 {
		return nil, &swaperr.InvalidMessageData{Reason: "Refund Slate invalid kernel"}
	}
	rk := refundSlate.Tx.Kernels[0]
	if rk.Features.Type != KernelHeightLocked || rk.Features.Fee != refundSlate.Fee || rk.Features.LockHeight != refundSlate.LockHeight {
		return nil, &swaperr.InvalidMessageData{Reason: "Refund Slate invalid kernel fee or height"}
	}
	if refundSlate.NumParticipants != 2 {
		return nil, &swaperr.InvalidMessageData{Reason: "Refund Slate participants doesn't match expected value"}
	}
	if refundSlate.Amount+refundSlate.Fee != lockSlate.Amount {
		return nil, &swaperr.InvalidMessageData{Reason: "Refund Slate amount doesn't match offer"}
	}
	if refundSlate.Fee != TxFee(1, 1, 1) {
		return nil, &swaperr.InvalidMessageData{Reason: "Refund Slate fee doesn't match expected value"}
	}

	if offer.SecondaryCurrency != CurrencyBtc {
		return nil, &swaperr.InvalidMessageData{Reason: "Unexpected currency value"}
	}

	expectedBtcLockTime := ExpectedBtcLockTime(now, tip, refundSlate.LockHeight, offer.SellerRedeemTime)
	if !BtcLockTimeWithinTolerance(expectedBtcLockTime, secondaryData.LockTime(), offer.SellerRedeemTime) {
		return nil, &swaperr.InvalidMessageData{Reason: "Secondary lock time is different from the expected"}
	}

	redeemSlate := NewBlankSlate(2)
	if cfg.TestMode {
		redeemSlate.ID = swapcfg.TestRedeemSlateUUID()
	}
	redeemSlate.Fee = TxFee(1, 1, 1)
	redeemSlate.Height = tip
	redeemSlate.Amount = saturatingSub(offer.PrimaryAmount, redeemSlate.Fee)
	if err := redeemSlate.ImportParticipant(offer.RedeemParticipant); err != nil {
		return nil, err
	}

	multisigSecret, err := ctx.MultisigSecret(kc, swapIdx)
	if err != nil {
		return nil, &swaperr.Keychain{Reason: err.Error()}
	}

	redeemSecret, err := ctx.RedeemSecret(kc, swapIdx)
	if err != nil {
		return nil, &swaperr.Keychain{Reason: err.Error()}
	}

	startTime := offer.StartTime
	if cfg.TestMode {
		startTime = now
	}

	swap := &Swap{
		ID:                                 id,
		Version:                            swapcfg.CurrentVersion,
		Network:                            offer.Network,
		Role:                               RoleBuyer,
		SellerLockFirst:                    offer.SellerLockFirst,
		StartTime:                          startTime,
		Status:                             StatusOffered,
		PrimaryAmount:                      offer.PrimaryAmount,
		SecondaryAmount:                    offer.SecondaryAmount,
		SecondaryCurrency:                  offer.SecondaryCurrency,
		SecondaryData:                      secondaryData,
		ParticipantIdx:                     1,
		RedeemSlate:                        redeemSlate,
		LockSlate:                          lockSlate,
		RefundSlate:                        refundSlate,
		RequiredMwcLockConfirmations:       offer.RequiredMwcLockConfirmations,
		RequiredSecondaryLockConfirmations: offer.RequiredSecondaryLockConfirmations,
		MwcLockTimeSeconds:                 offer.MwcLockTimeSeconds,
		SellerRedeemTime:                   offer.SellerRedeemTime,
	}
	swap.RedeemPublicKey = redeemSecret.PubKey()

	swap.Multisig = NewMultisigBuilder(2, offer.PrimaryAmount, 1, ctx.MultisigNonce)
	if err := swap.Multisig.ImportParticipant(0, offer.Multisig); err != nil {
		return nil, err
	}
	if err := swap.Multisig.CreateParticipant(multisigSecret); err != nil {
		return nil, err
	}
	if err := swap.Multisig.Round1(); err != nil {
		return nil, err
	}
	if err := swap.Multisig.Round2(); err != nil {
		return nil, err
	}

	commit, err := swap.Multisig.Commit()
	if err != nil {
		return nil, err
	}

	lockSecret, err := LockTxSecret(kc, swapIdx, multisigSecret)
	if err != nil {
		return nil, &swaperr.Keychain{Reason: err.Error()}
	}
	if len(swap.LockSlate.ParticipantData) > 1 {
		return nil, swaperr.OneShotf("buyer AcceptSwapOffer() lock slate participant data is already initialized")
	}
	TxAddOutput(swap.LockSlate, commit.Bytes(), placeholderRangeProof())
	if err := swap.LockSlate.FillRound1(lockSecret, ctx.LockNonce, 1); err != nil {
		return nil, err
	}
	if err := swap.LockSlate.FillRound2(lockSecret, ctx.LockNonce, 1); err != nil {
		return nil, err
	}

	refundSecret, err := RefundTxSecret(kc, swapIdx, multisigSecret)
	if err != nil {
		return nil, &swaperr.Keychain{Reason: err.Error()}
	}
	if len(swap.RefundSlate.ParticipantData) > 1 {
		return nil, swaperr.OneShotf("buyer AcceptSwapOffer() refund slate participant data is already initialized")
	}
	TxAddInput(swap.RefundSlate, commit.Bytes())
	if err := swap.RefundSlate.FillRound1(refundSecret, ctx.RefundNonce, 1); err != nil {
		return nil, err
	}
	if err := swap.RefundSlate.FillRound2(refundSecret, ctx.RefundNonce, 1); err != nil {
		return nil, err
	}

	return swap, nil
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// AcceptOfferMessage builds the AcceptOfferUpdate sent back to the Seller.
func (BuyApi) AcceptOfferMessage(swap *Swap) (*AcceptOfferUpdate, error) {
	if err := swap.expect(StatusOffered); err != nil {
		return nil, err
	}

	multisigShare, err := swap.Multisig.Export()
	if err != nil {
		return nil, err
	}

	id := swap.ParticipantID()
	return &AcceptOfferUpdate{
		Multisig:          multisigShare,
		RedeemPublic:      swap.RedeemPublicKey,
		LockParticipant:   *findParticipant(swap.LockSlate.ParticipantData, id),
		RefundParticipant: *findParticipant(swap.RefundSlate.ParticipantData, id),
	}, nil
}

// MessageSent advances the swap after its outgoing message for the current
// status has been delivered (spec.md §4.3's Buyer DAG).
func (BuyApi) MessageSent(swap *Swap) error {
	switch swap.Status {
	case StatusOffered:
		return swap.advance(StatusAccepted)
	case StatusLocked:
		return swap.advance(StatusInitRedeem)
	default:
		return swaperr.UnexpectedActionf("buyer MessageSent() unexpected status %s", swap.Status)
	}
}

// ObserveLockConfirmations records fresh confirmation counts on both
// chains, advancing Accepted -> Locked once both required thresholds are
// met.
func (BuyApi) ObserveLockConfirmations(swap *Swap, mwcConfirmations, secondaryConfirmations uint64) error {
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

// InitRedeem builds the redeem slate's output and round-1 contribution and
// computes the adaptor signature (spec.md §4.4). Both sub-steps are
// one-shot, matching the original implementation's build_redeem_slate /
// calculate_adaptor_signature guards. offset is the slate's blinding
// offset: a fixed test-mode value or a freshly generated random one,
// chosen by the caller (spec.md §9's test-mode determinism).
func (BuyApi) InitRedeem(kc keychain.Keychain, swapIdx uint32, swap *Swap, ctx *Context, offset [32]byte) error {
	if err := swap.expect(StatusLocked); err != nil {
		return err
	}

	if len(swap.RedeemSlate.ParticipantData) > 1 {
		return swaperr.OneShotf("buyer InitRedeem() redeem slate participant data is not empty")
	}

	multisigSecret := swap.Multisig.LocalBlind()

	swap.RedeemSlate.Tx.Offset = offset

	commit, err := swap.Multisig.Commit()
	if err != nil {
		return err
	}
	TxAddInput(swap.RedeemSlate, commit.Bytes())
	swap.RedeemSlate.AddOutputElement(swap.RedeemSlate.Amount, ctx.RedeemOutputID, redeemOutputCommitPlaceholder())

	redeemSecret, err := RedeemTxSecret(kc, swapIdx, multisigSecret, ctx.RedeemOutputID, swap.RedeemSlate.Amount, swap.RedeemSlate.Tx.Offset)
	if err != nil {
		return &swaperr.Keychain{Reason: err.Error()}
	}
	if err := swap.RedeemSlate.FillRound1(redeemSecret, ctx.RedeemNonce, swap.ParticipantID()); err != nil {
		return err
	}

	if swap.AdaptorSignature != nil {
		return swaperr.OneShotf("buyer InitRedeem() adaptor signature is already calculated")
	}

	nonceSum, err := swap.RedeemSlate.pubNonceSum()
	if err != nil {
		return err
	}
	blindSum, err := swap.RedeemSlate.pubBlindSum()
	if err != nil {
		return err
	}
	msg := swap.RedeemSlate.kernelMessage()

	adaptorSecret, err := ctx.RedeemSecret(kc, swapIdx)
	if err != nil {
		return &swaperr.Keychain{Reason: err.Error()}
	}
	swap.AdaptorSignature = signSingle(msg, redeemSecret, ctx.RedeemNonce, adaptorSecret, nonceSum, blindSum)

	return nil
}

// redeemOutputCommitPlaceholder stands in for the real Pedersen commitment
// of the redeem output: it returns an all-zero commitment.
func redeemOutputCommitPlaceholder() [33]byte {
	return [33]byte{}
}

// InitRedeemMessage builds the InitRedeemUpdate sent to the Seller.
func (BuyApi) InitRedeemMessage(swap *Swap) (*InitRedeemUpdate, error) {
	if err := swap.expect(StatusLocked); err != nil {
		return nil, err
	}
	if swap.AdaptorSignature == nil {
		return nil, swaperr.UnexpectedActionf("buyer InitRedeemMessage(), adaptor signature is empty")
	}
	return &InitRedeemUpdate{
		RedeemSlate:      swap.RedeemSlate,
		AdaptorSignature: swap.AdaptorSignature,
	}, nil
}

// Redeem finalizes the redeem slate with the Seller's round-2 contribution
// and advances to Redeem.
func (BuyApi) Redeem(kc keychain.Keychain, swapIdx uint32, swap *Swap, ctx *Context, update *RedeemUpdate) error {
	if err := swap.expect(StatusInitRedeem); err != nil {
		return err
	}

	ownID := swap.ParticipantID()
	own := findParticipant(swap.RedeemSlate.ParticipantData, ownID)
	if own == nil {
		return swaperr.UnexpectedActionf("buyer Redeem() redeem slate participant data is not initialized for this party")
	}
	if own.IsComplete() {
		return swaperr.OneShotf("buyer Redeem() redeem slate is already finalized")
	}

	seller := findParticipant(swap.RedeemSlate.ParticipantData, update.RedeemParticipant.ID)
	if seller == nil {
		if err := swap.RedeemSlate.ImportParticipant(update.RedeemParticipant); err != nil {
			return err
		}
	} else {
		if seller.IsComplete() {
			return swaperr.OneShotf("buyer Redeem() counterparty redeem signature already imported")
		}
		seller.PartialSig = update.RedeemParticipant.PartialSig
	}

	multisigSecret := swap.Multisig.LocalBlind()
	redeemSecret, err := RedeemTxSecret(kc, swapIdx, multisigSecret, ctx.RedeemOutputID, swap.RedeemSlate.Amount, swap.RedeemSlate.Tx.Offset)
	if err != nil {
		return &swaperr.Keychain{Reason: err.Error()}
	}

	if err := swap.RedeemSlate.FillRound2(redeemSecret, ctx.RedeemNonce, ownID); err != nil {
		return err
	}
	if err := swap.RedeemSlate.Finalize(); err != nil {
		return err
	}

	swap.Status = StatusRedeem
	return nil
}

// PublishTransaction broadcasts the finalized redeem transaction.
func (BuyApi) PublishTransaction(nc nodeclient.Client, swap *Swap, retry bool) error {
	if retry {
		if err := nc.PostTx(encodeTxPlaceholder(swap.RedeemSlate), false); err != nil {
			return &swaperr.IO{Reason: err.Error()}
		}
		zero := uint64(0)
		swap.Confirmations.MwcRedeem = &zero
		return nil
	}

	if err := swap.expect(StatusRedeem); err != nil {
		return err
	}
	if swap.Confirmations.MwcRedeem != nil {
		return swaperr.UnexpectedActionf("buyer PublishTransaction(), redeem_confirmations already defined")
	}
	if err := nc.PostTx(encodeTxPlaceholder(swap.RedeemSlate), false); err != nil {
		return &swaperr.IO{Reason: err.Error()}
	}
	zero := uint64(0)
	swap.Confirmations.MwcRedeem = &zero
	return nil
}

// encodeTxPlaceholder stands in for the finalized transaction's wire
// encoding; actual transaction serialization is node-RPC plumbing out of
// scope for this codebase (spec.md §1).
func encodeTxPlaceholder(slate *Slate) []byte {
	return slate.Tx.Kernels[0].ExcessSig
}

// Completed moves the swap to Completed once the redeem kernel has at least
// one confirmation.
func (BuyApi) Completed(swap *Swap) error {
	if err := swap.expect(StatusRedeem, StatusCompleted); err != nil {
		return err
	}
	if swap.Confirmations.MwcRedeem == nil || *swap.Confirmations.MwcRedeem == 0 {
		return swaperr.UnexpectedActionf("buyer Completed(), redeem_confirmations is not defined")
	}
	swap.Status = StatusCompleted
	return nil
}
