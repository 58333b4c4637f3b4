package swap

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/mwcproject/mwc-swap/keychain"
	"github.com/mwcproject/mwc-swap/swapcfg"
	"github.com/mwcproject/mwc-swap/swaperr"
	"github.com/stretchr/testify/require"
)

// swapFixture holds everything a single end-to-end scenario needs to drive
// a seller/buyer swap pair forward: separate contexts per party (mirroring
// two independent wallets), a shared chain tip, and the offer terms.
type swapFixture struct {
	sellerCfg *swapcfg.Config
	buyerCfg  *swapcfg.Config
	sellerCtx *Context
	buyerCtx  *Context
	node      *testNodeClient

	tip                                uint64
	primaryAmount, secondaryAmount     uint64
	requiredMwcLockConfirmations       uint64
	requiredSecondaryLockConfirmations uint64
	mwcLockTimeSeconds                 uint64
	sellerRedeemTime                   uint64
}

func newSwapFixture(tip uint64) *swapFixture {
	return &swapFixture{
		sellerCfg: swapcfg.NewTestConfig(swapcfg.Floonet, "seller"),
		buyerCfg:  swapcfg.NewTestConfig(swapcfg.Floonet, "buyer"),
		sellerCtx: &Context{
			Role:             RoleSeller,
			MultisigNonce:    mustKey(),
			LockNonce:        mustKey(),
			RefundNonce:      mustKey(),
			RedeemNonce:      mustKey(),
			MultisigSecretID: keychain.Identifier{Path: []uint32{0, 1, 0}},
		},
		buyerCtx: &Context{
			Role:             RoleBuyer,
			MultisigNonce:    mustKey(),
			LockNonce:        mustKey(),
			RefundNonce:      mustKey(),
			RedeemNonce:      mustKey(),
			MultisigSecretID: keychain.Identifier{Path: []uint32{1, 1, 0}},
			RedeemSecretID:   keychain.Identifier{Path: []uint32{1, 2, 0}},
			RedeemOutputID:   keychain.Identifier{Path: []uint32{1, 3, 0}},
		},
		node: &testNodeClient{tip: tip},

		tip:                                tip,
		primaryAmount:                      1_000_000_000,
		secondaryAmount:                    1_000_000,
		requiredMwcLockConfirmations:       10,
		requiredSecondaryLockConfirmations: 2,
		mwcLockTimeSeconds:                 7200,
		sellerRedeemTime:                   3600,
	}
}

func (f *swapFixture) offerParams() OfferParams {
	return OfferParams{
		PrimaryAmount:                      f.primaryAmount,
		SecondaryAmount:                    f.secondaryAmount,
		SellerLockFirst:                    false,
		RequiredMwcLockConfirmations:       f.requiredMwcLockConfirmations,
		RequiredSecondaryLockConfirmations: f.requiredSecondaryLockConfirmations,
		MwcLockTimeSeconds:                 f.mwcLockTimeSeconds,
		SellerRedeemTime:                   f.sellerRedeemTime,
		Height:                             f.tip,
		LockInputs:                         []Input{{Commit: [33]byte{0x02, 0x55}}},
	}
}

// expectedBtcLockTime returns the BTC lock time a Buyer computes as
// "correct" for this fixture's terms, as observed from the Buyer's clock.
func (f *swapFixture) expectedBtcLockTime() uint64 {
	refundLockHeight := RefundLockHeightFloor(f.tip, f.requiredMwcLockConfirmations, f.mwcLockTimeSeconds)
	return ExpectedBtcLockTime(f.buyerCfg.Clock.Now(), f.tip, refundLockHeight, f.sellerRedeemTime)
}

// cloneSlate round-trips a slate through its wire encoding, the same way a
// Buyer would only ever see its own deserialized copy of a Seller's slate
// rather than the Seller's live in-memory object.
func cloneSlate(t *testing.T, s *Slate) *Slate {
	t.Helper()
	encoded, err := EncodeSlate(s, swapcfg.DefaultSlateVersionPolicy())
	require.NoError(t, err)
	clone, err := DecodeSlate(encoded)
	require.NoError(t, err)
	return clone
}

func (f *swapFixture) createOffer(t *testing.T) (*Swap, *OfferUpdate) {
	t.Helper()
	sellerSwap, err := SellApi{}.CreateSwapOffer(
		testKeychain{}, f.sellerCfg, f.sellerCtx, uuid.New(), 0, f.offerParams())
	require.NoError(t, err)

	offer, err := SellApi{}.OfferMessage(sellerSwap)
	require.NoError(t, err)
	require.NoError(t, SellApi{}.MessageSent(sellerSwap))

	// The Buyer only ever sees its own deserialized copy of the lock and
	// refund slates; it must not share the Seller's live objects, or the
	// Buyer's round-1/round-2 writes would corrupt the Seller's view.
	offer.LockSlate = cloneSlate(t, offer.LockSlate)
	offer.RefundSlate = cloneSlate(t, offer.RefundSlate)

	return sellerSwap, offer
}

// runHappyPath drives a full seller/buyer swap pair from offer to
// Completed and returns both sides plus the recovered adaptor secret.
func runHappyPath(t *testing.T) (sellerSwap, buyerSwap *Swap, recoveredSecret *btcec.ModNScalar) {
	t.Helper()
	f := newSwapFixture(100)
	sellerSwap, offer := f.createOffer(t)

	btcData := &testSecondaryData{lockTime: f.expectedBtcLockTime()}
	buyerSwap, err := BuyApi{}.AcceptSwapOffer(
		testKeychain{}, f.buyerCfg, f.buyerCtx, f.node, uuid.New(), 1, offer, nil, btcData)
	require.NoError(t, err)
	require.Equal(t, StatusOffered, buyerSwap.Status)

	accept, err := BuyApi{}.AcceptOfferMessage(buyerSwap)
	require.NoError(t, err)
	require.NoError(t, BuyApi{}.MessageSent(buyerSwap))
	require.Equal(t, StatusAccepted, buyerSwap.Status)

	require.NoError(t, SellApi{}.AcceptOffer(testKeychain{}, 0, sellerSwap, f.sellerCtx, accept))
	require.Equal(t, StatusAccepted, sellerSwap.Status)

	require.NoError(t, SellApi{}.ObserveLockConfirmations(sellerSwap, 10, 2))
	require.NoError(t, BuyApi{}.ObserveLockConfirmations(buyerSwap, 10, 2))
	require.Equal(t, StatusLocked, sellerSwap.Status)
	require.Equal(t, StatusLocked, buyerSwap.Status)

	var offset [32]byte
	require.NoError(t, BuyApi{}.InitRedeem(testKeychain{}, 1, buyerSwap, f.buyerCtx, offset))
	initRedeem, err := BuyApi{}.InitRedeemMessage(buyerSwap)
	require.NoError(t, err)
	require.NoError(t, BuyApi{}.MessageSent(buyerSwap))
	require.Equal(t, StatusInitRedeem, buyerSwap.Status)

	require.NoError(t, SellApi{}.InitRedeem(sellerSwap, initRedeem))
	require.Equal(t, StatusInitRedeem, sellerSwap.Status)

	redeemMsg, err := SellApi{}.RedeemMessage(testKeychain{}, 0, sellerSwap, f.sellerCtx)
	require.NoError(t, err)
	require.NoError(t, SellApi{}.MessageSent(sellerSwap))
	require.Equal(t, StatusRedeem, sellerSwap.Status)

	require.NoError(t, BuyApi{}.Redeem(testKeychain{}, 1, buyerSwap, f.buyerCtx, redeemMsg))
	require.Equal(t, StatusRedeem, buyerSwap.Status)

	require.NoError(t, BuyApi{}.PublishTransaction(f.node, buyerSwap, false))
	require.NotNil(t, buyerSwap.Confirmations.MwcRedeem)

	aggSigBytes := buyerSwap.RedeemSlate.Tx.Kernels[0].ExcessSig
	var aggSig btcec.ModNScalar
	overflow := aggSig.SetByteSlice(aggSigBytes)
	require.False(t, overflow)

	recoveredSecret, err = SellApi{}.RecoverBuyerRedeemSecret(sellerSwap, &aggSig)
	require.NoError(t, err)

	sellerSwap.Confirmations.MwcRedeem = buyerSwap.Confirmations.MwcRedeem
	one := uint64(1)
	sellerSwap.Confirmations.MwcRedeem = &one
	buyerSwap.Confirmations.MwcRedeem = &one

	require.NoError(t, SellApi{}.Completed(sellerSwap))
	require.NoError(t, BuyApi{}.Completed(buyerSwap))
	require.Equal(t, StatusCompleted, sellerSwap.Status)
	require.Equal(t, StatusCompleted, buyerSwap.Status)

	return sellerSwap, buyerSwap, recoveredSecret
}

// TestS1HappyPath drives the full swap DAG for both roles to Completed and
// checks that the scalar the Seller recovers satisfies recovered*G ==
// redeem_public, the Buyer's redeem public key.
func TestS1HappyPath(t *testing.T) {
	sellerSwap, buyerSwap, recoveredSecret := runHappyPath(t)

	recoveredPub := scalarToKey(recoveredSecret).PubKey()
	require.True(t, recoveredPub.IsEqual(buyerSwap.RedeemPublicKey),
		"recovered secret's public key must equal the swap's redeem_public key")

	require.Equal(t, StatusCompleted, sellerSwap.Status)
	require.Equal(t, StatusCompleted, buyerSwap.Status)
}

// TestS2BadNetwork: Seller on mainnet offers to a Buyer configured for
// floonet. The Buyer must reject with UnexpectedNetwork, and the rejection
// must leave the Seller's own status at Offered, where sending the offer
// put it.
func TestS2BadNetwork(t *testing.T) {
	f := newSwapFixture(100)
	f.sellerCfg.Network = swapcfg.Mainnet
	sellerSwap, offer := f.createOffer(t)
	require.Equal(t, swapcfg.Mainnet, offer.Network)

	btcData := &testSecondaryData{lockTime: f.expectedBtcLockTime()}
	_, err := BuyApi{}.AcceptSwapOffer(
		testKeychain{}, f.buyerCfg, f.buyerCtx, f.node, uuid.New(), 1, offer, nil, btcData)
	require.Error(t, err)
	require.IsType(t, &swaperr.UnexpectedNetwork{}, err)

	require.Equal(t, StatusOffered, sellerSwap.Status, "the Seller's own side is unaffected by the Buyer's rejection")
}

// TestS3LockSlateHeightLocked: a lock slate with a nonzero lock_height
// must be rejected with InvalidLockHeightLockTx.
func TestS3LockSlateHeightLocked(t *testing.T) {
	f := newSwapFixture(100)
	_, offer := f.createOffer(t)
	offer.LockSlate.LockHeight = 1

	btcData := &testSecondaryData{lockTime: f.expectedBtcLockTime()}
	_, err := BuyApi{}.AcceptSwapOffer(
		testKeychain{}, f.buyerCfg, f.buyerCtx, f.node, uuid.New(), 1, offer, nil, btcData)
	require.Error(t, err)
	require.IsType(t, &swaperr.InvalidLockHeightLockTx{}, err)
}

// TestS4RefundLockHeightTooLow: a refund slate whose lock_height falls
// short of RefundLockHeightFloor must be rejected.
func TestS4RefundLockHeightTooLow(t *testing.T) {
	f := newSwapFixture(100)
	_, offer := f.createOffer(t)
	offer.RefundSlate.LockHeight = f.tip + 5

	btcData := &testSecondaryData{lockTime: f.expectedBtcLockTime()}
	_, err := BuyApi{}.AcceptSwapOffer(
		testKeychain{}, f.buyerCfg, f.buyerCtx, f.node, uuid.New(), 1, offer, nil, btcData)
	require.Error(t, err)
}

// TestS5BtcLockTimeTolerance: a lock time outside the 5% tolerance band is
// rejected; a lock time inside the band is accepted.
func TestS5BtcLockTimeTolerance(t *testing.T) {
	f := newSwapFixture(100)

	t.Run("outside tolerance rejected", func(t *testing.T) {
		_, offer := f.createOffer(t)
		shifted := f.expectedBtcLockTime() + f.sellerRedeemTime/10
		btcData := &testSecondaryData{lockTime: shifted}
		_, err := BuyApi{}.AcceptSwapOffer(
			testKeychain{}, f.buyerCfg, f.buyerCtx, f.node, uuid.New(), 1, offer, nil, btcData)
		require.Error(t, err)
	})

	t.Run("inside tolerance accepted", func(t *testing.T) {
		_, offer := f.createOffer(t)
		withinBand := f.expectedBtcLockTime() + f.sellerRedeemTime/40
		btcData := &testSecondaryData{lockTime: withinBand}
		buyerSwap, err := BuyApi{}.AcceptSwapOffer(
			testKeychain{}, f.buyerCfg, f.buyerCtx, f.node, uuid.New(), 1, offer, nil, btcData)
		require.NoError(t, err)
		require.Equal(t, StatusOffered, buyerSwap.Status)
	})
}

// TestS6SellerStallRefund: once locked, the Seller never sends the final
// Redeem message. The Buyer observes the chain tip reach the refund
// slate's lock height and the refund path opens.
func TestS6SellerStallRefund(t *testing.T) {
	f := newSwapFixture(100)
	sellerSwap, offer := f.createOffer(t)

	btcData := &testSecondaryData{lockTime: f.expectedBtcLockTime()}
	buyerSwap, err := BuyApi{}.AcceptSwapOffer(
		testKeychain{}, f.buyerCfg, f.buyerCtx, f.node, uuid.New(), 1, offer, nil, btcData)
	require.NoError(t, err)

	accept, err := BuyApi{}.AcceptOfferMessage(buyerSwap)
	require.NoError(t, err)
	require.NoError(t, BuyApi{}.MessageSent(buyerSwap))
	require.NoError(t, SellApi{}.AcceptOffer(testKeychain{}, 0, sellerSwap, f.sellerCtx, accept))

	require.NoError(t, SellApi{}.ObserveLockConfirmations(sellerSwap, 10, 2))
	require.NoError(t, BuyApi{}.ObserveLockConfirmations(buyerSwap, 10, 2))
	require.Equal(t, StatusLocked, buyerSwap.Status)

	require.False(t, AdviseRefund(buyerSwap, buyerSwap.RefundSlate.LockHeight-1))
	require.True(t, AdviseRefund(buyerSwap, buyerSwap.RefundSlate.LockHeight))
}

// TestRefundAmountPlusFeeEqualsLockAmount checks the terms
// AcceptSwapOffer validates: the refund slate's amount plus its fee must
// equal the lock slate's amount.
func TestRefundAmountPlusFeeEqualsLockAmount(t *testing.T) {
	f := newSwapFixture(100)
	sellerSwap, _ := f.createOffer(t)

	require.Equal(t, sellerSwap.LockSlate.Amount, sellerSwap.RefundSlate.Amount+sellerSwap.RefundSlate.Fee)
}
