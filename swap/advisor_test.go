package swap

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/mwcproject/mwc-swap/swapcfg"
	"github.com/stretchr/testify/require"
)

func redeemStatusSwap(t *testing.T, role Role) *Swap {
	t.Helper()
	cfg := &swapcfg.Config{
		Network:  swapcfg.Floonet,
		TestMode: true,
		Clock:    clock.NewTestClock(time.Unix(1_600_000_000, 0)),
	}
	var s *Swap
	if role == RoleSeller {
		s = NewSellerSwap(uuid.New(), cfg, 1_000, 2_000, true)
	} else {
		s = NewBuyerSwap(uuid.New(), cfg, 1_000, 2_000, true)
	}
	s.Status = StatusRedeem
	zero := uint64(0)
	s.Confirmations.MwcRedeem = &zero
	return s
}

func TestAdviseBuyerPublishesBeforeConfirmationsKnown(t *testing.T) {
	s := redeemStatusSwap(t, RoleBuyer)
	s.Confirmations.MwcRedeem = nil

	result := Advise(s, ChainObservations{Tip: 100})
	require.Equal(t, ActionPublishTx, result.Action)
}

// TestAdviseDoesNotMutateStatus covers the advisor's documented contract: it
// updates Confirmations.MwcRedeem when the redeem kernel is observed, and
// nothing else -- status transitions are the driver/role-API's job, not
// the advisor's.
func TestAdviseDoesNotMutateStatus(t *testing.T) {
	s := redeemStatusSwap(t, RoleSeller)

	result := Advise(s, ChainObservations{Tip: 105, RedeemKernelFound: true, RedeemKernelAt: 100})

	require.Equal(t, ActionComplete, result.Action)
	require.Equal(t, StatusRedeem, s.Status, "Advise must never transition status itself")
	require.NotNil(t, s.Confirmations.MwcRedeem)
	require.Equal(t, uint64(6), *s.Confirmations.MwcRedeem)
}

func TestAdviseRedeemConfirmationsIdempotent(t *testing.T) {
	s := redeemStatusSwap(t, RoleSeller)
	obs := ChainObservations{Tip: 105, RedeemKernelFound: true, RedeemKernelAt: 100}

	first := Advise(s, obs)
	firstConfirmations := *s.Confirmations.MwcRedeem

	second := Advise(s, obs)
	secondConfirmations := *s.Confirmations.MwcRedeem

	require.Equal(t, first.Action, second.Action)
	require.Equal(t, firstConfirmations, secondConfirmations)
}

func TestAdviseConfirmationFloorsAtOneWhenTipBehindKernel(t *testing.T) {
	s := redeemStatusSwap(t, RoleSeller)
	result := Advise(s, ChainObservations{Tip: 90, RedeemKernelFound: true, RedeemKernelAt: 100})

	require.Equal(t, ActionComplete, result.Action)
	require.Equal(t, uint64(1), *s.Confirmations.MwcRedeem)
}

func TestAdviseWaitsForConfirmationWhenKernelNotYetSeen(t *testing.T) {
	s := redeemStatusSwap(t, RoleSeller)
	result := Advise(s, ChainObservations{Tip: 105})
	require.Equal(t, ActionConfirmationRedeem, result.Action)
}

func TestAdviseTerminalStatusesReturnNone(t *testing.T) {
	for _, st := range []Status{StatusCompleted, StatusRefunded, StatusCancelled} {
		s := redeemStatusSwap(t, RoleSeller)
		s.Status = st
		result := Advise(s, ChainObservations{Tip: 1})
		require.Equal(t, ActionNone, result.Action)
	}
}

func TestAdviseRefundOpensOnlyAtOrPastLockHeight(t *testing.T) {
	s := redeemStatusSwap(t, RoleSeller)
	s.RefundSlate = &Slate{LockHeight: 200}

	require.False(t, AdviseRefund(s, 199))
	require.True(t, AdviseRefund(s, 200))
	require.True(t, AdviseRefund(s, 201))
}

func TestAdviseRefundClosedWithoutRefundSlate(t *testing.T) {
	s := redeemStatusSwap(t, RoleSeller)
	s.RefundSlate = nil
	require.False(t, AdviseRefund(s, 1_000_000))
}

func TestAdviseRefundClosedInTerminalStatuses(t *testing.T) {
	s := redeemStatusSwap(t, RoleSeller)
	s.RefundSlate = &Slate{LockHeight: 1}
	s.Status = StatusCompleted
	require.False(t, AdviseRefund(s, 1_000_000))
}
