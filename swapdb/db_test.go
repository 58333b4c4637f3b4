package swapdb

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/mwcproject/mwc-swap/swap"
	"github.com/mwcproject/mwc-swap/swapcfg"
	"github.com/stretchr/testify/require"
)

func newTestSwap(t *testing.T) *swap.Swap {
	t.Helper()
	cfg := swapcfg.NewTestConfig(swapcfg.Floonet, "seller")
	s := swap.NewSellerSwap(uuid.New(), cfg, 1_000_000, 50_000, true)
	s.RequiredMwcLockConfirmations = 30
	s.RequiredSecondaryLockConfirmations = 6
	s.MwcLockTimeSeconds = 3600
	s.SellerRedeemTime = 3600

	nonce, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	blind, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	s.Multisig = swap.NewMultisigBuilder(2, s.PrimaryAmount, 0, nonce)
	require.NoError(t, s.Multisig.CreateParticipant(blind))

	s.LockSlate = swap.NewBlankSlate(2)
	s.LockSlate.ID = uuid.New()
	s.LockSlate.Amount = s.PrimaryAmount

	return s
}

func TestPutGetSwapRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, nil)
	require.NoError(t, err)
	defer db.Close()

	s := newTestSwap(t)
	require.NoError(t, db.PutSwap(s))

	loaded, err := db.GetSwap(s.ID)
	require.NoError(t, err)
	require.Equal(t, s.ID, loaded.ID)
	require.Equal(t, s.Role, loaded.Role)
	require.Equal(t, s.Status, loaded.Status)
	require.Equal(t, s.PrimaryAmount, loaded.PrimaryAmount)
	require.Equal(t, s.SecondaryAmount, loaded.SecondaryAmount)
	require.Equal(t, s.RequiredMwcLockConfirmations, loaded.RequiredMwcLockConfirmations)
	require.NotNil(t, loaded.Multisig)
	require.NotNil(t, loaded.LockSlate)
	require.Equal(t, s.LockSlate.ID, loaded.LockSlate.ID)
}

func TestGetSwapMissing(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.GetSwap(uuid.New())
	require.Error(t, err)
}

func TestListAndDeleteSwaps(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, nil)
	require.NoError(t, err)
	defer db.Close()

	s1 := newTestSwap(t)
	s2 := newTestSwap(t)
	require.NoError(t, db.PutSwap(s1))
	require.NoError(t, db.PutSwap(s2))

	ids, err := db.ListSwaps()
	require.NoError(t, err)
	require.Len(t, ids, 2)

	require.NoError(t, db.DeleteSwap(s1.ID))
	ids, err = db.ListSwaps()
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.Equal(t, s2.ID, ids[0])
}

func TestReopenPreservesData(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, nil)
	require.NoError(t, err)

	s := newTestSwap(t)
	require.NoError(t, db.PutSwap(s))
	require.NoError(t, db.Close())

	db2, err := Open(dir, nil)
	require.NoError(t, err)
	defer db2.Close()

	loaded, err := db2.GetSwap(s.ID)
	require.NoError(t, err)
	require.Equal(t, s.ID, loaded.ID)
}
