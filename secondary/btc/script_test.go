package btc

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

func randKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv
}

func TestGenLockScriptParses(t *testing.T) {
	a := randKey(t).PubKey()
	b := randKey(t).PubKey()
	refund := randKey(t).PubKey()

	script, err := genLockScript(a, b, refund, 600000)
	require.NoError(t, err)
	require.NotEmpty(t, script)

	_, err = txscript.ParsePkScript(script)
	require.Error(t, err) // witness script isn't itself a recognized pkScript template

	class := txscript.GetScriptClass(script)
	require.Equal(t, txscript.NonStandardTy, class)
}

func TestGenLockScriptOrdersPubkeys(t *testing.T) {
	a := randKey(t).PubKey()
	b := randKey(t).PubKey()
	refund := randKey(t).PubKey()

	s1, err := genLockScript(a, b, refund, 1000)
	require.NoError(t, err)
	s2, err := genLockScript(b, a, refund, 1000)
	require.NoError(t, err)
	require.Equal(t, s1, s2, "script must not depend on caller-supplied pubkey order")
}

func TestLockAddressDeterministic(t *testing.T) {
	a := randKey(t).PubKey()
	b := randKey(t).PubKey()
	refund := randKey(t).PubKey()

	script, err := genLockScript(a, b, refund, 500)
	require.NoError(t, err)

	addr1, err := lockAddress(script, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	addr2, err := lockAddress(script, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	require.Equal(t, addr1, addr2)
	require.NotEmpty(t, addr1)
}

func TestWitnessStackOrdering(t *testing.T) {
	a := randKey(t).PubKey()
	b := randKey(t).PubKey()
	refund := randKey(t).PubKey()
	script, err := genLockScript(a, b, refund, 100)
	require.NoError(t, err)

	sigA := []byte{0xAA}
	sigB := []byte{0xBB}

	stack := cosignWitness(script, a, b, sigA, sigB)
	require.Len(t, stack, 5)
	require.Equal(t, []byte{1}, stack[3])
	require.Equal(t, script, stack[4])
}

func TestRefundWitness(t *testing.T) {
	script := []byte{0x01, 0x02}
	sig := []byte{0xCC}
	stack := refundWitness(script, sig)
	require.Equal(t, [][]byte{sig, {}, script}, stack)
}
