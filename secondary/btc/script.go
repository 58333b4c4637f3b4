// Package btc implements the BTC leg of a swap: 2-of-2 lock script
// derivation, the height-locked refund branch, and confirmation polling
// against a BTC full node (spec.md §9's BTC capability set).
package btc

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// genLockScript builds the BTC half of the swap: spendable immediately by a
// 2-of-2 cosign, or by refundPub alone after lockTime (an absolute nLockTime,
// UNIX seconds). Adapted from lnwallet/script_utils.go's genMultiSigScript,
// generalized from a bare multisig into an IF/ELSE covenant carrying the
// refund branch (spec.md §3's "BTC lock output" / §9).
func genLockScript(cosignA, cosignB, refundPub *btcec.PublicKey, lockTime uint64) ([]byte, error) {
	aPub := cosignA.SerializeCompressed()
	bPub := cosignB.SerializeCompressed()
	if bytes.Compare(aPub, bPub) == 1 {
		aPub, bPub = bPub, aPub
	}

	bldr := txscript.NewScriptBuilder()
	bldr.AddOp(txscript.OP_IF)
	bldr.AddOp(txscript.OP_2)
	bldr.AddData(aPub)
	bldr.AddData(bPub)
	bldr.AddOp(txscript.OP_2)
	bldr.AddOp(txscript.OP_CHECKMULTISIG)
	bldr.AddOp(txscript.OP_ELSE)
	bldr.AddInt64(int64(lockTime))
	bldr.AddOp(txscript.OP_CHECKLOCKTIMEVERIFY)
	bldr.AddOp(txscript.OP_DROP)
	bldr.AddData(refundPub.SerializeCompressed())
	bldr.AddOp(txscript.OP_CHECKSIG)
	bldr.AddOp(txscript.OP_ENDIF)
	return bldr.Script()
}

// witnessScriptHash wraps a witness script in its P2WSH output pkScript
// (OP_0 <sha256(script)>), per lnwallet/script_utils.go.
func witnessScriptHash(witnessScript []byte) ([]byte, error) {
	bldr := txscript.NewScriptBuilder()
	bldr.AddOp(txscript.OP_0)
	scriptHash := sha256.Sum256(witnessScript)
	bldr.AddData(scriptHash[:])
	return bldr.Script()
}

// lockAddress derives the bech32 P2WSH address for the lock script, for the
// given network.
func lockAddress(witnessScript []byte, params *chaincfg.Params) (string, error) {
	scriptHash := sha256.Sum256(witnessScript)
	addr, err := btcutil.NewAddressWitnessScriptHash(scriptHash[:], params)
	if err != nil {
		return "", fmt.Errorf("derive P2WSH address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// cosignWitness builds the funding-spend witness stack for the cooperative
// (2-of-2) branch: the multisig OP_CHECKMULTISIG off-by-one dummy, both
// signatures in the script's pubkey order, OP_TRUE to select the IF branch,
// then the witness script itself. Adapted from spendMultiSig in
// lnwallet/script_utils.go, extended for the IF/ELSE selector byte this
// script's refund branch requires.
func cosignWitness(witnessScript []byte, pubA, pubB *btcec.PublicKey, sigA, sigB []byte) [][]byte {
	aPub := pubA.SerializeCompressed()
	bPub := pubB.SerializeCompressed()
	firstSig, secondSig := sigA, sigB
	if bytes.Compare(aPub, bPub) == 1 {
		firstSig, secondSig = secondSig, firstSig
	}
	return [][]byte{
		nil, // OP_CHECKMULTISIG off-by-one bug dummy
		firstSig,
		secondSig,
		{1}, // select the IF branch
		witnessScript,
	}
}

// refundWitness builds the witness stack for the timed-refund branch: a
// single signature from refundPub, OP_FALSE to select the ELSE branch, then
// the witness script.
func refundWitness(witnessScript []byte, sig []byte) [][]byte {
	return [][]byte{
		sig,
		{}, // select the ELSE branch
		witnessScript,
	}
}
