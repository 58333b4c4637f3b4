package btc

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/mwcproject/mwc-swap/swap"
)

// Data implements swap.SecondaryData for the BTC leg of a swap: the lock
// output is a 2-of-2 cosign spendable by both parties, falling back to a
// unilateral refund by RefundPubKey once LockTimeValue passes (spec.md §9's
// BTC capability set: lock_address_derivation, lock_time,
// confirmation_count, spending_script).
type Data struct {
	Params *chaincfg.Params

	CosignLocal  *btcec.PublicKey
	CosignRemote *btcec.PublicKey
	RefundPubKey *btcec.PublicKey

	LockTimeValue          uint64
	RequiredConfirmations uint64
}

var _ swap.SecondaryData = (*Data)(nil)

// Currency identifies this implementation as the BTC leg.
func (d *Data) Currency() swap.Currency {
	return swap.CurrencyBtc
}

// LockTime returns the absolute nLockTime of the refund branch.
func (d *Data) LockTime() uint64 {
	return d.LockTimeValue
}

// ConfirmationCount returns the confirmations required before the lock
// output is considered final.
func (d *Data) ConfirmationCount() uint64 {
	return d.RequiredConfirmations
}

// SpendingScript returns the lock output's witness script: a 2-of-2
// multisig branch plus a height-locked unilateral refund branch.
func (d *Data) SpendingScript() ([]byte, error) {
	return genLockScript(d.CosignLocal, d.CosignRemote, d.RefundPubKey, d.LockTimeValue)
}

// LockAddress derives the bech32 P2WSH address that funds must be sent to
// in order to lock the BTC leg.
func (d *Data) LockAddress() (string, error) {
	script, err := d.SpendingScript()
	if err != nil {
		return "", err
	}
	return lockAddress(script, d.Params)
}

// LockOutputScript returns the P2WSH pkScript (not the address) for the
// lock output, for callers building the funding transaction directly.
func (d *Data) LockOutputScript() ([]byte, error) {
	script, err := d.SpendingScript()
	if err != nil {
		return nil, err
	}
	return witnessScriptHash(script)
}

// CosignWitness builds the witness stack to spend the lock output
// cooperatively, given both parties' signatures over the spending tx.
func (d *Data) CosignWitness(sigLocal, sigRemote []byte, localIsA bool) ([][]byte, error) {
	script, err := d.SpendingScript()
	if err != nil {
		return nil, err
	}
	if localIsA {
		return cosignWitness(script, d.CosignLocal, d.CosignRemote, sigLocal, sigRemote), nil
	}
	return cosignWitness(script, d.CosignRemote, d.CosignLocal, sigRemote, sigLocal), nil
}

// RefundWitness builds the witness stack to spend the lock output via the
// unilateral, height-locked refund branch.
func (d *Data) RefundWitness(sig []byte) ([][]byte, error) {
	script, err := d.SpendingScript()
	if err != nil {
		return nil, err
	}
	return refundWitness(script, sig), nil
}
