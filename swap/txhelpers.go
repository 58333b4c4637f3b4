package swap

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/mwcproject/mwc-swap/keychain"
)

// LockTxSecret computes the signing secret for the lock slate: the
// multisig blinding factor alone (spec.md §4.5: "Lock: +multisig_secret").
func LockTxSecret(kc keychain.Keychain, swapIdx uint32, multisigSecret *btcec.PrivateKey) (*btcec.PrivateKey, error) {
	sum := keychain.NewBlindSum().AddBlindingFactor(multisigSecret.Serialize())
	return kc.BlindSum(sum)
}

// RefundTxSecret computes the signing secret for the refund slate: the
// negated multisig blinding factor (spec.md §4.5: "Refund: -multisig_secret").
func RefundTxSecret(kc keychain.Keychain, swapIdx uint32, multisigSecret *btcec.PrivateKey) (*btcec.PrivateKey, error) {
	sum := keychain.NewBlindSum().SubBlindingFactor(multisigSecret.Serialize())
	return kc.BlindSum(sum)
}

// RedeemTxSecret computes the signing secret for the redeem slate: the new
// output's key, minus the multisig blinding factor, minus the slate's
// offset (spec.md §4.5: "Redeem: +output_key - multisig_secret -
// slate_offset").
func RedeemTxSecret(
	kc keychain.Keychain, swapIdx uint32,
	multisigSecret *btcec.PrivateKey, outputID keychain.Identifier, amount uint64,
	offset [32]byte,
) (*btcec.PrivateKey, error) {
	sum := keychain.NewBlindSum().
		AddKeyID(outputID.ToValuePath(amount)).
		SubBlindingFactor(multisigSecret.Serialize()).
		SubBlindingFactor(offset[:])
	return kc.BlindSum(sum)
}
