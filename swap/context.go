package swap

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/mwcproject/mwc-swap/keychain"
)

// Context is the per-swap secret material a party's own keychain derives
// before the swap starts: round-1 nonces for each of the three slates, the
// key identifier backing this party's multisig blinding contribution, and
// (Buyer only) the key identifiers backing the redeem secret and the
// redeem output. It is never transmitted; only its public derivatives
// leave the process, grounded on the original implementation's Context
// struct referenced throughout buyer.rs.
type Context struct {
	Role Role

	MultisigNonce *btcec.PrivateKey
	LockNonce     *btcec.PrivateKey
	RefundNonce   *btcec.PrivateKey
	RedeemNonce   *btcec.PrivateKey

	MultisigSecretID keychain.Identifier

	// RedeemSecretID and RedeemOutputID are only populated for the Buyer:
	// RedeemSecretID derives the scalar that both completes the adaptor
	// signature and, once revealed, lets the Buyer claim BTC;
	// RedeemOutputID derives the key of the new MWC output the Buyer's
	// redeem slate creates.
	RedeemSecretID keychain.Identifier
	RedeemOutputID keychain.Identifier
}

// MultisigSecret derives this party's multisig blinding contribution.
func (c *Context) MultisigSecret(kc keychain.Keychain, swapIdx uint32) (*btcec.PrivateKey, error) {
	return kc.DeriveKey(swapIdx, c.MultisigSecretID)
}

// RedeemSecret derives the Buyer's redeem/claim secret -- the scalar `t`
// of spec.md §4.4's adaptor signature, and the same key used to claim BTC
// once revealed (SUPPLEMENTED FEATURES, original_source buyer.rs's
// redeem_secret).
func (c *Context) RedeemSecret(kc keychain.Keychain, swapIdx uint32) (*btcec.PrivateKey, error) {
	return kc.DeriveKey(swapIdx, c.RedeemSecretID)
}
