package swap

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mwcproject/mwc-swap/keychain"
	"github.com/mwcproject/mwc-swap/nodeclient"
)

// testKeychain is a deterministic in-memory stand-in for a real HD wallet:
// every identifier derives to the same scalar on every call, so fixtures
// are reproducible without touching the filesystem or a real seed.
type testKeychain struct{}

func identifierScalar(id keychain.Identifier) *btcec.ModNScalar {
	h := sha256.New()
	fmt.Fprintf(h, "test-keychain|%v|%d", id.Path, id.Value)
	sum := h.Sum(nil)

	var s btcec.ModNScalar
	s.SetByteSlice(sum)
	if s.IsZero() {
		s.SetInt(1)
	}
	return &s
}

func (testKeychain) DeriveKey(swapIdx uint32, id keychain.Identifier) (*btcec.PrivateKey, error) {
	return scalarToKey(identifierScalar(id)), nil
}

func (testKeychain) BlindSum(sum *keychain.BlindSum) (*btcec.PrivateKey, error) {
	var total btcec.ModNScalar
	total.SetInt(0)

	for _, k := range sum.PosKeys {
		var s btcec.ModNScalar
		s.SetByteSlice(k)
		total.Add(&s)
	}
	for _, k := range sum.NegKeys {
		var s btcec.ModNScalar
		s.SetByteSlice(k)
		s.Negate()
		total.Add(&s)
	}
	for _, id := range sum.Positive {
		total.Add(identifierScalar(id))
	}
	for _, id := range sum.Negative {
		neg := *identifierScalar(id)
		neg.Negate()
		total.Add(&neg)
	}

	return scalarToKey(&total), nil
}

// mustKey returns a fresh, random secp256k1 private key, panicking on the
// practically-impossible generation failure.
func mustKey() *btcec.PrivateKey {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		panic(err)
	}
	return key
}

// testNodeClient is a scriptable nodeclient.Client stand-in: every lock
// input is reported present, and the chain tip is fixed at construction.
type testNodeClient struct {
	tip uint64
}

func (c *testNodeClient) GetChainTip() (uint64, chainhash.Hash, error) {
	return c.tip, chainhash.Hash{}, nil
}

func (c *testNodeClient) GetOutputsFromNode(commits []nodeclient.Commit) ([]nodeclient.Commit, error) {
	return commits, nil
}

func (c *testNodeClient) PostTx(txBytes []byte, fluff bool) error {
	return nil
}

func (c *testNodeClient) GetKernel(excess nodeclient.Commit, minHeight, maxHeight uint64) (*nodeclient.Kernel, bool, error) {
	return nil, false, nil
}

func (c *testNodeClient) GetVersionInfo() (*nodeclient.VersionInfo, bool, error) {
	return nil, false, nil
}

// testSecondaryData is a minimal swap.SecondaryData stand-in that reports a
// fixed lock time and confirmation count, avoiding any dependency on the
// real BTC script package for core state-machine fixtures.
type testSecondaryData struct {
	lockTime uint64
}

func (d *testSecondaryData) Currency() Currency           { return CurrencyBtc }
func (d *testSecondaryData) LockAddress() (string, error) { return "bcrt1qtest", nil }
func (d *testSecondaryData) LockTime() uint64             { return d.lockTime }
func (d *testSecondaryData) ConfirmationCount() uint64    { return 2 }
func (d *testSecondaryData) SpendingScript() ([]byte, error) {
	return []byte{0x51}, nil
}

var _ SecondaryData = (*testSecondaryData)(nil)
