package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/mwcproject/mwc-swap/nodeclient"
	"github.com/mwcproject/mwc-swap/secondary/btc"
	"github.com/mwcproject/mwc-swap/swap"
)

// appVersion is bumped manually on release.
const appVersion = "0.1.0"

func version() string {
	return appVersion
}

var swapHomeDir = btcutil.AppDataDir("mwc-swap", false)

var errNodeClientNotConfigured = errors.New("no node RPC client configured: wire a real nodeclient.Client implementation before running swapd against a live node")

// config holds swapd's startup configuration, loaded from command-line
// flags. Unlike the teacher's config (which layers flags over an INI file
// via go-flags), swap.md never calls for file-based configuration, so a
// flat flag.FlagSet is enough.
type config struct {
	DataDir string
	Network string
}

var cfg *config

func defaultDataDir() string {
	return swapHomeDir
}

func loadConfig() (*config, error) {
	c := &config{}
	fs := flag.NewFlagSet("swapd", flag.ContinueOnError)
	fs.StringVar(&c.DataDir, "datadir", defaultDataDir(), "directory to store swap data")
	fs.StringVar(&c.Network, "network", "floonet", "network to operate on: mainnet or floonet")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, err
	}
	return c, nil
}

// secondaryCodec wires every registered secondary-chain SecondaryData
// implementation into swapdb's decode path. BTC is the only secondary
// currency implemented; adding a new one means adding a case here.
func secondaryCodec(currency swap.Currency, data []byte) (swap.SecondaryData, error) {
	switch currency {
	case swap.CurrencyBtc:
		d := &btc.Data{}
		if err := d.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("no secondary codec registered for currency %s", currency)
	}
}

// unconfiguredNodeClient is the integration seam for a real MWC node RPC
// transport. Wire protocol to the node is an external collaborator outside
// this codebase's scope (spec.md §1, §6); an operator embedding swapd wires
// their own nodeclient.Client into NewEngine instead of relying on this one.
type unconfiguredNodeClient struct{}

func (unconfiguredNodeClient) GetChainTip() (uint64, chainhash.Hash, error) {
	return 0, chainhash.Hash{}, errNodeClientNotConfigured
}

func (unconfiguredNodeClient) GetOutputsFromNode(commits []nodeclient.Commit) ([]nodeclient.Commit, error) {
	return nil, errNodeClientNotConfigured
}

func (unconfiguredNodeClient) PostTx(txBytes []byte, fluff bool) error {
	return errNodeClientNotConfigured
}

func (unconfiguredNodeClient) GetKernel(excess nodeclient.Commit, minHeight, maxHeight uint64) (*nodeclient.Kernel, bool, error) {
	return nil, false, errNodeClientNotConfigured
}

func (unconfiguredNodeClient) GetVersionInfo() (*nodeclient.VersionInfo, bool, error) {
	return nil, false, nil
}

func newNodeClient(cfg *config) (nodeclient.Client, error) {
	return unconfiguredNodeClient{}, nil
}
