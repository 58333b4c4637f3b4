package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/btcsuite/btclog"
	"github.com/mwcproject/mwc-swap/nodeclient"
	"github.com/mwcproject/mwc-swap/swapdb"
	"github.com/mwcproject/mwc-swap/swapcfg"
)

// swapdMain is the true entry point for swapd. This function is required
// since defers created in the top-level scope of a main method aren't
// executed if os.Exit() is called.
func swapdMain() error {
	loadedConfig, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = loadedConfig

	engineLog.Infof("Version %s", version())

	network, err := swapcfg.ParseNetwork(cfg.Network)
	if err != nil {
		return err
	}
	swapCfg := swapcfg.NewProductionConfig(network)

	db, err := swapdb.Open(cfg.DataDir, secondaryCodec)
	if err != nil {
		engineLog.Errorf("unable to open swap database: %v", err)
		return err
	}
	defer db.Close()

	node, err := newNodeClient(cfg)
	if err != nil {
		engineLog.Errorf("unable to connect to node: %v", err)
		return err
	}

	nodeVersion, ok, err := node.GetVersionInfo()
	if err != nil {
		engineLog.Errorf("unable to query node version: %v", err)
		return err
	}
	if minVersion := nodeclient.MinNodeVersion; ok && !nodeVersion.AtLeast(minVersion) {
		return fmt.Errorf("node version %d.%d.%d is older than the minimum %d.%d.%d-%s",
			nodeVersion.Major, nodeVersion.Minor, nodeVersion.Patch,
			minVersion.Major, minVersion.Minor, minVersion.Patch, minVersion.Suffix)
	}

	engine := NewEngine(db, node, nil)
	if err := restoreSwaps(engine, db); err != nil {
		engineLog.Errorf("unable to restore persisted swaps: %v", err)
		return err
	}
	engine.Start()

	engineLog.Infof("swapd ready, home chain %v", swapCfg.Network)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	engineLog.Infof("Gracefully shutting down the engine...")
	engine.Stop()

	engineLog.Info("Shutdown complete")
	return nil
}

// restoreSwaps loads every swap persisted in db and registers it with
// engine, so a restart picks back up exactly where it left off rather than
// requiring every in-flight swap to be re-created by hand.
func restoreSwaps(engine *Engine, db *swapdb.DB) error {
	ids, err := db.ListSwaps()
	if err != nil {
		return err
	}
	for _, id := range ids {
		s, err := db.GetSwap(id)
		if err != nil {
			engineLog.Errorf("unable to load swap %s: %v", id, err)
			continue
		}
		if err := engine.Register(s); err != nil {
			return fmt.Errorf("register restored swap %s: %w", id, err)
		}
	}
	return nil
}

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	UseEngineLogger(btclog.NewBackend(os.Stdout).Logger("SWAP"))

	if err := swapdMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
