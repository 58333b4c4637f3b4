// Command swapcli is a thin operator front-end for the swap engine: it
// opens the local swap database directly rather than talking to a daemon
// over RPC, since the swap core defined by this codebase is a library, not
// a server (spec.md §1/§6). Modeled on cmd/lncli/main.go's urfave/cli
// scaffolding.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli"
)

var (
	swapHomeDir  = btcutil.AppDataDir("mwc-swap", false)
	defaultDBDir = filepath.Join(swapHomeDir, "data")
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[swapcli] %v\n", err)
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "swapcli"
	app.Version = "0.1"
	app.Usage = "inspect and drive MWC/BTC atomic swaps"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "datadir",
			Value: defaultDBDir,
			Usage: "directory holding the swap database",
		},
		cli.StringFlag{
			Name:  "network",
			Value: "mainnet",
			Usage: "mwc network: mainnet or floonet",
		},
	}
	app.Commands = []cli.Command{
		listSwapsCommand,
		swapStatusCommand,
		sellCommand,
		refundCheckCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

// cleanAndExpandPath expands environment variables and a leading ~ in path,
// taken from the same btcsuite helper cmd/lncli/main.go uses.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path[0] == '~' {
		homeDir := filepath.Dir(swapHomeDir)
		path = filepath.Join(homeDir, path[1:])
	}
	return filepath.Clean(os.ExpandEnv(path))
}
