package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mwcproject/mwc-swap/secondary/btc"
	"github.com/mwcproject/mwc-swap/swap"
	"github.com/mwcproject/mwc-swap/swapcfg"
	"github.com/mwcproject/mwc-swap/swapdb"
	"github.com/urfave/cli"
)

func btcSecondaryCodec(currency swap.Currency, data []byte) (swap.SecondaryData, error) {
	if currency != swap.CurrencyBtc {
		return nil, fmt.Errorf("no secondary codec registered for currency %s", currency)
	}
	d := &btc.Data{}
	if err := d.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return d, nil
}

func openDB(ctx *cli.Context) (*swapdb.DB, error) {
	dir := cleanAndExpandPath(ctx.GlobalString("datadir"))
	return swapdb.Open(dir, btcSecondaryCodec)
}

func parseNetwork(ctx *cli.Context) (swapcfg.Network, error) {
	return swapcfg.ParseNetwork(ctx.GlobalString("network"))
}

var listSwapsCommand = cli.Command{
	Name:  "list",
	Usage: "list every swap recorded in the local database",
	Action: func(ctx *cli.Context) error {
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		ids, err := db.ListSwaps()
		if err != nil {
			return err
		}
		for _, id := range ids {
			s, err := db.GetSwap(id)
			if err != nil {
				fmt.Printf("%s  <error: %v>\n", id, err)
				continue
			}
			fmt.Printf("%s  role=%-6s status=%-12s primary=%d secondary=%d\n",
				s.ID, s.Role, s.Status, s.PrimaryAmount, s.SecondaryAmount)
		}
		return nil
	},
}

var swapStatusCommand = cli.Command{
	Name:      "status",
	Usage:     "show one swap's full state and next recommended action",
	ArgsUsage: "<swap-id>",
	Flags: []cli.Flag{
		cli.Uint64Flag{Name: "tip", Usage: "current MWC chain tip, for the action advisor"},
	},
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return cli.NewExitError("usage: swapcli status <swap-id>", 1)
		}
		id, err := uuid.Parse(ctx.Args().Get(0))
		if err != nil {
			return err
		}

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		s, err := db.GetSwap(id)
		if err != nil {
			return err
		}

		fmt.Printf("swap %s\n  role:      %s\n  status:    %s\n  primary:   %d\n  secondary: %d %s\n",
			s.ID, s.Role, s.Status, s.PrimaryAmount, s.SecondaryAmount, s.SecondaryCurrency)

		result := swap.Advise(s, swap.ChainObservations{Tip: ctx.Uint64("tip")})
		fmt.Printf("  next:      %s\n", result.Action)
		return nil
	},
}

var sellCommand = cli.Command{
	Name:  "sell",
	Usage: "create a new swap offer as the seller",
	Flags: []cli.Flag{
		cli.Uint64Flag{Name: "primary", Usage: "MWC amount offered, in nanocoin"},
		cli.Uint64Flag{Name: "secondary", Usage: "BTC amount requested, in satoshi"},
		cli.BoolFlag{Name: "lock-first", Usage: "seller locks MWC before the buyer locks BTC"},
	},
	Action: func(ctx *cli.Context) error {
		network, err := parseNetwork(ctx)
		if err != nil {
			return err
		}
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		cfg := swapcfg.NewProductionConfig(network)
		s := swap.NewSellerSwap(uuid.New(), cfg, ctx.Uint64("primary"), ctx.Uint64("secondary"), ctx.Bool("lock-first"))
		if err := db.PutSwap(s); err != nil {
			return err
		}
		fmt.Printf("created swap %s\n", s.ID)
		return nil
	},
}

var refundCheckCommand = cli.Command{
	Name:      "refund-check",
	Usage:     "report whether a swap's refund path has opened",
	ArgsUsage: "<swap-id>",
	Flags: []cli.Flag{
		cli.Uint64Flag{Name: "tip", Usage: "current MWC chain tip"},
	},
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return cli.NewExitError("usage: swapcli refund-check <swap-id>", 1)
		}
		id, err := uuid.Parse(ctx.Args().Get(0))
		if err != nil {
			return err
		}

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		s, err := db.GetSwap(id)
		if err != nil {
			return err
		}

		open := swap.AdviseRefund(s, ctx.Uint64("tip"))
		fmt.Printf("refund open: %v\n", open)
		return nil
	},
}
