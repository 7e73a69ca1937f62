package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"creditbot/internal/config"
	"creditbot/internal/db"
	"creditbot/internal/game"

	"github.com/spf13/cobra"
)

type app struct {
	cfg     config.CtlConfig
	verbose bool
}

func main() {
	root := newRootCmd(&app{cfg: config.LoadCtlFromEnv()})
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Inspect and repair the creditbot economy",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.cfg.Storage.DataDir, "data-dir", a.cfg.Storage.DataDir, "directory holding users.json, market.json and boost.json")
	root.PersistentFlags().StringVar(&a.cfg.Storage.DatabaseURL, "database-url", a.cfg.Storage.DatabaseURL, "Postgres URL; overrides --data-dir")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log engine activity to stderr")

	root.AddCommand(
		a.newCreditsCmd(),
		a.newGrantCmd(),
		a.newRevokeCmd(),
		a.newResetCmd(),
		a.newResetBoostCmd(),
		a.newBoostCmd(),
		a.newLeaderboardCmd(),
		a.newMarketCmd(),
		a.newInventoryCmd(),
	)
	return root
}

// withEngine loads the economy, runs fn and releases the backend. Writes
// land in the same snapshots the bot reads, last writer wins.
func (a *app) withEngine(cmd *cobra.Command, fn func(ctx context.Context, svc *game.Service) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, closeStore, err := db.OpenSnapshots(ctx, a.cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := game.Open(ctx, store, game.Options{OwnerID: a.cfg.OwnerID, Logger: logger})
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}

func (a *app) requireOwner() error {
	if strings.TrimSpace(a.cfg.OwnerID) == "" {
		return fmt.Errorf("CREDITBOT_OWNER_ID must be set to change balances")
	}
	return nil
}

func (a *app) newCreditsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "credits <user-id>",
		Short: "Show a user's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, svc *game.Service) error {
				balance, err := svc.CheckCredits(ctx, args[0])
				if err != nil {
					return err
				}
				renderBalance(args[0], balance)
				return nil
			})
		},
	}
}

func (a *app) newGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <user-id> <amount>",
		Short: "Add credits to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.adjust(cmd, args, false)
		},
	}
}

func (a *app) newRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <user-id> <amount>",
		Short: "Remove credits from a user, stopping at zero",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.adjust(cmd, args, true)
		},
	}
}

func (a *app) adjust(cmd *cobra.Command, args []string, debit bool) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	amount, err := game.ParseCredits(args[1])
	if err != nil {
		return err
	}
	return a.withEngine(cmd, func(ctx context.Context, svc *game.Service) error {
		var balance game.Credits
		if debit {
			balance, err = svc.RemoveCredits(ctx, a.cfg.OwnerID, args[0], amount)
		} else {
			balance, err = svc.AddCredits(ctx, a.cfg.OwnerID, args[0], amount)
		}
		if err != nil {
			return err
		}
		verb := "Granted"
		if debit {
			verb = "Revoked"
		}
		printSuccess(fmt.Sprintf("%s %s credits for %s.", verb, amount.Comma(), args[0]))
		renderBalance(args[0], balance)
		return nil
	})
}

func (a *app) newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <user-id>",
		Short: "Set a user's balance to zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOwner(); err != nil {
				return err
			}
			return a.withEngine(cmd, func(ctx context.Context, svc *game.Service) error {
				if err := svc.ResetCredits(ctx, a.cfg.OwnerID, args[0]); err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("Reset %s to 0 credits.", args[0]))
				return nil
			})
		},
	}
}

func (a *app) newResetBoostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resetboost",
		Short: "Clear the global spin boost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOwner(); err != nil {
				return err
			}
			return a.withEngine(cmd, func(ctx context.Context, svc *game.Service) error {
				if err := svc.ResetBoost(ctx, a.cfg.OwnerID); err != nil {
					return err
				}
				printSuccess("Boost reset.")
				return nil
			})
		},
	}
}

func (a *app) newBoostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boost",
		Short: "Show the global spin boost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, svc *game.Service) error {
				renderBoost(svc.Boost(ctx))
				return nil
			})
		},
	}
}

func (a *app) newLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "leaderboard",
		Aliases: []string{"lb"},
		Short:   "Top balances",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, svc *game.Service) error {
				rows, err := svc.Leaderboard(ctx)
				if err != nil {
					return err
				}
				renderLeaderboard(rows)
				return nil
			})
		},
	}
}

func (a *app) newMarketCmd() *cobra.Command {
	market := &cobra.Command{
		Use:   "market",
		Short: "List market listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, svc *game.Service) error {
				entries, err := svc.ListMarket(ctx)
				if err != nil {
					return err
				}
				renderMarket(entries)
				return nil
			})
		},
	}
	market.AddCommand(&cobra.Command{
		Use:   "remove <listing-id>",
		Short: "Withdraw a listing by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOwner(); err != nil {
				return err
			}
			return a.withEngine(cmd, func(ctx context.Context, svc *game.Service) error {
				listing, err := svc.RemoveListing(ctx, a.cfg.OwnerID, args[0])
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("Removed %q (%s credits).", listing.Name, listing.Price.Comma()))
				return nil
			})
		},
	})
	return market
}

func (a *app) newInventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "inventory <user-id>",
		Aliases: []string{"inv"},
		Short:   "Show what a user owns",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, svc *game.Service) error {
				items, err := svc.Inventory(ctx, args[0])
				if err != nil {
					return err
				}
				renderInventory(args[0], items)
				return nil
			})
		},
	}
}
