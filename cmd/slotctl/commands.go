package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gologme/log"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/dominohunter/slotengine/engine"
	"github.com/dominohunter/slotengine/stats"
	"github.com/dominohunter/slotengine/types"
)

var secretArg string

func init() {
	commitCmd.Flags().StringVar(&secretArg, "secret", "", "reveal secret (decimal or 0x hex); generated randomly when omitted")
	revealCmd.Flags().StringVar(&secretArg, "secret", "", "reveal secret override; the stored one is used when omitted")
}

var commitCmd = &cobra.Command{
	Use:   "commit <owner> <token-id> <tier>",
	Short: "Deposit an NFT and open a commitment",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		owner := parseOwner(args[0])
		tokenID, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			exitWithError("bad token id", err)
		}
		tier, err := strconv.ParseUint(args[2], 10, 8)
		if err != nil {
			exitWithError("bad tier", err)
		}

		secret := randomSecret()
		if secretArg != "" {
			secret = parseSecret(secretArg)
		}

		eng, cleanup := dialEngine(cmd.Context())
		defer cleanup()

		pending, err := eng.Commit(cmd.Context(), owner, tokenID, uint8(tier), secret)
		if err != nil {
			exitWithError("commit failed", err)
		}
		fmt.Printf("commit confirmed, tx %s\n", pending.Hash)
		fmt.Printf("secret (keep it): %s\n", secret.Dec())
	},
}

var revealCmd = &cobra.Command{
	Use:   "reveal <owner>",
	Short: "Reveal an eligible commitment and draw from the pool",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		owner := parseOwner(args[0])

		var secret *uint256.Int
		if secretArg != "" {
			secret = parseSecret(secretArg)
		}

		eng, cleanup := dialEngine(cmd.Context())
		defer cleanup()

		res, err := eng.Reveal(cmd.Context(), owner, secret)
		if err != nil {
			exitWithError("reveal failed", err)
		}
		fmt.Printf("reveal confirmed in block %d, tx %s\n", res.Receipt.Height, res.Receipt.TxHash)
		if res.OutcomeKnown {
			fmt.Printf("swapped token %d for token %d (tier %d)\n",
				res.Outcome.DepositedAssetID, res.Outcome.ReceivedAssetID, res.Outcome.ReceivedTier)
		} else {
			fmt.Println("outcome not in the receipt; check your history")
		}
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <owner>",
	Short: "Cancel an expired commitment and recover the fee",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		owner := parseOwner(args[0])

		eng, cleanup := dialEngine(cmd.Context())
		defer cleanup()

		receipt, err := eng.Cancel(cmd.Context(), owner)
		if err != nil {
			exitWithError("cancel failed", err)
		}
		fmt.Printf("cancel confirmed in block %d, tx %s\n", receipt.Height, receipt.TxHash)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <owner>",
	Short: "Show the reconciled session state for an owner",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		owner := parseOwner(args[0])

		eng, cleanup := dialEngine(cmd.Context())
		defer cleanup()

		view, err := eng.Reconcile(cmd.Context(), owner)
		if err != nil {
			exitWithError("reconcile failed", err)
		}
		printView(view)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <owner>...",
	Short: "Continuously reconcile and report state changes",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, cleanup := dialEngine(cmd.Context())
		defer cleanup()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		events, unsubscribe := eng.Subscribe()
		defer unsubscribe()

		// Prime tracking with one pass per owner.
		for _, arg := range args {
			view, err := eng.Reconcile(ctx, parseOwner(arg))
			if err != nil {
				exitWithError("reconcile failed", err)
			}
			printView(view)
		}

		go func() {
			if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
				log.Errorf("reconciler stopped: %v", err)
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		for {
			select {
			case <-sigCh:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				switch ev.Kind {
				case engine.EventOutcome:
					fmt.Printf("%s: swapped token %d for token %d (tier %d)\n",
						ev.Owner, ev.Outcome.DepositedAssetID, ev.Outcome.ReceivedAssetID, ev.Outcome.ReceivedTier)
				case engine.EventSessionCleared:
					fmt.Printf("%s: commitment resolved elsewhere, local session cleared\n", ev.Owner)
				default:
					fmt.Printf("%s: state %s\n", ev.Owner, ev.State)
				}
			}
		}
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <owner>",
	Short: "Show backend stats for an owner",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		owner := parseOwner(args[0])

		client := stats.NewClient(statsURL)
		ps, err := client.PlayerStats(cmd.Context(), owner)
		if err != nil {
			exitWithError("fetch stats", err)
		}
		fmt.Printf("plays: %d  swaps: %d  cancels: %d  best tier: %d\n",
			ps.TotalPlays, ps.TotalSwaps, ps.Cancels, ps.BestTier)
	},
}

func printView(view engine.SessionView) {
	fmt.Printf("owner %s  height %d  state %s  next %s\n",
		view.Owner, view.Height, view.State, view.Next)
	if view.Commitment.Active() {
		fmt.Printf("  commitment from block %d: token %d tier %d (secret %s)\n",
			view.Commitment.CommitBlock, view.Commitment.DepositAssetID,
			view.Commitment.DepositTier, secretNote(view.HasSecret))
	}
	switch {
	case view.State == types.StateRevealLocked && view.BlocksLeft > 0:
		fmt.Printf("  %d block(s) until the reveal window opens\n", view.BlocksLeft)
	case view.State == types.StateRevealEligible && view.BlocksLeft > 0:
		fmt.Printf("  %d block(s) until expiry\n", view.BlocksLeft)
	}
	if view.InFlight != nil {
		fmt.Printf("  %s in flight: %s\n", view.InFlight.Kind, view.InFlight.Hash)
	}
}

func secretNote(has bool) string {
	if has {
		return "stored locally"
	}
	return "not on this device"
}

func randomSecret() *uint256.Int {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		exitWithError("generate secret", err)
	}
	return new(uint256.Int).SetBytes32(b[:])
}
