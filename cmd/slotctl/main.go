// slotctl drives commit-reveal sessions against a ledger gateway from
// the command line: commit, reveal, cancel, status, watch, stats.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gologme/log"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dominohunter/slotengine/engine"
	slotgrpc "github.com/dominohunter/slotengine/grpc"
	"github.com/dominohunter/slotengine/session"
)

var (
	configPath   string
	dataDir      string
	ledgerAddr   string
	contractAddr string
	statsURL     string
	verbose      bool
)

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		log.EnableLevel("error")
		log.EnableLevel("warn")
		log.EnableLevel("info")
		if verbose {
			log.EnableLevel("debug")
		}
		loadConfig()
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (optional)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "./slotdata", "path to the local session database")
	rootCmd.PersistentFlags().StringVar(&ledgerAddr, "ledger", "127.0.0.1:9040", "ledger gateway address")
	rootCmd.PersistentFlags().StringVar(&contractAddr, "contract", "", "game contract address (for outcome decoding)")
	rootCmd.PersistentFlags().StringVar(&statsURL, "stats-url", "http://127.0.0.1:8080", "stats backend base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(commitCmd, revealCmd, cancelCmd, statusCmd, watchCmd, statsCmd)
}

var rootCmd = &cobra.Command{
	Use:   "slotctl",
	Short: "Commit-reveal session driver for the NFT swap game",
}

// loadConfig overlays an optional config file on the flag defaults.
// Flags set explicitly on the command line always win.
func loadConfig() {
	if configPath == "" {
		return
	}
	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		exitWithError("config file not readable", err)
	}
	if s := v.GetString("ledger.addr"); s != "" && !rootCmd.PersistentFlags().Changed("ledger") {
		ledgerAddr = s
	}
	if s := v.GetString("data.dir"); s != "" && !rootCmd.PersistentFlags().Changed("data") {
		dataDir = s
	}
	if s := v.GetString("stats.url"); s != "" && !rootCmd.PersistentFlags().Changed("stats-url") {
		statsURL = s
	}
	if s := v.GetString("ledger.contract"); s != "" && !rootCmd.PersistentFlags().Changed("contract") {
		contractAddr = s
	}
}

func exitWithError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

// dialEngine wires the full stack for one command invocation: gRPC
// ledger client, badger session store, engine. The returned cleanup
// closes all three.
func dialEngine(ctx context.Context) (*engine.Engine, func()) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := slotgrpc.Dial(dialCtx, ledgerAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		exitWithError("dial ledger gateway", err)
	}

	store, err := session.OpenBadger(dataDir)
	if err != nil {
		client.Close()
		exitWithError("open session database", err)
	}

	eng := engine.New(client, store, common.HexToAddress(contractAddr))
	return eng, func() {
		eng.Close()
		store.Close()
		client.Close()
	}
}

func parseOwner(arg string) common.Address {
	if !common.IsHexAddress(arg) {
		exitWithError("bad owner address", fmt.Errorf("%q is not a hex address", arg))
	}
	return common.HexToAddress(arg)
}

// parseSecret accepts a decimal or 0x-prefixed hex secret.
func parseSecret(arg string) *uint256.Int {
	s := new(uint256.Int)
	var err error
	if len(arg) > 2 && arg[:2] == "0x" {
		err = s.SetFromHex(arg)
	} else {
		err = s.SetFromDecimal(arg)
	}
	if err != nil {
		exitWithError("bad secret", err)
	}
	return s
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
