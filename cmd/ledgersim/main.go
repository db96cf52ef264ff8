// ledgersim is a development ledger gateway: it serves a simulated
// game contract over the gRPC transport so slotctl has something real
// to dial. Heights advance on a timer; pool and player tokens are
// minted at startup.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gologme/log"

	slotgrpc "github.com/dominohunter/slotengine/grpc"
	slottest "github.com/dominohunter/slotengine/testing"
)

var (
	listenAddr = flag.String("listen", "127.0.0.1:9040", "gRPC listen address")
	blockTime  = flag.Duration("block-time", 2*time.Second, "interval between simulated blocks")
	playFee    = flag.Uint64("fee", 1000, "play fee charged per commit")
	poolSize   = flag.Uint64("pool", 25, "number of tokens minted into the swap pool")
	playerHex  = flag.String("player", "", "optional player address to mint test tokens for")
)

func main() {
	flag.Parse()
	log.EnableLevel("error")
	log.EnableLevel("warn")
	log.EnableLevel("info")

	sim := slottest.NewSimLedger(*playFee)
	for i := uint64(0); i < *poolSize; i++ {
		sim.FillPool(9000 + i)
	}
	if *playerHex != "" {
		if !common.IsHexAddress(*playerHex) {
			fmt.Fprintf(os.Stderr, "bad player address %q\n", *playerHex)
			os.Exit(1)
		}
		player := common.HexToAddress(*playerHex)
		for i := uint64(1); i <= 5; i++ {
			sim.MintTo(player, i, uint8(i))
		}
		log.Infof("minted tokens 1..5 for %s", player)
	}

	lis, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen: %v\n", err)
		os.Exit(1)
	}
	log.Infof("ledgersim serving on %s (contract %s, fee %d, pool %d, block time %s)",
		*listenAddr, sim.Contract(), *playFee, *poolSize, *blockTime)

	// Mine on a timer so windows open and expire on their own.
	ticker := time.NewTicker(*blockTime)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			sim.AdvanceBlocks(1)
		}
	}()

	srv := slotgrpc.NewGRPCServer(sim)
	go func() {
		if err := srv.Serve(lis); err != nil {
			log.Errorf("grpc server stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Infoln("shutting down")
}
