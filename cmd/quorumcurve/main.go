package main

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/XingyuLi20/gobblers-dao/governance"
	"github.com/XingyuLi20/gobblers-dao/internal/config"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <config.toml> <total-voting-supply>\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "\nPrints the dynamic quorum requirement across the against-vote range.\n")
		os.Exit(1)
	}

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	supply, ok := new(big.Int).SetString(os.Args[2], 10)
	if !ok || supply.Sign() <= 0 {
		fmt.Fprintf(os.Stderr, "Invalid total voting supply: %s\n", os.Args[2])
		os.Exit(1)
	}

	params := cfg.EngineConfig().QuorumParams
	fmt.Printf("Dynamic quorum curve (supply=%s, min=%d bps, max=%d bps, coefficient=%d)\n\n",
		supply, params.MinQuorumVotesBPS, params.MaxQuorumVotesBPS, params.QuorumCoefficient)
	fmt.Printf("%-12s %-22s %s\n", "against %", "against votes", "required quorum")

	// Sweep the against-vote share from 0% to 100% in 5% steps.
	for pct := int64(0); pct <= 100; pct += 5 {
		against := new(big.Int).Mul(supply, big.NewInt(pct))
		against.Quo(against, big.NewInt(100))

		quorum := governance.RequiredQuorum(supply, against, params)
		fmt.Printf("%-12d %-22s %s\n", pct, against, quorum)
	}
}
