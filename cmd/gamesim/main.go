// Package main runs Monte Carlo batches of War, the snakes-and-ladders race,
// and craps from the command line, and lays out Duet key cards.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	simulatecmd "github.com/MJE43/gamesim/internal/cmd/simulate"
	"github.com/MJE43/gamesim/internal/platform/config"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: gamesim <%s> [flags]\n", strings.Join(simulatecmd.Commands, "|"))
	fmt.Fprintln(os.Stderr, "run 'gamesim <game> -h' for the flags of one game")
}

func main() {
	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		usage()
		os.Exit(2)
	}
	game := os.Args[1]

	fs := flag.NewFlagSet("gamesim "+game, flag.ContinueOnError)
	cfg, err := simulatecmd.ParseConfig(game, fs, os.Args[2:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		config.Exitf("gamesim: %v", err)
	}

	log.SetPrefix("[GAMESIM] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := simulatecmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		log.Fatalf("run: %v", err)
	}
}
