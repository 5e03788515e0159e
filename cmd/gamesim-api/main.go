// Package main serves the simulation HTTP API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	servecmd "github.com/MJE43/gamesim/internal/cmd/serve"
)

func main() {
	cfg, err := servecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[API] ")
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := servecmd.Run(ctx, cfg, log.Default()); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
