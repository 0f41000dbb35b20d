// cmd/wallet/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/robalobadob/labs/internal/shell"
	"github.com/robalobadob/labs/internal/wallet"
)

func main() {
	_ = godotenv.Load()

	initial := flag.Int64("initial", envInt64("WALLET_INITIAL", 0), "opening balance")
	levelStr := flag.String("log-level", "warn", "debug|info|warn|error")
	flag.Parse()

	lvl, err := zerolog.ParseLevel(*levelStr)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()

	w, err := wallet.New(*initial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := shell.NewConsole(os.Stdin, os.Stdout, logger).RunWallet(ctx, w); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
	logger.Debug().Stringer("wallet", w).Msg("session closed")
}

func envInt64(k string, def int64) int64 {
	if n, err := strconv.ParseInt(os.Getenv(k), 10, 64); err == nil {
		return n
	}
	return def
}
