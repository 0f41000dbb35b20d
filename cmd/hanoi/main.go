// cmd/hanoi/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/robalobadob/labs/internal/hanoi"
	"github.com/robalobadob/labs/internal/shell"
)

func main() {
	_ = godotenv.Load()

	disks := flag.Int("disks", envInt("HANOI_DISKS", 0), "number of disks (0 = ask)")
	levelStr := flag.String("log-level", "warn", "debug|info|warn|error")
	flag.Parse()

	lvl, err := zerolog.ParseLevel(*levelStr)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := shell.NewConsole(os.Stdin, os.Stdout, logger)
	n := *disks
	if n == 0 {
		n = c.ReadDisks()
	}
	out, err := c.PlayHanoi(ctx, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		if errors.Is(err, hanoi.ErrInvalidConfiguration) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	logger.Debug().Bool("solved", out.Solved).Int("moves", out.Moves).Msg("session closed")
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}
