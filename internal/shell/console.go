// internal/shell/console.go
//
// Line-oriented console front ends for the puzzle engine and the wallet.
// Both loops read one line at a time, print errors and keep going; only a quit
// command, end of input or a cancelled context stops them.

package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/robalobadob/labs/internal/hanoi"
	"github.com/robalobadob/labs/internal/wallet"
)

// DefaultDisks is used when the disk prompt gets empty or bad input.
const DefaultDisks = 3

const moveFormatMsg = "Move must have two peg labels, for example 'A C'."

// Console binds a line reader to an output writer.
type Console struct {
	in  *bufio.Scanner
	out io.Writer
	log zerolog.Logger
}

// NewConsole wraps in/out. Events go to logger.
func NewConsole(in io.Reader, out io.Writer, logger zerolog.Logger) *Console {
	return &Console{in: bufio.NewScanner(in), out: out, log: logger}
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

// ReadDisks prompts for a disk count, falling back to DefaultDisks.
func (c *Console) ReadDisks() int {
	fmt.Fprintf(c.out, "Enter number of disks (default %d): ", DefaultDisks)
	line, ok := c.readLine()
	if !ok || line == "" {
		return DefaultDisks
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		fmt.Fprintf(c.out, "Invalid number, using %d disks.\n", DefaultDisks)
		return DefaultDisks
	}
	return n
}

// Outcome is how a puzzle session ended.
type Outcome struct {
	Solved bool
	Moves  int
}

// PlayHanoi runs the puzzle loop until it is solved, aborted with Q,
// input runs out or ctx is cancelled.
func (c *Console) PlayHanoi(ctx context.Context, disks int) (Outcome, error) {
	g, err := hanoi.NewGame(disks)
	if err != nil {
		return Outcome{}, err
	}
	c.log.Debug().Str("game", g.ID).Int("disks", disks).Msg("puzzle started")

	for {
		DrawTowers(c.out, g.Towers)
		if g.Finished {
			fmt.Fprintln(c.out, "Congratulations! You solved the puzzle.")
			c.log.Debug().Str("game", g.ID).Int("moves", g.Moves).Msg("puzzle solved")
			return Outcome{Solved: true, Moves: g.Moves}, nil
		}
		if err := ctx.Err(); err != nil {
			return Outcome{Moves: g.Moves}, err
		}

		fmt.Fprint(c.out, "Enter move (from to), for example 'A C', or Q to quit: ")
		line, ok := c.readLine()
		if !ok || strings.EqualFold(line, "q") {
			fmt.Fprintln(c.out, "Game aborted by user.")
			return Outcome{Moves: g.Moves}, c.in.Err()
		}
		if strings.EqualFold(line, "hint") {
			if s, ok := hanoi.Hint(g.Towers, g.Disks); ok {
				fmt.Fprintf(c.out, "Hint: %s\n", s)
			} else {
				fmt.Fprintln(c.out, "No hint available from this position.")
			}
			continue
		}

		parts := strings.Fields(line)
		if len(parts) != 2 {
			fmt.Fprintf(c.out, "Error: %s\n", moveFormatMsg)
			continue
		}
		if _, err := g.Move(parts[0], parts[1]); err != nil {
			c.log.Debug().Err(err).Str("from", parts[0]).Str("to", parts[1]).Msg("move rejected")
			fmt.Fprintf(c.out, "Error: %v\n", err)
			continue
		}
	}
}

// RunWallet runs the wallet command loop against w.
func (c *Console) RunWallet(ctx context.Context, w *wallet.Wallet) error {
	fmt.Fprintln(c.out, "Wallet CLI. Commands: deposit <amount>, withdraw <amount>, balance, quit")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.out, "> ")
		line, ok := c.readLine()
		if !ok {
			fmt.Fprintln(c.out, "Goodbye!")
			return c.in.Err()
		}
		fields := strings.Fields(strings.ToLower(line))
		if len(fields) == 0 {
			fmt.Fprintln(c.out, "Unknown command.")
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		case "deposit", "withdraw":
			amount, err := parseAmount(fields)
			if err == nil {
				if fields[0] == "deposit" {
					err = w.Deposit(amount)
				} else {
					err = w.Withdraw(amount)
				}
			}
			if err != nil {
				c.log.Debug().Err(err).Str("cmd", fields[0]).Msg("wallet command failed")
				fmt.Fprintf(c.out, "Error: %v\n", err)
				continue
			}
			verb := "Deposited"
			if fields[0] == "withdraw" {
				verb = "Withdrew"
			}
			fmt.Fprintf(c.out, "%s %d. New balance: %d\n", verb, amount, w.Balance())
		case "balance":
			if len(fields) != 1 {
				fmt.Fprintln(c.out, "Unknown command.")
				continue
			}
			fmt.Fprintf(c.out, "Current balance: %d\n", w.Balance())
		default:
			fmt.Fprintln(c.out, "Unknown command.")
		}
	}
}

// parseAmount expects exactly "<cmd> <integer>".
func parseAmount(fields []string) (int64, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("usage: %s <amount>", fields[0])
	}
	n, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", wallet.ErrInvalidAmount, fields[1])
	}
	return n, nil
}
