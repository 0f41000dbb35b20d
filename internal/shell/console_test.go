package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/labs/internal/hanoi"
	"github.com/robalobadob/labs/internal/wallet"
)

func newConsole(input string) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	return NewConsole(strings.NewReader(input), &out, zerolog.Nop()), &out
}

func TestDrawTowers(t *testing.T) {
	tw, err := hanoi.New(3)
	require.NoError(t, err)
	require.NoError(t, tw.Move(hanoi.PegA, hanoi.PegC))

	var out bytes.Buffer
	DrawTowers(&out, tw)
	want := "\n" +
		"  2     |     |  \n" +
		"  3     |     1  \n" +
		"  A     B     C\n\n"
	assert.Equal(t, want, out.String())
}

func TestCenter(t *testing.T) {
	assert.Equal(t, "  7  ", center("7", 5))
	assert.Equal(t, " 10  ", center("10", 5))
	assert.Equal(t, "123456", center("123456", 5))
}

func TestReadDisks(t *testing.T) {
	tests := []struct {
		input string
		want  int
		msg   bool
	}{
		{"\n", 3, false},
		{"", 3, false},
		{"5\n", 5, false},
		{"abc\n", 3, true},
		{"0\n", 0, false},
	}
	for _, tt := range tests {
		c, out := newConsole(tt.input)
		assert.Equal(t, tt.want, c.ReadDisks(), "input %q", tt.input)
		assert.Equal(t, tt.msg, strings.Contains(out.String(), "Invalid number, using 3 disks."))
	}
}

func TestPlayHanoi_Solve(t *testing.T) {
	c, out := newConsole("a c\nx\nA C\nA B\nC B\nA C\nB A\nB C\nA C\n")
	res, err := c.PlayHanoi(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, res.Solved)
	assert.Equal(t, 7, res.Moves)
	assert.Contains(t, out.String(), "Error: "+moveFormatMsg)
	assert.Contains(t, out.String(), "Error: illegal move: A -> C")
	assert.Contains(t, out.String(), "Congratulations! You solved the puzzle.")
}

func TestPlayHanoi_Abort(t *testing.T) {
	c, out := newConsole("A C\nq\nA B\n")
	res, err := c.PlayHanoi(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, res.Solved)
	assert.Equal(t, 1, res.Moves)
	assert.Contains(t, out.String(), "Game aborted by user.")
}

func TestPlayHanoi_EOFAborts(t *testing.T) {
	c, out := newConsole("A C\n")
	res, err := c.PlayHanoi(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, res.Solved)
	assert.Contains(t, out.String(), "Game aborted by user.")
}

func TestPlayHanoi_Hint(t *testing.T) {
	c, out := newConsole("hint\nC A\nA B\nB C\nhint\nq\n")
	_, err := c.PlayHanoi(context.Background(), 2)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Hint: A B")
	assert.Contains(t, out.String(), "No hint available from this position.")
}

func TestPlayHanoi_InvalidDisks(t *testing.T) {
	c, _ := newConsole("")
	_, err := c.PlayHanoi(context.Background(), 0)
	assert.True(t, errors.Is(err, hanoi.ErrInvalidConfiguration))
}

func TestPlayHanoi_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _ := newConsole("A C\n")
	_, err := c.PlayHanoi(ctx, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWallet(t *testing.T) {
	input := strings.Join([]string{
		"balance",
		"deposit 10",
		"withdraw 3",
		"withdraw 100",
		"deposit -5",
		"deposit",
		"deposit ten",
		"fly away",
		"",
		"BALANCE",
		"exit",
		"deposit 1",
	}, "\n") + "\n"
	c, out := newConsole(input)
	w, err := wallet.New(0)
	require.NoError(t, err)

	require.NoError(t, c.RunWallet(context.Background(), w))
	assert.Equal(t, int64(7), w.Balance())

	got := out.String()
	for _, line := range []string{
		"Wallet CLI. Commands: deposit <amount>, withdraw <amount>, balance, quit",
		"Current balance: 0",
		"Deposited 10. New balance: 10",
		"Withdrew 3. New balance: 7",
		"Error: insufficient funds: not enough balance in wallet",
		"Error: invalid amount: deposit amount must be positive",
		"Error: usage: deposit <amount>",
		`Error: invalid amount: "ten" is not a whole number`,
		"Unknown command.",
		"Current balance: 7",
		"Goodbye!",
	} {
		assert.Contains(t, got, line)
	}
}

func TestRunWallet_EOF(t *testing.T) {
	c, out := newConsole("deposit 4")
	w, err := wallet.New(1)
	require.NoError(t, err)
	require.NoError(t, c.RunWallet(context.Background(), w))
	assert.Equal(t, int64(5), w.Balance())
	assert.True(t, strings.HasSuffix(out.String(), "Goodbye!\n"))
}
