// internal/hanoi/engine.go
//
// Core engine for the three-peg puzzle.
// Responsibilities:
//   - Create boards with all disks on peg A.
//   - Validate moves (single rule: smaller onto larger or onto an empty peg).
//   - Apply legal moves atomically.
//   - Detect the solved board (all disks on peg C).
//
// The engine is a human-driven state machine. Solve only produces the optimal step
// list for hints; it never plays on its own.
package hanoi

import (
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/google/uuid"
)

// New returns a board with disks N..1 on peg A and pegs B, C empty.
func New(disks int) (*Towers, error) {
	if disks <= 0 {
		return nil, fmt.Errorf("%w: number of disks must be positive, got %d", ErrInvalidConfiguration, disks)
	}
	t := &Towers{}
	t.stacks[PegA] = make([]Disk, 0, disks)
	for d := disks; d >= 1; d-- {
		t.stacks[PegA] = append(t.stacks[PegA], Disk(d))
	}
	return t, nil
}

// Valid reports whether moving the top disk of from onto to is legal.
// It never mutates t.
func (t *Towers) Valid(from, to Peg) bool {
	if from == to || !from.valid() || !to.valid() {
		return false
	}
	src := t.stacks[from]
	if len(src) == 0 {
		return false
	}
	dst := t.stacks[to]
	if len(dst) == 0 {
		return true
	}
	return src[len(src)-1] < dst[len(dst)-1]
}

// ValidLabels is Valid over peg labels. Unknown labels are never valid.
func ValidLabels(t *Towers, from, to string) bool {
	f, err := ParsePeg(from)
	if err != nil {
		return false
	}
	d, err := ParsePeg(to)
	if err != nil {
		return false
	}
	return t.Valid(f, d)
}

// Move relocates the top disk of from onto to.
// An illegal move returns ErrIllegalMove and leaves t untouched.
func (t *Towers) Move(from, to Peg) error {
	if !t.Valid(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalMove, from, to)
	}
	src := t.stacks[from]
	disk := src[len(src)-1]
	t.stacks[from] = src[:len(src)-1]
	t.stacks[to] = append(t.stacks[to], disk)
	return nil
}

// Solved reports whether peg C holds exactly disks..1.
func (t *Towers) Solved(disks int) bool {
	if disks <= 0 {
		return false
	}
	c := t.stacks[PegC]
	if len(c) != disks {
		return false
	}
	for i, d := range c {
		if int(d) != disks-i {
			return false
		}
	}
	return true
}

// Peg returns a copy of the stack on p, bottom first.
func (t *Towers) Peg(p Peg) []Disk {
	if !p.valid() {
		return nil
	}
	out := make([]Disk, len(t.stacks[p]))
	copy(out, t.stacks[p])
	return out
}

// Top returns the top disk of p, or 0 when p is empty.
func (t *Towers) Top(p Peg) Disk {
	if !p.valid() || len(t.stacks[p]) == 0 {
		return 0
	}
	s := t.stacks[p]
	return s[len(s)-1]
}

// Height returns the size of the tallest stack.
func (t *Towers) Height() int {
	h := 0
	for _, s := range t.stacks {
		if len(s) > h {
			h = len(s)
		}
	}
	return h
}

// Count returns the total number of disks on the board.
func (t *Towers) Count() int {
	n := 0
	for _, s := range t.stacks {
		n += len(s)
	}
	return n
}

// Clone returns a deep copy.
func (t *Towers) Clone() *Towers {
	c := &Towers{}
	for i := range t.stacks {
		c.stacks[i] = append(make([]Disk, 0, cap(t.stacks[i])), t.stacks[i]...)
	}
	return c
}

// Equal reports whether both boards hold the same stacks.
func (t *Towers) Equal(o *Towers) bool {
	for i := range t.stacks {
		if len(t.stacks[i]) != len(o.stacks[i]) {
			return false
		}
		for j := range t.stacks[i] {
			if t.stacks[i][j] != o.stacks[i][j] {
				return false
			}
		}
	}
	return true
}

// Map exposes the board keyed by peg label for renderers and JSON.
func (t *Towers) Map() map[string][]Disk {
	m := make(map[string][]Disk, NumPegs)
	for _, p := range Pegs {
		m[p.String()] = t.Peg(p)
	}
	return m
}

// MinMoves is the optimal move count for the given number of disks.
// Counts that do not fit in an int saturate at math.MaxInt.
func MinMoves(disks int) int {
	if disks <= 0 {
		return 0
	}
	if disks >= bits.UintSize-1 {
		return math.MaxInt
	}
	return 1<<uint(disks) - 1
}

// Solve returns the optimal step list moving disks from A to C.
func Solve(disks int) []Step {
	if disks <= 0 {
		return nil
	}
	steps := make([]Step, 0, MinMoves(disks))
	var rec func(n int, from, to, spare Peg)
	rec = func(n int, from, to, spare Peg) {
		if n == 0 {
			return
		}
		rec(n-1, from, spare, to)
		steps = append(steps, Step{From: from, To: to})
		rec(n-1, spare, to, from)
	}
	rec(disks, PegA, PegC, PegB)
	return steps
}

// MaxHintDisks bounds the replay done by Hint.
const MaxHintDisks = 20

// Hint returns the next optimal step when t is a position on the optimal
// A to C path. ok is false otherwise, or when t is already solved.
func Hint(t *Towers, disks int) (Step, bool) {
	if disks > MaxHintDisks || t.Solved(disks) {
		return Step{}, false
	}
	replay, err := New(disks)
	if err != nil {
		return Step{}, false
	}
	for _, s := range Solve(disks) {
		if replay.Equal(t) {
			return s, true
		}
		_ = replay.Move(s.From, s.To)
	}
	return Step{}, false
}

// NewGame constructs a new puzzle session.
func NewGame(disks int) (*Game, error) {
	t, err := New(disks)
	if err != nil {
		return nil, err
	}
	return &Game{
		ID:        uuid.NewString(),
		Disks:     disks,
		Towers:    t,
		StartedAt: time.Now(),
	}, nil
}

// Move parses peg labels and applies the move to the session.
// Returns the new state string ("playing"/"solved") or an error.
func (g *Game) Move(from, to string) (string, error) {
	if g.Finished || g.Aborted {
		return g.State(), ErrGameFinished
	}
	f, err := ParsePeg(from)
	if err != nil {
		return g.State(), err
	}
	d, err := ParsePeg(to)
	if err != nil {
		return g.State(), err
	}
	if err := g.Towers.Move(f, d); err != nil {
		return g.State(), err
	}
	g.Moves++
	if g.Towers.Solved(g.Disks) {
		g.Finished = true
	}
	return g.State(), nil
}

// Abort ends an unsolved session. Later moves fail with ErrGameFinished.
func (g *Game) Abort() error {
	if g.Finished || g.Aborted {
		return ErrGameFinished
	}
	g.Aborted = true
	return nil
}

// State reports a coarse string representation of the session.
func (g *Game) State() string {
	switch {
	case g.Finished:
		return StateSolved
	case g.Aborted:
		return StateAborted
	}
	return StatePlaying
}
