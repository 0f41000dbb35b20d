// internal/hanoi/types.go
//
// Core type definitions for the peg puzzle engine.
// Defines:
//   - Peg: one of the three fixed positions (A, B, C).
//   - Disk: a sized unit 1..N (smaller sits above larger).
//   - Towers: the three stacks, top of a stack is the end of its slice.
//   - Game: a play session wrapping Towers with bookkeeping.

package hanoi

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Peg identifies one of the three stacks. Order is fixed.
type Peg int

const (
	PegA Peg = iota
	PegB
	PegC
)

// NumPegs is the number of pegs on the board.
const NumPegs = 3

var pegLabels = [NumPegs]string{"A", "B", "C"}

// Pegs lists all pegs in board order.
var Pegs = [NumPegs]Peg{PegA, PegB, PegC}

// String returns the peg label, or "?" for an out-of-range value.
func (p Peg) String() string {
	if !p.valid() {
		return "?"
	}
	return pegLabels[p]
}

func (p Peg) valid() bool { return p >= PegA && p <= PegC }

// ParsePeg maps "A", "b", " C " etc. to a Peg.
func ParsePeg(s string) (Peg, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return PegA, nil
	case "B":
		return PegB, nil
	case "C":
		return PegC, nil
	}
	return 0, fmt.Errorf("%w: unknown peg %q", ErrIllegalMove, s)
}

// MarshalText encodes a peg as its label.
func (p Peg) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("%w: peg %d out of range", ErrIllegalMove, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a peg label.
func (p *Peg) UnmarshalText(b []byte) error {
	v, err := ParsePeg(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Disk is a disk size, 1 being the smallest.
type Disk int

// Towers is the full board: exactly three stacks.
type Towers struct {
	stacks [NumPegs][]Disk
}

// Step is a single (from, to) pair.
type Step struct {
	From Peg `json:"from"`
	To   Peg `json:"to"`
}

func (s Step) String() string { return s.From.String() + " " + s.To.String() }

// Game states reported by Game.State.
const (
	StatePlaying = "playing"
	StateSolved  = "solved"
	StateAborted = "aborted"
)

// Game holds the state of a single puzzle session.
type Game struct {
	ID        string    // Unique session identifier.
	Disks     int       // Number of disks chosen at creation.
	Towers    *Towers   // Current board.
	Moves     int       // Legal moves applied so far.
	StartedAt time.Time // Creation time.
	Finished  bool      // True once the board is solved.
	Aborted   bool      // True once the player gave up.
}

var (
	// ErrInvalidConfiguration is returned for a non-positive disk count.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrIllegalMove is returned when a move violates the stacking rule.
	ErrIllegalMove = errors.New("illegal move")
	// ErrGameFinished is returned for moves on a solved or aborted session.
	ErrGameFinished = errors.New("game finished")
)
