package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/robalobadob/labs/internal/hanoi"
)

const (
	cellWidth = 5
	emptyCell = "  |  "
	pegFooter = "  A     B     C"
)

// DrawTowers prints the board top level first, one column per peg.
func DrawTowers(w io.Writer, t *hanoi.Towers) {
	fmt.Fprintln(w)
	stacks := [hanoi.NumPegs][]hanoi.Disk{}
	for i, p := range hanoi.Pegs {
		stacks[i] = t.Peg(p)
	}
	for level := t.Height(); level >= 1; level-- {
		row := make([]string, 0, hanoi.NumPegs)
		for _, s := range stacks {
			if len(s) >= level {
				row = append(row, center(strconv.Itoa(int(s[level-1])), cellWidth))
			} else {
				row = append(row, emptyCell)
			}
		}
		fmt.Fprintln(w, strings.Join(row, " "))
	}
	fmt.Fprintln(w, pegFooter)
	fmt.Fprintln(w)
}

// center pads s to width, leaning left when the padding is odd.
func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
