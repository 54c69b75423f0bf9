package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Segment indexes follow board.SegmentNames: a b c d e f g p.
const (
	segA = iota
	segB
	segC
	segD
	segE
	segF
	segG
	segP
)

// digitLines draws one digit three rows high. Dark segments are blank.
//
//	 _      a
//	|_|    f g b
//	|_|.   e d c p
func digitLines(s [8]bool) [3]string {
	pick := func(on bool, r string) string {
		if on {
			return r
		}
		return " "
	}
	return [3]string{
		" " + pick(s[segA], "_") + "  ",
		pick(s[segF], "|") + pick(s[segG], "_") + pick(s[segB], "|") + " ",
		pick(s[segE], "|") + pick(s[segD], "_") + pick(s[segC], "|") + pick(s[segP], "."),
	}
}

// renderDigits lays out the digits left to right, HEX0 first, each labelled
// underneath.
func renderDigits(digits [][8]bool) string {
	if len(digits) == 0 {
		return labelStyle.Render("no seven-segment digits")
	}
	blocks := make([]string, 0, len(digits))
	for i, segs := range digits {
		lines := digitLines(segs)
		block := lipgloss.JoinVertical(lipgloss.Center,
			segmentStyle.Render(strings.Join(lines[:], "\n")),
			labelStyle.Render(hexLabel(i)),
		)
		blocks = append(blocks, lipgloss.NewStyle().PaddingRight(2).Render(block))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

func hexLabel(i int) string {
	return fmt.Sprintf("HEX%d", i)
}
