package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/vboard/internal/board"
)

// activityEntry is one pin's transition count since the board was loaded.
type activityEntry struct {
	ID    string
	Role  board.Role
	Count int
}

// ActivityDeck charts how often each pin changed, in board order.
type ActivityDeck struct {
	entries []activityEntry
}

// SetData rebuilds the deck from a board and its activity counts.
func (d *ActivityDeck) SetData(b *board.Board, counts map[string]int) {
	d.entries = d.entries[:0]
	if b == nil {
		return
	}
	for _, role := range board.Roles {
		for _, p := range b.Pins(role) {
			d.entries = append(d.entries, activityEntry{ID: p.ID, Role: role, Count: counts[p.ID]})
		}
	}
}

// Total returns the number of transitions across all pins.
func (d *ActivityDeck) Total() int {
	total := 0
	for _, e := range d.entries {
		total += e.Count
	}
	return total
}

// busiest returns up to n entries with the highest counts.
func (d *ActivityDeck) busiest(n int) []activityEntry {
	sorted := make([]activityEntry, 0, len(d.entries))
	for _, e := range d.entries {
		if e.Count > 0 {
			sorted = append(sorted, e)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

var roleBarStyles = map[board.Role]lipgloss.Style{
	board.RoleLED:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Background(lipgloss.Color("196")),
	board.RoleSwitch: lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Background(lipgloss.Color("46")),
	board.RoleButton: lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Background(lipgloss.Color("220")),
	board.RoleOther:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Background(lipgloss.Color("39")),
}

// Render draws the deck into a bordered box of the given outer size.
func (d *ActivityDeck) Render(width, height int) string {
	style := sectionStyle.Width(width - 2).Height(height - 2)

	header := fmt.Sprintf("Activity  (%d transitions)", d.Total())
	if len(d.entries) == 0 {
		return style.Render(header + "\n" + labelStyle.Render("load a board to see pin activity"))
	}

	chartWidth := max(width-6, 10)
	chartHeight := max(height-5, 2)

	bc := barchart.New(chartWidth, chartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)
	maxBars := chartWidth / 2
	for i, e := range d.entries {
		if i >= maxBars {
			break
		}
		bc.Push(barchart.BarData{
			Label: e.ID,
			Values: []barchart.BarValue{
				{Name: e.ID, Value: float64(e.Count), Style: roleBarStyles[e.Role]},
			},
		})
	}
	bc.Draw()

	var legend []string
	for _, e := range d.busiest(3) {
		legend = append(legend, fmt.Sprintf("%s:%d", e.ID, e.Count))
	}
	legendLine := labelStyle.Render("busiest " + strings.Join(legend, "  "))
	if len(legend) == 0 {
		legendLine = labelStyle.Render("no transitions yet")
	}

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, header, bc.View(), legendLine))
}
