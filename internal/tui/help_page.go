package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpPage displays the key reference and a short description of the board.
type HelpPage struct {
	keys     KeyMap
	help     help.Model
	viewport viewport.Model
}

// NewHelpPage creates the help page.
func NewHelpPage() *HelpPage {
	h := help.New()
	h.ShowAll = true
	return &HelpPage{
		keys:     DefaultKeyMap(),
		help:     h,
		viewport: viewport.New(80, 20),
	}
}

func (h *HelpPage) ID() string { return HelpPageID }

func (h *HelpPage) Init() tea.Cmd { return nil }

func (h *HelpPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, nil
	}
	switch {
	case key.Matches(km, h.keys.Help), key.Matches(km, h.keys.Escape), key.Matches(km, h.keys.Quit):
		return nil, &PageNav{PageID: BoardPageID}
	case key.Matches(km, h.keys.ForceQuit):
		return tea.Quit, nil
	}
	var cmd tea.Cmd
	h.viewport, cmd = h.viewport.Update(msg)
	return cmd, nil
}

func (h *HelpPage) View(width, height int) string {
	modalWidth := max(width-8, 20)
	modalHeight := max(height-4, 6)
	contentWidth := modalWidth - 4
	contentHeight := modalHeight - 4

	h.viewport.Width = contentWidth
	h.viewport.Height = contentHeight
	h.help.Width = contentWidth
	h.viewport.SetContent(h.content(contentWidth))

	header := lipgloss.NewStyle().
		Width(contentWidth).
		Foreground(ColorBlue).
		Bold(true).
		Render("Virtual Board Help")

	footer := lipgloss.NewStyle().
		Foreground(ColorGray).
		Render("up/down: Scroll | ?/esc: Back | ctrl+c: Quit")

	modal := lipgloss.JoinVertical(lipgloss.Left, header, h.viewport.View(), footer)
	framed := lipgloss.NewStyle().
		Width(modalWidth).
		Height(modalHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlue).
		Render(modal)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, framed)
}

func (h *HelpPage) content(width int) string {
	const about = `The board mirrors a hardware simulation over a websocket.

LEDs and other pins are driven by the simulation. Switches and
buttons are driven from here: a switch flips on every press, a
button is held briefly and then released.

Press c to connect. On connect every switch position is sent so the
simulation starts from what you see. Press l to load a board
document (.json, .yaml or .yml); if several paths are given only the
first is used. A document that fails to load leaves the current
board in place.

The activity chart counts pin transitions since the board was
loaded.`

	return lipgloss.JoinVertical(lipgloss.Left,
		h.help.View(h.keys),
		"",
		lipgloss.NewStyle().Width(width).Render(about),
	)
}
