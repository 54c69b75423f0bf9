package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/vboard/internal/board"
	"github.com/tinytelemetry/vboard/internal/bridge"
	"github.com/tinytelemetry/vboard/internal/simconn"
)

const (
	BoardPageID = "board"
	HelpPageID  = "help"

	// DefaultButtonHold is how long a pressed button stays down. Terminals
	// report no key release, so the release is timed.
	DefaultButtonHold = 200 * time.Millisecond
)

// Controller is the bridge contract the board page drives.
type Controller interface {
	Snapshot() bridge.Snapshot
	Connect(ctx context.Context) bool
	Disconnect() error
	ToggleSwitch(id string) error
	PressButton(id string) error
	ReleaseButton(id string) error
	LoadFile(path string) error
}

// changeMsg carries one bridge change onto the UI loop.
type changeMsg struct{ change bridge.Change }

// releaseMsg ends a timed button press.
type releaseMsg struct{ id string }

// waitForChange blocks on the bridge subscription and hands the next change
// to Bubble Tea. It returns nil once the subscription is closed.
func waitForChange(ch <-chan bridge.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg{change: c}
	}
}

// input is one selectable pin: a switch or a button.
type input struct {
	ID   string
	Name string
	Role board.Role
}

// BoardOptions configures a BoardPage.
type BoardOptions struct {
	Ctx        context.Context
	Changes    <-chan bridge.Change
	ButtonHold time.Duration
	SimURL     string
	Keys       *KeyMap
}

// BoardPage shows the board and turns key presses into bridge operations.
type BoardPage struct {
	ctrl    Controller
	ctx     context.Context
	changes <-chan bridge.Change
	hold    time.Duration
	simURL  string
	keys    KeyMap
	help    help.Model

	snap     bridge.Snapshot
	inputs   []input
	cursor   int
	pressed  map[string]bool
	deck     ActivityDeck
	actErr   error
	hidden   error
	prompt   textinput.Model
	prompted bool
}

// NewBoardPage creates the main page over ctrl.
func NewBoardPage(ctrl Controller, opts BoardOptions) *BoardPage {
	ctx := opts.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	hold := opts.ButtonHold
	if hold <= 0 {
		hold = DefaultButtonHold
	}
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}

	prompt := textinput.New()
	prompt.Placeholder = "path/to/board.json (first of several paths is used)"
	prompt.Prompt = "load: "
	prompt.CharLimit = 1024

	p := &BoardPage{
		ctrl:    ctrl,
		ctx:     ctx,
		changes: opts.Changes,
		hold:    hold,
		simURL:  opts.SimURL,
		keys:    keys,
		help:    help.New(),
		pressed: make(map[string]bool),
		prompt:  prompt,
	}
	p.refresh()
	return p
}

func (p *BoardPage) ID() string { return BoardPageID }

func (p *BoardPage) Init() tea.Cmd {
	return waitForChange(p.changes)
}

func (p *BoardPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case changeMsg:
		p.refresh()
		return waitForChange(p.changes), nil

	case releaseMsg:
		delete(p.pressed, msg.id)
		if err := p.ctrl.ReleaseButton(msg.id); err != nil {
			p.actErr = err
		}
		p.refresh()
		return nil, nil

	case tea.KeyMsg:
		if p.prompted {
			return p.updatePrompt(msg), nil
		}
		return p.updateKeys(msg)
	}
	return nil, nil
}

func (p *BoardPage) updateKeys(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	switch {
	case key.Matches(msg, p.keys.Quit), key.Matches(msg, p.keys.ForceQuit):
		return tea.Quit, nil

	case key.Matches(msg, p.keys.Help):
		return nil, &PageNav{PageID: HelpPageID}

	case key.Matches(msg, p.keys.Next):
		p.moveCursor(1)

	case key.Matches(msg, p.keys.Prev):
		p.moveCursor(-1)

	case key.Matches(msg, p.keys.Activate):
		return p.activate(), nil

	case key.Matches(msg, p.keys.Connect):
		p.toggleConnection()

	case key.Matches(msg, p.keys.Load):
		p.prompted = true
		p.prompt.SetValue(p.snap.Path)
		p.prompt.CursorEnd()
		return p.prompt.Focus(), nil

	case key.Matches(msg, p.keys.Escape):
		p.actErr = nil
		p.hidden = p.snap.LastErr
	}
	return nil, nil
}

func (p *BoardPage) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, p.keys.ForceQuit):
		p.closePrompt()
		return tea.Quit
	case key.Matches(msg, p.keys.Escape):
		p.closePrompt()
		return nil
	case key.Matches(msg, p.keys.Submit):
		path := board.FirstPath(p.prompt.Value())
		p.closePrompt()
		if path == "" {
			return nil
		}
		p.actErr = p.ctrl.LoadFile(path)
		p.refresh()
		return nil
	}
	var cmd tea.Cmd
	p.prompt, cmd = p.prompt.Update(msg)
	return cmd
}

func (p *BoardPage) closePrompt() {
	p.prompted = false
	p.prompt.Blur()
	p.prompt.Reset()
}

func (p *BoardPage) moveCursor(delta int) {
	if len(p.inputs) == 0 {
		p.cursor = 0
		return
	}
	p.cursor = (p.cursor + delta + len(p.inputs)) % len(p.inputs)
}

// activate toggles the selected switch or presses the selected button and
// schedules its release.
func (p *BoardPage) activate() tea.Cmd {
	in, ok := p.selected()
	if !ok {
		return nil
	}
	switch in.Role {
	case board.RoleSwitch:
		p.actErr = p.ctrl.ToggleSwitch(in.ID)
		p.refresh()
		return nil
	case board.RoleButton:
		if p.pressed[in.ID] {
			return nil
		}
		if err := p.ctrl.PressButton(in.ID); err != nil {
			p.actErr = err
			return nil
		}
		p.pressed[in.ID] = true
		p.refresh()
		id := in.ID
		return tea.Tick(p.hold, func(time.Time) tea.Msg { return releaseMsg{id: id} })
	}
	return nil
}

func (p *BoardPage) toggleConnection() {
	if p.snap.State == simconn.Disconnected {
		p.actErr = nil
		p.ctrl.Connect(p.ctx)
	} else {
		p.actErr = p.ctrl.Disconnect()
	}
	p.refresh()
}

func (p *BoardPage) selected() (input, bool) {
	if p.cursor < 0 || p.cursor >= len(p.inputs) {
		return input{}, false
	}
	return p.inputs[p.cursor], true
}

// refresh pulls a fresh snapshot and rebuilds the input list, keeping the
// cursor on the same pin when it still exists.
func (p *BoardPage) refresh() {
	current, hadCurrent := p.selected()

	p.snap = p.ctrl.Snapshot()
	p.inputs = p.inputs[:0]
	if b := p.snap.Board; b != nil {
		for _, pin := range b.Switches {
			p.inputs = append(p.inputs, input{ID: pin.ID, Name: pin.Name, Role: board.RoleSwitch})
		}
		for _, pin := range b.Buttons {
			p.inputs = append(p.inputs, input{ID: pin.ID, Name: pin.Name, Role: board.RoleButton})
		}
	}
	p.deck.SetData(p.snap.Board, p.snap.Activity)

	if hadCurrent {
		for i, in := range p.inputs {
			if in.ID == current.ID {
				p.cursor = i
				return
			}
		}
	}
	if p.cursor >= len(p.inputs) {
		p.cursor = max(len(p.inputs)-1, 0)
	}
}

func (p *BoardPage) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return "Initializing board..."
	}
	if width < 40 || height < 12 {
		return "Terminal too small. Resize to at least 40x12."
	}

	title := p.renderTitle(width)
	status := p.renderStatusLine(width)

	var body string
	if p.snap.Board == nil {
		body = lipgloss.Place(width, height-3, lipgloss.Center, lipgloss.Center,
			labelStyle.Render("No board loaded. Press l to load a board document."))
	} else {
		body = p.renderBoard(width, height-3)
	}

	parts := []string{title, body}
	if p.prompted {
		parts = append(parts, p.prompt.View())
	}
	parts = append(parts, status)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (p *BoardPage) renderTitle(width int) string {
	name := "vboard"
	if p.snap.Board != nil {
		name = p.snap.Board.Name
	}
	text := name
	if p.snap.Path != "" {
		text += "  " + p.snap.Path
	}
	return titleStyle.Width(width).Render(text)
}

func (p *BoardPage) renderBoard(width, height int) string {
	b := p.snap.Board
	inner := width - 4

	rows := []string{
		renderDigits(p.snap.Segments),
		"",
		p.renderOutputs("LEDs", b.LEDs),
		p.renderInputs("Switches", board.RoleSwitch, b.Switches),
		p.renderInputs("Buttons", board.RoleButton, b.Buttons),
		p.renderOutputs("Other", b.OtherPins),
	}
	boardBox := activeSectionStyle.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))

	deckHeight := height - lipgloss.Height(boardBox)
	if p.prompted {
		deckHeight--
	}
	if deckHeight < 6 {
		return boardBox
	}
	return lipgloss.JoinVertical(lipgloss.Left, boardBox, p.deck.Render(width, deckHeight))
}

func (p *BoardPage) renderOutputs(label string, pins []board.Pin) string {
	cells := make([]string, 0, len(pins))
	for _, pin := range pins {
		dot := ledOffStyle.Render("○")
		if pin.Status {
			dot = ledOnStyle.Render("●")
		}
		cells = append(cells, dot+" "+pin.Name)
	}
	return labelStyle.Width(10).Render(label) + strings.Join(cells, "  ")
}

func (p *BoardPage) renderInputs(label string, role board.Role, pins []board.Pin) string {
	sel, _ := p.selected()
	cells := make([]string, 0, len(pins))
	for _, pin := range pins {
		var mark string
		switch {
		case role == board.RoleSwitch && pin.Status:
			mark = inputOnStyle.Render("[on ]")
		case role == board.RoleSwitch:
			mark = inputOffStyle.Render("[off]")
		case pin.Status:
			mark = inputOnStyle.Render("(●)")
		default:
			mark = inputOffStyle.Render("( )")
		}
		name := pin.Name
		if sel.ID == pin.ID && sel.Role == role {
			name = cursorStyle.Render(name)
		}
		cells = append(cells, mark+" "+name)
	}
	return labelStyle.Width(10).Render(label) + strings.Join(cells, "  ")
}

func (p *BoardPage) renderStatusLine(width int) string {
	state := p.snap.State
	left := stateStyle(state == simconn.Connected, state == simconn.Connecting).
		Render(fmt.Sprintf(" %s %s ", stateGlyph(state), state))
	if p.simURL != "" {
		left += statusStyle.Render(p.simURL + " ")
	}

	var right string
	if err := p.lastError(); err != nil {
		right = errorStyle.Render(" " + err.Error())
	} else {
		right = statusStyle.Render(" " + p.help.ShortHelpView(p.keys.ShortHelp()))
	}

	line := left + right
	if pad := width - lipgloss.Width(line); pad > 0 {
		line += statusStyle.Render(strings.Repeat(" ", pad))
	}
	return line
}

func (p *BoardPage) lastError() error {
	if p.actErr != nil {
		return p.actErr
	}
	if p.snap.LastErr == p.hidden {
		return nil
	}
	return p.snap.LastErr
}

func stateGlyph(s simconn.State) string {
	switch s {
	case simconn.Connected:
		return "●"
	case simconn.Connecting:
		return "◐"
	}
	return "○"
}
