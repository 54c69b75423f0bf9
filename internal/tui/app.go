package tui

import tea "github.com/charmbracelet/bubbletea"

// Page is a top-level screen of the board client.
type Page interface {
	ID() string
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Cmd, *PageNav)
	View(width, height int) string
}

// PageNav is returned from Update to request a page switch.
type PageNav struct {
	PageID string
}

// App is the top-level Bubble Tea model that routes between pages. Every
// page sees every message so background bridge events are never lost while
// another page is showing.
type App struct {
	pages      map[string]Page
	order      []string
	activePage string
	width      int
	height     int
}

// NewApp creates a new App with the given pages. The first page is the default.
func NewApp(pages ...Page) *App {
	a := &App{pages: make(map[string]Page, len(pages))}
	for _, p := range pages {
		a.pages[p.ID()] = p
		a.order = append(a.order, p.ID())
	}
	if len(a.order) > 0 {
		a.activePage = a.order[0]
	}
	return a
}

// ActivePage returns the id of the page being shown.
func (a *App) ActivePage() string { return a.activePage }

func (a *App) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(a.order))
	for _, id := range a.order {
		cmds = append(cmds, a.pages[id].Init())
	}
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
	}

	// Key input belongs to the visible page only.
	if _, isKey := msg.(tea.KeyMsg); isKey {
		p, ok := a.pages[a.activePage]
		if !ok {
			return a, nil
		}
		cmd, nav := p.Update(msg)
		return a, a.navigate(cmd, nav)
	}

	var cmds []tea.Cmd
	for _, id := range a.order {
		cmd, nav := a.pages[id].Update(msg)
		if id == a.activePage {
			cmd = a.navigate(cmd, nav)
		}
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a *App) navigate(cmd tea.Cmd, nav *PageNav) tea.Cmd {
	if nav == nil {
		return cmd
	}
	if _, exists := a.pages[nav.PageID]; !exists {
		return cmd
	}
	a.activePage = nav.PageID
	return cmd
}

func (a *App) View() string {
	if p, ok := a.pages[a.activePage]; ok {
		return p.View(a.width, a.height)
	}
	return "No active page"
}
