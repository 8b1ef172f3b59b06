package tui

import (
	"strconv"

	"github.com/capture-logs/capture-logs/internal/model"
	"github.com/capture-logs/capture-logs/internal/view"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Update handles messages
func (m *LogTable) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.relayout()
		return m, nil

	case searchResultMsg:
		m.loading = false
		if msg.err != nil {
			// Logged only; the table keeps showing the previous page.
			m.logger.Warn("search failed",
				zap.Int("page", msg.req.Page),
				zap.Int("size", msg.req.Size),
				zap.Error(msg.err),
			)
			return m, nil
		}
		if m.state.Receive(msg.req, msg.page) {
			m.cursor, m.offset = 0, 0
			m.clampCursor()
		}
		return m, nil

	case tea.KeyMsg:
		next, cmd := m.handleKey(msg)
		// Dropdowns take table rows while open.
		m.relayout()
		return next, cmd
	}
	return m, nil
}

func (m *LogTable) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}
	if m.keyword.Focused() {
		return m.handleKeywordKey(msg)
	}
	if m.openMenu() != menuNone {
		return m.handleMenuKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Keyword):
		return m, m.keyword.Focus()
	case key.Matches(msg, m.keys.Enter):
		return m, m.search()
	case key.Matches(msg, m.keys.Field):
		m.state.ToggleFieldMenu()
		m.menuCursor = indexOfField(m.state.View.Field)
	case key.Matches(msg, m.keys.Size):
		m.state.ToggleSizeMenu()
		m.menuCursor = indexOfSize(m.state.View.Size)
	case key.Matches(msg, m.keys.Refresh):
		m.keyword.SetValue("")
		return m, m.fetch(m.state.Refresh())
	case key.Matches(msg, m.keys.Up):
		m.cursor--
		m.clampCursor()
	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampCursor()
	case key.Matches(msg, m.keys.Prev):
		if m.state.HasPrev() {
			return m, m.fetch(m.state.Prev())
		}
	case key.Matches(msg, m.keys.Next):
		if m.state.HasNext() {
			return m, m.fetch(m.state.Next())
		}
	case key.Matches(msg, m.keys.First):
		if m.state.HasPrev() {
			return m, m.fetch(m.state.First())
		}
	case key.Matches(msg, m.keys.Last):
		if m.state.HasNext() {
			return m, m.fetch(m.state.Last())
		}
	default:
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= m.state.TotalPages {
			return m, m.fetch(m.state.GoToPage(n))
		}
	}
	return m, nil
}

func (m *LogTable) relayout() {
	m.state.SetVisibleRows(m.visibleRows())
	m.clampCursor()
}

func (m *LogTable) handleKeywordKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		m.keyword.Blur()
		return m, m.search()
	case key.Matches(msg, m.keys.Escape):
		m.keyword.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.keyword, cmd = m.keyword.Update(msg)
	m.state.Input = m.keyword.Value()
	return m, cmd
}

func (m *LogTable) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	which := m.openMenu()
	n := len(model.SearchFields)
	if which == menuSize {
		n = len(view.PageSizes())
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closeMenus()
	case key.Matches(msg, m.keys.Field) && which == menuField,
		key.Matches(msg, m.keys.Size) && which == menuSize:
		m.closeMenus()
	case key.Matches(msg, m.keys.Up):
		m.menuCursor = (m.menuCursor - 1 + n) % n
	case key.Matches(msg, m.keys.Down):
		m.menuCursor = (m.menuCursor + 1) % n
	case key.Matches(msg, m.keys.Enter):
		if which == menuField {
			m.state.SetField(model.SearchFields[m.menuCursor])
			return m, nil
		}
		return m, m.fetch(m.state.SetPageSize(view.PageSizes()[m.menuCursor]))
	}
	return m, nil
}

func (m *LogTable) search() tea.Cmd {
	m.state.Input = m.keyword.Value()
	return m.fetch(m.state.Search())
}

// openMenu returns the dropdown receiving keys. The field menu wins when
// both are open.
func (m *LogTable) openMenu() menu {
	switch {
	case m.state.FieldMenuOpen:
		return menuField
	case m.state.SizeMenuOpen:
		return menuSize
	}
	return menuNone
}

func (m *LogTable) closeMenus() {
	m.state.FieldMenuOpen = false
	m.state.SizeMenuOpen = false
}

func indexOfField(f model.SearchField) int {
	for i, sf := range model.SearchFields {
		if sf == f {
			return i
		}
	}
	return 0
}

func indexOfSize(size int) int {
	for i, n := range view.PageSizes() {
		if n == size {
			return i
		}
	}
	return 0
}
