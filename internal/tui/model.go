package tui

import (
	"context"
	"time"

	"github.com/capture-logs/capture-logs/internal/model"
	"github.com/capture-logs/capture-logs/internal/view"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Searcher fetches one page of logs.
type Searcher interface {
	Search(ctx context.Context, req view.Request) (model.SearchPage, error)
}

// Config configures a LogTable.
type Config struct {
	Searcher Searcher
	Logger   *zap.Logger
	Options  view.Options
	// PageSize overrides the initial page size when it is one of view.PageSizes.
	PageSize int
	// FetchTimeout bounds one search call. Zero means no limit.
	FetchTimeout time.Duration
}

// searchResultMsg carries the answer to one issued request.
type searchResultMsg struct {
	req  view.Request
	page model.SearchPage
	err  error
}

// menu identifies an open dropdown.
type menu int

const (
	menuNone menu = iota
	menuField
	menuSize
)

// LogTable is the Bubble Tea model for the paginated log table.
type LogTable struct {
	state    *view.State
	searcher Searcher
	logger   *zap.Logger
	timeout  time.Duration

	keys    KeyMap
	help    help.Model
	keyword textinput.Model

	// cursor is the selected row on the current page; offset is the first
	// row shown when the page overflows the screen.
	cursor int
	offset int

	menuCursor int

	loading  bool
	initSize int

	width  int
	height int
}

// NewLogTable creates the model. Nothing is fetched until Init.
func NewLogTable(cfg Config) *LogTable {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "keyword"
	ti.Prompt = "Search: "
	ti.CharLimit = 256
	ti.Width = 32

	initSize := 0
	for _, n := range view.PageSizes() {
		if n == cfg.PageSize {
			initSize = n
		}
	}

	return &LogTable{
		state:    view.New(cfg.Options),
		searcher: cfg.Searcher,
		logger:   logger.Named("tui"),
		timeout:  cfg.FetchTimeout,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		keyword:  ti,
		initSize: initSize,
	}
}

// State exposes the view state, mainly for tests.
func (m *LogTable) State() *view.State { return m.state }

func (m *LogTable) Init() tea.Cmd {
	req := m.state.Init()
	if m.initSize != 0 && m.initSize != req.Size {
		next := m.state.View
		next.Size = m.initSize
		req = m.state.Apply(next)
	}
	return m.fetch(req)
}

// fetch runs req off the update loop.
func (m *LogTable) fetch(req view.Request) tea.Cmd {
	m.loading = true
	searcher, timeout, logger := m.searcher, m.timeout, m.logger
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		start := time.Now()
		page, err := searcher.Search(ctx, req)
		logger.Debug("search",
			zap.String("field", req.Field),
			zap.Int("page", req.Page),
			zap.Int("size", req.Size),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return searchResultMsg{req: req, page: page, err: err}
	}
}

// visibleRows is the number of table rows that fit on screen.
func (m *LogTable) visibleRows() int {
	// title, controls, header, rule, tooltip, pagination, status, help
	const chrome = 8
	rows := m.height - chrome - m.menuHeight()
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *LogTable) clampCursor() {
	n := len(m.state.Rows)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset > n-visible {
		m.offset = max(0, n-visible)
	}
}
