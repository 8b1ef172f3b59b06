// Package view holds the log table's client state. Every control goes
// through State.Apply, which commits the next View and returns the request
// to send for it.
package view

import (
	"strings"

	"github.com/capture-logs/capture-logs/internal/model"
)

// View is the query currently shown by the table.
type View struct {
	Field   model.SearchField
	Keyword string
	Page    int
	Size    int
}

// DefaultView is the view issued on first load.
func DefaultView() View {
	return View{
		Field: model.DefaultField,
		Page:  model.DefaultPage,
		Size:  model.DefaultPageSize,
	}
}

// Request is the body of POST /logs/search as sent by the client. Field is
// lowercased; the server normalizes it either way.
type Request struct {
	Field   string `json:"field,omitempty"`
	Keyword string `json:"keyword,omitempty"`
	Page    int    `json:"page"`
	Size    int    `json:"size"`

	// Seq orders requests issued by one State. It is not sent.
	Seq uint64 `json:"-"`
}

// Options tune State behaviour.
type Options struct {
	// DropFilterOnResize sends a page size change without field and
	// keyword, as the first web client did.
	DropFilterOnResize bool
	// VisibleRows is the number of rows the table shows before it needs a
	// scrollbar. Zero disables the check.
	VisibleRows int
}

// State is the table's client state.
type State struct {
	View  View
	Rows  []model.LogEntry
	Total int64
	// TotalPages comes from the last response and is at least 1.
	TotalPages int

	// Input is the keyword text box. It is copied into View on Search.
	Input string

	FieldMenuOpen bool
	SizeMenuOpen  bool
	ScrollVisible bool

	opts     Options
	issued   uint64
	received uint64
}

// New returns a State at DefaultView.
func New(opts Options) *State {
	return &State{
		View:       DefaultView(),
		TotalPages: 1,
		opts:       opts,
	}
}

// Apply commits next and returns the request that fetches it.
func (s *State) Apply(next View) Request {
	if next.Page < 1 {
		next.Page = model.DefaultPage
	}
	if next.Size < model.MinPageSize {
		next.Size = model.DefaultPageSize
	}
	s.View = next
	s.issued++
	return Request{
		Field:   strings.ToLower(string(next.Field)),
		Keyword: next.Keyword,
		Page:    next.Page,
		Size:    next.Size,
		Seq:     s.issued,
	}
}

// Init fetches the default view.
func (s *State) Init() Request {
	s.Input = ""
	return s.Apply(DefaultView())
}

// Search runs the typed keyword from page 1.
func (s *State) Search() Request {
	next := s.View
	next.Keyword = s.Input
	next.Page = 1
	return s.Apply(next)
}

// Refresh clears the keyword and reloads page 1.
func (s *State) Refresh() Request {
	s.Input = ""
	next := s.View
	next.Keyword = ""
	next.Page = 1
	return s.Apply(next)
}

// SetField selects the search field and closes the field menu. It does not
// fetch; the next Search picks it up.
func (s *State) SetField(f model.SearchField) {
	s.View.Field = f
	s.FieldMenuOpen = false
}

// SetPageSize reloads page 1 at size n.
func (s *State) SetPageSize(n int) Request {
	s.SizeMenuOpen = false
	next := s.View
	next.Size = n
	next.Page = 1
	req := s.Apply(next)
	if s.opts.DropFilterOnResize {
		req.Field = ""
		req.Keyword = ""
	}
	return req
}

// GoToPage loads page n, clamped to the known page range.
func (s *State) GoToPage(n int) Request {
	if n > s.TotalPages {
		n = s.TotalPages
	}
	if n < 1 {
		n = 1
	}
	next := s.View
	next.Page = n
	return s.Apply(next)
}

func (s *State) First() Request { return s.GoToPage(1) }
func (s *State) Prev() Request  { return s.GoToPage(s.View.Page - 1) }
func (s *State) Next() Request  { return s.GoToPage(s.View.Page + 1) }
func (s *State) Last() Request  { return s.GoToPage(s.TotalPages) }

// HasPrev and HasNext report whether Prev and Next would move.
func (s *State) HasPrev() bool { return s.View.Page > 1 }
func (s *State) HasNext() bool { return s.View.Page < s.TotalPages }

// ToggleFieldMenu and ToggleSizeMenu flip the dropdowns independently.
func (s *State) ToggleFieldMenu() { s.FieldMenuOpen = !s.FieldMenuOpen }
func (s *State) ToggleSizeMenu()  { s.SizeMenuOpen = !s.SizeMenuOpen }

// Receive applies the response to req. Responses older than the last one
// applied are dropped and Receive reports false.
func (s *State) Receive(req Request, page model.SearchPage) bool {
	if req.Seq != 0 && req.Seq < s.received {
		return false
	}
	s.received = req.Seq
	s.Rows = page.Data
	s.Total = page.TotalCount
	s.TotalPages = page.TotalPages
	if s.TotalPages < 1 {
		s.TotalPages = 1
	}
	if page.Page >= 1 {
		s.View.Page = page.Page
	}
	if page.Size >= 1 {
		s.View.Size = page.Size
	}
	s.ScrollVisible = NeedsScroll(len(s.Rows), s.opts.VisibleRows)
	return true
}

// SetVisibleRows updates the table height and recomputes ScrollVisible.
func (s *State) SetVisibleRows(n int) {
	s.opts.VisibleRows = n
	s.ScrollVisible = NeedsScroll(len(s.Rows), n)
}

// RowNumber is the 1-based index of row i on page, continuous across pages.
func RowNumber(page, size, i int) int {
	return (page-1)*size + i + 1
}

// NeedsScroll reports whether rows overflow a table showing visible rows.
func NeedsScroll(rows, visible int) bool {
	return visible > 0 && rows > visible
}

// PageSizes are the sizes offered by the size menu.
func PageSizes() []int {
	return append([]int(nil), model.PageSizes...)
}
