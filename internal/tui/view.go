package tui

import (
	"fmt"
	"strings"

	"github.com/capture-logs/capture-logs/internal/model"
	"github.com/capture-logs/capture-logs/internal/timestamp"
	"github.com/capture-logs/capture-logs/internal/view"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// linesAboveTable counts the title, controls, header and rule lines. An open
// dropdown adds menuHeight lines.
const linesAboveTable = 4

type column struct {
	title string
	width int
	flex  bool
}

var columns = []column{
	{title: "No.", width: 5},
	{title: "Username", width: 14},
	{title: "MAC Address", width: 17},
	{title: "Detected Program", width: 18},
	{title: "Detected Page URL", width: 24, flex: true},
	{title: "OS", width: 8},
	{title: "Browser", width: 9},
	{title: "Detected Time", width: 22},
}

// View renders the log table
func (m *LogTable) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Loading logs..."
	}

	widths := m.columnWidths()
	var b strings.Builder

	b.WriteString(m.renderTitle())
	b.WriteByte('\n')
	b.WriteString(m.renderControls())
	b.WriteByte('\n')
	if menu := m.renderMenu(); menu != "" {
		b.WriteString(menu)
		b.WriteByte('\n')
	}
	b.WriteString(renderRow(headerStyle, widths, headerCells()))
	b.WriteByte('\n')
	b.WriteString(ruleStyle.Render(strings.Repeat("─", sum(widths)+len(widths)-1)))
	b.WriteByte('\n')
	b.WriteString(m.renderRows(widths))
	b.WriteString(m.renderPagination())
	b.WriteByte('\n')
	b.WriteString(m.renderStatus())
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *LogTable) renderTitle() string {
	return titleStyle.Render("Capture Logs")
}

func (m *LogTable) renderControls() string {
	field := accentStyle.Render(fmt.Sprintf("[%s ▾]", m.state.View.Field))
	size := accentStyle.Render(fmt.Sprintf("[%d ▾]", m.state.View.Size))
	parts := []string{"Field: " + field, m.keyword.View(), "Size: " + size}
	if m.loading {
		parts = append(parts, dimStyle.Render("loading..."))
	}
	return strings.Join(parts, "  ")
}

func (m *LogTable) renderMenu() string {
	var options []string
	switch m.openMenu() {
	case menuField:
		for _, f := range model.SearchFields {
			options = append(options, string(f))
		}
	case menuSize:
		for _, n := range view.PageSizes() {
			options = append(options, fmt.Sprintf("%d", n))
		}
	default:
		return ""
	}
	lines := make([]string, len(options))
	for i, o := range options {
		if i == m.menuCursor {
			lines[i] = selectedStyle.Render("> " + o)
		} else {
			lines[i] = "  " + o
		}
	}
	return dropdownStyle.Render(strings.Join(lines, "\n"))
}

// menuHeight is the number of lines the open dropdown pushes the table down.
func (m *LogTable) menuHeight() int {
	menu := m.renderMenu()
	if menu == "" {
		return 0
	}
	return lipgloss.Height(menu)
}

func (m *LogTable) renderRows(widths []int) string {
	rows := m.state.Rows
	if len(rows) == 0 {
		return dimStyle.Render("No logs.") + "\n"
	}

	visible := m.visibleRows()
	end := min(len(rows), m.offset+visible)
	tip, tipDir := m.tooltip()

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		if i == m.cursor && tipDir == "top" {
			b.WriteString(tip + "\n")
		}
		style := cellStyle
		if i == m.cursor {
			style = selectedStyle
		}
		b.WriteString(renderRow(style, widths, m.rowCells(i)))
		if m.state.ScrollVisible && i == end-1 && end < len(rows) {
			b.WriteString(dimStyle.Render(" ↓"))
		}
		b.WriteByte('\n')
		if i == m.cursor && tipDir == "bottom" {
			b.WriteString(tip + "\n")
		}
	}
	return b.String()
}

// tooltip renders the OS and browser names of the selected row and the side
// of the row it opens on.
func (m *LogTable) tooltip() (string, string) {
	if m.cursor < 0 || m.cursor >= len(m.state.Rows) {
		return "", ""
	}
	e := m.state.Rows[m.cursor]
	osBadge, browserBadge := view.OSBadge(e.OSName), view.BrowserBadge(e.BrowserName)
	text := fmt.Sprintf("OS: %s  Browser: %s", orDash(osBadge.Label), orDash(browserBadge.Label))
	spaceAbove := linesAboveTable + m.menuHeight() + (m.cursor - m.offset)
	return tooltipStyle.Render(text), view.TooltipDirection(spaceAbove, view.TooltipThresholdRows)
}

func (m *LogTable) rowCells(i int) []string {
	e := m.state.Rows[i]
	v := m.state.View
	return []string{
		fmt.Sprintf("%d", view.RowNumber(v.Page, v.Size, i)),
		e.Username,
		e.DeviceID,
		deref(e.DetectedProgram),
		deref(e.PageURL),
		view.OSBadge(e.OSName).Icon,
		view.BrowserBadge(e.BrowserName).Icon,
		timestamp.FormatDisplay(e.DetectedTime),
	}
}

func (m *LogTable) renderPagination() string {
	var parts []string
	for _, c := range view.Pagination(m.state.View.Page, m.state.TotalPages) {
		label := c.Label()
		if c.Current {
			label = accentStyle.Render("[" + label + "]")
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}

func (m *LogTable) renderStatus() string {
	return fmt.Sprintf("(Total %d Logs)", m.state.Total)
}

// columnWidths gives the flexible column whatever the fixed ones leave.
func (m *LogTable) columnWidths() []int {
	widths := make([]int, len(columns))
	fixed := len(columns) - 1
	flexIdx := -1
	for i, c := range columns {
		widths[i] = c.width
		if c.flex {
			flexIdx = i
			continue
		}
		fixed += c.width
	}
	if flexIdx >= 0 && m.width-fixed > columns[flexIdx].width {
		widths[flexIdx] = m.width - fixed
	}
	return widths
}

func headerCells() []string {
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = c.title
	}
	return cells
}

func renderRow(style lipgloss.Style, widths []int, cells []string) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = fit(c, widths[i])
	}
	return style.Render(strings.Join(out, " "))
}

// fit truncates or pads s to exactly w cells.
func fit(s string, w int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) > w {
		s = runewidth.Truncate(s, w, "…")
	}
	return runewidth.FillRight(s, w)
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
