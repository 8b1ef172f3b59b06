package view

import "strconv"

// ControlKind names a pagination control.
type ControlKind int

const (
	ControlFirst ControlKind = iota
	ControlPrev
	ControlPage
	ControlNext
	ControlLast
)

// Control is one pagination button and the page it leads to.
type Control struct {
	Kind    ControlKind
	Page    int
	Current bool
}

// Label is the text on the button.
func (c Control) Label() string {
	switch c.Kind {
	case ControlFirst:
		return "«"
	case ControlPrev:
		return "‹"
	case ControlNext:
		return "›"
	case ControlLast:
		return "»"
	}
	return strconv.Itoa(c.Page)
}

// Pagination lists the controls for current out of totalPages. First and
// prev appear only past page 1, next and last only before the last page.
func Pagination(current, totalPages int) []Control {
	if totalPages < 1 {
		totalPages = 1
	}
	controls := make([]Control, 0, totalPages+4)
	if current > 1 {
		controls = append(controls,
			Control{Kind: ControlFirst, Page: 1},
			Control{Kind: ControlPrev, Page: current - 1},
		)
	}
	for p := 1; p <= totalPages; p++ {
		controls = append(controls, Control{Kind: ControlPage, Page: p, Current: p == current})
	}
	if current < totalPages {
		controls = append(controls,
			Control{Kind: ControlNext, Page: current + 1},
			Control{Kind: ControlLast, Page: totalPages},
		)
	}
	return controls
}
