package view

// TooltipThresholdRows is the terminal row, counted from the top of the
// screen, below which badge tooltips open downward. It plays the part of
// the 201px viewport threshold in the browser table.
const TooltipThresholdRows = 5

var osIcons = map[string]string{
	"Windows": "windows",
	"macOS":   "mac",
	"Linux":   "linux",
}

var browserIcons = map[string]string{
	"Google Chrome":   "chrome",
	"Microsoft Edge":  "edge",
	"Mozilla Firefox": "firefox",
	"Safari":          "safari",
	"Opera":           "opera",
	"Naver Whale":     "whale",
	"Vivaldi":         "vivaldi",
}

// OSIcon returns the icon key for an OS name, or "" for an unknown name.
func OSIcon(name string) string { return osIcons[name] }

// BrowserIcon returns the icon key for a browser name, or "".
func BrowserIcon(name string) string { return browserIcons[name] }

// TooltipDirection is "bottom" when spaceAbove is under threshold, else "top".
func TooltipDirection(spaceAbove, threshold int) string {
	if spaceAbove < threshold {
		return "bottom"
	}
	return "top"
}

// deref returns *p, or "" for nil.
func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Badge is the label and icon shown for an OS or browser cell.
type Badge struct {
	Label string
	Icon  string
}

// OSBadge and BrowserBadge build the badges for a nullable name.
func OSBadge(name *string) Badge {
	n := deref(name)
	return Badge{Label: n, Icon: OSIcon(n)}
}

func BrowserBadge(name *string) Badge {
	n := deref(name)
	return Badge{Label: n, Icon: BrowserIcon(n)}
}
