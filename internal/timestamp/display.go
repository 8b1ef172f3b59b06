package timestamp

import (
	"fmt"
	"regexp"
)

// isoPattern matches "YYYY-MM-DDTHH:MM:SS" with optional fractional seconds
// and an optional Z or numeric offset.
var isoPattern = regexp.MustCompile(
	`^(\d{4})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})(?:\.\d+)?(?:Z|[+-]\d{2}(?::?\d{2})?)?$`,
)

// FormatDisplay renders an ISO timestamp as "YYYY. MM. DD. HH:MM:SS",
// dropping fractional seconds and the offset. The wall-clock fields are
// taken literally. Anything else is returned unchanged.
func FormatDisplay(s string) string {
	m := isoPattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return fmt.Sprintf("%s. %s. %s. %s:%s:%s", m[1], m[2], m[3], m[4], m[5], m[6])
}
