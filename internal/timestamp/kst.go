// Package timestamp converts detection times between their stored form, the
// +09:00 wire form, and the table display form.
package timestamp

import "time"

// KSTOffset is the fixed shift applied to stored detection times.
const KSTOffset = 9 * time.Hour

// kstLayout renders the shifted instant with millisecond precision and a
// literal offset suffix.
const kstLayout = "2006-01-02T15:04:05.000"

// ToKST shifts t by KSTOffset and renders it as an ISO-8601 string ending in
// "+09:00". It is an additive shift of the stored instant read as UTC, not a
// zone conversion: a stored 00:00Z becomes "09:00:00.000+09:00".
func ToKST(t time.Time) string {
	return t.UTC().Add(KSTOffset).Format(kstLayout) + "+09:00"
}
