package search

import (
	"math"

	"github.com/capture-logs/capture-logs/internal/model"
)

// EffectiveSize returns the page size actually used: DefaultPageSize when
// size is missing, zero or non-numeric, otherwise truncated and clamped
// into [MinPageSize, MaxPageSize].
func EffectiveSize(size LooseNumber) int {
	return clampInt(size.or(model.DefaultPageSize), model.MinPageSize, model.MaxPageSize)
}

// EffectivePage returns the page actually served, clamped into
// [1, totalPages]. Missing, zero or non-numeric pages mean page 1.
func EffectivePage(page LooseNumber, totalPages int) int {
	return clampInt(page.or(model.DefaultPage), 1, totalPages)
}

// TotalPages is max(1, ceil(totalCount/size)).
func TotalPages(totalCount int64, size int) int {
	if size <= 0 || totalCount <= 0 {
		return 1
	}
	pages := (totalCount + int64(size) - 1) / int64(size)
	if pages > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(pages)
}

// Offset is the number of rows skipped before page.
func Offset(page, size int) int {
	return (page - 1) * size
}

// clampInt truncates v toward zero and clamps it into [lo, hi]. Clamping
// happens before the conversion so huge inputs cannot overflow.
func clampInt(v float64, lo, hi int) int {
	v = math.Trunc(v)
	if v < float64(lo) {
		return lo
	}
	if v > float64(hi) {
		return hi
	}
	return int(v)
}
