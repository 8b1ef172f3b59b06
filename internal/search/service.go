// Package search implements the paged, filtered log search behind
// POST /logs/search.
package search

import (
	"context"
	"fmt"

	"github.com/capture-logs/capture-logs/internal/model"
	"github.com/capture-logs/capture-logs/internal/timestamp"
	"go.uber.org/zap"
)

// Service runs searches against an injected store. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	store  model.LogSearcher
	logger *zap.Logger
}

// NewService creates a search service over store.
func NewService(store model.LogSearcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger.Named("search")}
}

// Search counts the rows matching req, clamps the page against the
// resulting page count and fetches that page.
func (s *Service) Search(ctx context.Context, req Request) (model.SearchPage, error) {
	if req.fieldErr != nil {
		return model.SearchPage{}, req.fieldErr
	}
	col, err := model.ResolveField(req.Field)
	if err != nil {
		return model.SearchPage{}, err
	}
	if col != model.ColumnNone && req.keywordErr != nil {
		return model.SearchPage{}, req.keywordErr
	}
	filter := model.Filter{Column: col, Keyword: req.Keyword}
	size := EffectiveSize(req.Size)

	total, err := s.store.CountLogs(ctx, filter)
	if err != nil {
		return model.SearchPage{}, fmt.Errorf("counting logs: %w", err)
	}

	totalPages := TotalPages(total, size)
	page := EffectivePage(req.Page, totalPages)

	rows, err := s.store.FindLogs(ctx, filter, Offset(page, size), size)
	if err != nil {
		return model.SearchPage{}, fmt.Errorf("fetching page %d: %w", page, err)
	}

	s.logger.Debug("search",
		zap.String("column", string(col)),
		zap.Int("page", page),
		zap.Int("size", size),
		zap.Int64("total", total),
		zap.Int("rows", len(rows)),
	)

	return model.SearchPage{
		Data:       Entries(rows),
		Page:       page,
		Size:       size,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// Entries reshapes joined rows into wire entries with +09:00 timestamps.
// The result is never nil so it encodes as [].
func Entries(rows []model.LogRow) []model.LogEntry {
	out := make([]model.LogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.LogEntry{
			LogID:           r.LogID,
			Username:        r.Username,
			DeviceID:        r.DeviceID,
			PageURL:         r.PageURL,
			DetectedProgram: r.DetectedProgram,
			DetectedTime:    timestamp.ToKST(r.DetectedTime),
			BrowserName:     r.BrowserName,
			OSName:          r.OSName,
		})
	}
	return out
}
