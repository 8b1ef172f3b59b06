package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/capture-logs/capture-logs/internal/model"
)

const selectLogRows = `
	SELECT l.log_id, l.username, l.device_id, l.detected_program, l.page_url,
		l.detected_time, o.os_name AS os_name, b.browser_name AS browser_name
	FROM logs l
	LEFT JOIN os o ON o.os_id = l.os_id
	LEFT JOIN browser b ON b.browser_id = l.browser_id`

// likeEscaper escapes LIKE metacharacters so the keyword matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive "contains" LIKE argument.
func containsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(keyword)) + "%"
}

// whereClause renders the filter. The column name is interpolated only after
// it has been checked against the allow-list.
func whereClause(f model.Filter) (string, []interface{}, error) {
	if !f.Column.Valid() {
		return "", nil, fmt.Errorf("%w: column %q", model.ErrUnknownField, f.Column)
	}
	if f.Column == model.ColumnNone {
		return "", nil, nil
	}
	clause := fmt.Sprintf(` WHERE lower(COALESCE(l.%s, '')) LIKE ? ESCAPE '\'`, f.Column)
	return clause, []interface{}{containsPattern(f.Keyword)}, nil
}

// CountLogs returns the number of rows matching f.
func (s *Store) CountLogs(ctx context.Context, f model.Filter) (int64, error) {
	where, args, err := whereClause(f)
	if err != nil {
		return 0, err
	}

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var count int64
	query := s.db.Rebind("SELECT COUNT(*) FROM logs l" + where)
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count logs: %w", err)
	}
	return count, nil
}

// FindLogs returns one page of rows matching f, newest detection first.
// log_id breaks ties so consecutive pages never overlap.
func (s *Store) FindLogs(ctx context.Context, f model.Filter, offset, limit int) ([]model.LogRow, error) {
	where, args, err := whereClause(f)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	query := s.db.Rebind(selectLogRows + where +
		" ORDER BY l.detected_time DESC, l.log_id DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows := make([]model.LogRow, 0, limit)
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("find logs: %w", err)
	}
	for i := range rows {
		rows[i].DetectedTime = rows[i].DetectedTime.UTC()
	}
	return rows, nil
}
