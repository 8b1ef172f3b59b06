package store

import (
	"context"
	"fmt"

	"github.com/capture-logs/capture-logs/internal/model"
)

var descriptorInserts = map[model.DescriptorTable]string{
	model.OSTable:      "INSERT INTO os (os_id, os_name) VALUES (?, ?)",
	model.BrowserTable: "INSERT INTO browser (browser_id, browser_name) VALUES (?, ?)",
}

const (
	insertLogWithID = `INSERT INTO logs
		(log_id, username, device_id, detected_program, page_url, detected_time, os_id, browser_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	insertLogAutoID = `INSERT INTO logs
		(username, device_id, detected_program, page_url, detected_time, os_id, browser_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
)

// InsertDescriptors loads lookup rows into the OS or browser table.
func (s *Store) InsertDescriptors(ctx context.Context, table model.DescriptorTable, rows []model.Descriptor) error {
	stmt, ok := descriptorInserts[table]
	if !ok {
		return fmt.Errorf("store: unknown descriptor table %q", table)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	query := tx.Rebind(stmt)
	for _, d := range rows {
		if _, err := tx.ExecContext(ctx, query, d.ID, d.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s %d: %w", table, d.ID, err)
		}
	}
	return tx.Commit()
}

// InsertLogs loads log rows in one transaction. Rows with a zero LogID get
// an id from the logs sequence.
func (s *Store) InsertLogs(ctx context.Context, rows []model.LogRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	withID := tx.Rebind(insertLogWithID)
	autoID := tx.Rebind(insertLogAutoID)

	for _, r := range rows {
		args := []any{
			r.Username, r.DeviceID,
			nullable(r.DetectedProgram), nullable(r.PageURL),
			r.DetectedTime.UTC(),
			nullable(r.OSID), nullable(r.BrowserID),
		}
		query := autoID
		if r.LogID != 0 {
			query = withID
			args = append([]any{r.LogID}, args...)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert log for %q: %w", r.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// nullable unwraps p so drivers see either the value or a plain nil.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
