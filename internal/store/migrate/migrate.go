// Package migrate bootstraps the logs schema from embedded SQL files.
package migrate

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var embedded embed.FS

// advisoryLockKey serialises concurrent runners on one PostgreSQL database.
const advisoryLockKey = 0x63617074 // "capt"

var (
	// ErrHistoryMismatch means an applied version was recorded under a
	// different file name than this build ships.
	ErrHistoryMismatch = errors.New("migration history does not match embedded files")
	// ErrSchemaAhead means the database was migrated by a newer build.
	ErrSchemaAhead = errors.New("database schema is newer than this build")
)

// Report describes the schema state of a database.
type Report struct {
	Current int
	Latest  int
	Pending []string
}

// Runner applies versioned SQL files to a DuckDB or PostgreSQL database.
type Runner struct {
	db    *sqlx.DB
	files fs.FS
}

// NewRunner creates a migration runner for the given connection pool.
func NewRunner(db *sqlx.DB) *Runner {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory
	}
	return &Runner{db: db, files: sub}
}

type migration struct {
	version int
	name    string
	sql     string
}

type record struct {
	Version int    `db:"version"`
	Name    string `db:"name"`
}

func (r *Runner) load() ([]migration, error) {
	entries, err := fs.ReadDir(r.files, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	var migs []migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			continue
		}
		ver, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("parsing version from %s: %w", e.Name(), err)
		}
		if prev, dup := seen[ver]; dup {
			return nil, fmt.Errorf("version %d used by both %s and %s", ver, prev, e.Name())
		}
		seen[ver] = e.Name()
		data, err := fs.ReadFile(r.files, e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		migs = append(migs, migration{version: ver, name: e.Name(), sql: string(data)})
	}

	sort.Slice(migs, func(i, j int) bool { return migs[i].version < migs[j].version })
	return migs, nil
}

func (r *Runner) postgres() bool {
	return r.db.DriverName() == "pgx" || r.db.DriverName() == "postgres"
}

func (r *Runner) bootstrap(ctx context.Context) error {
	appliedAt := "TIMESTAMP DEFAULT current_timestamp"
	if r.postgres() {
		appliedAt = "TIMESTAMPTZ NOT NULL DEFAULT now()"
	}
	_, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       VARCHAR NOT NULL,
		applied_at `+appliedAt+`
	)`)
	return err
}

func (r *Runner) history(ctx context.Context, q sqlx.QueryerContext) ([]record, error) {
	var recs []record
	err := sqlx.SelectContext(ctx, q, &recs, "SELECT version, name FROM schema_migrations ORDER BY version")
	return recs, err
}

// check compares the recorded history with migs and returns the applied
// version.
func check(recs []record, migs []migration) (int, error) {
	byVersion := make(map[int]string, len(migs))
	latest := 0
	for _, m := range migs {
		byVersion[m.version] = m.name
		latest = m.version
	}

	current := 0
	for _, rec := range recs {
		name, ok := byVersion[rec.Version]
		if !ok && rec.Version > latest {
			return rec.Version, fmt.Errorf("%w: version %d, build knows %d", ErrSchemaAhead, rec.Version, latest)
		}
		if !ok || name != rec.Name {
			return 0, fmt.Errorf("%w: version %d recorded as %s", ErrHistoryMismatch, rec.Version, rec.Name)
		}
		current = rec.Version
	}
	return current, nil
}

// Run applies all pending migrations in order. Each file runs in its own
// transaction and is recorded in schema_migrations. On PostgreSQL the
// transaction holds an advisory lock, so concurrent runners apply each file
// once.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap schema_migrations: %w", err)
	}

	migs, err := r.load()
	if err != nil {
		return err
	}

	for _, m := range migs {
		if err := r.apply(ctx, m, migs); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) apply(ctx context.Context, m migration, migs []migration) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for %s: %w", m.name, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if r.postgres() {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
			return fmt.Errorf("locking for %s: %w", m.name, err)
		}
	}

	recs, err := r.history(ctx, tx)
	if err != nil {
		return fmt.Errorf("reading applied versions: %w", err)
	}
	current, err := check(recs, migs)
	if err != nil {
		return err
	}
	if m.version <= current {
		return nil
	}

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("executing %s: %w", m.name, err)
	}
	insert := tx.Rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)")
	if _, err := tx.ExecContext(ctx, insert, m.version, m.name); err != nil {
		return fmt.Errorf("recording %s: %w", m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", m.name, err)
	}
	committed = true
	return nil
}

// Status reports the applied version and the files still to run.
func (r *Runner) Status(ctx context.Context) (Report, error) {
	if err := r.bootstrap(ctx); err != nil {
		return Report{}, fmt.Errorf("bootstrap schema_migrations: %w", err)
	}

	migs, err := r.load()
	if err != nil {
		return Report{}, err
	}
	recs, err := r.history(ctx, r.db)
	if err != nil {
		return Report{}, fmt.Errorf("reading applied versions: %w", err)
	}

	var rep Report
	if rep.Current, err = check(recs, migs); err != nil {
		return rep, err
	}
	for _, m := range migs {
		rep.Latest = m.version
		if m.version > rep.Current {
			rep.Pending = append(rep.Pending, m.name)
		}
	}
	return rep, nil
}
