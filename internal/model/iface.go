package model

import "context"

// Filter restricts a search to rows whose Column contains Keyword,
// case-insensitively. A ColumnNone filter matches every row.
type Filter struct {
	Column  Column
	Keyword string
}

// LogSearcher provides the read queries behind a paged search.
type LogSearcher interface {
	CountLogs(ctx context.Context, f Filter) (int64, error)
	FindLogs(ctx context.Context, f Filter, offset, limit int) ([]LogRow, error)
}

// FixtureWriter loads descriptor and log rows into a store. It backs tests
// and the demo seed, not an ingestion path.
type FixtureWriter interface {
	InsertDescriptors(ctx context.Context, table DescriptorTable, rows []Descriptor) error
	InsertLogs(ctx context.Context, rows []LogRecord) error
}

// DescriptorTable names one of the lookup tables.
type DescriptorTable string

const (
	OSTable      DescriptorTable = "os"
	BrowserTable DescriptorTable = "browser"
)
