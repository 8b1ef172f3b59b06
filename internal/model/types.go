package model

import "time"

// LogRecord is one persisted screen-capture detection event.
// Rows are immutable once written; the service only reads them.
type LogRecord struct {
	LogID           int64     `db:"log_id"`
	Username        string    `db:"username"`
	DeviceID        string    `db:"device_id"` // MAC address of the capturing device
	DetectedProgram *string   `db:"detected_program"`
	PageURL         *string   `db:"page_url"`
	DetectedTime    time.Time `db:"detected_time"`
	OSID            *int64    `db:"os_id"`
	BrowserID       *int64    `db:"browser_id"`
}

// Descriptor is a lookup row mapping an id to a display name
// (e.g. "Windows", "Google Chrome").
type Descriptor struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// LogRow is a page row with its OS and browser references already joined.
// A nil name means the reference was absent.
type LogRow struct {
	LogID           int64     `db:"log_id"`
	Username        string    `db:"username"`
	DeviceID        string    `db:"device_id"`
	DetectedProgram *string   `db:"detected_program"`
	PageURL         *string   `db:"page_url"`
	DetectedTime    time.Time `db:"detected_time"`
	OSName          *string   `db:"os_name"`
	BrowserName     *string   `db:"browser_name"`
}

// LogEntry is the wire shape of one row in a search response.
type LogEntry struct {
	LogID           int64   `json:"log_id"`
	Username        string  `json:"username"`
	DeviceID        string  `json:"device_id"`
	PageURL         *string `json:"page_url"`
	DetectedProgram *string `json:"detected_program"`
	DetectedTime    string  `json:"detected_time"`
	BrowserName     *string `json:"browser_name"`
	OSName          *string `json:"os_name"`
}

// SearchPage is the wire shape of a search response. Page and Size are the
// effective (clamped) values, not the ones the caller asked for.
type SearchPage struct {
	Data       []LogEntry `json:"data"`
	Page       int        `json:"page"`
	Size       int        `json:"size"`
	TotalCount int64      `json:"totalCount"`
	TotalPages int        `json:"totalPages"`
}

// ErrorResponse is the body returned with non-2xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}
