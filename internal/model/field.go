package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField is returned when a search field is outside the allow-list.
var ErrUnknownField = errors.New("unknown search field")

// SearchField is a user-facing search field label.
type SearchField string

const (
	FieldUsername        SearchField = "Username"
	FieldMACAddress      SearchField = "MAC Address"
	FieldDetectedProgram SearchField = "Detected Program"
	FieldDetectedPageURL SearchField = "Detected Page URL"
)

// SearchFields lists the selectable fields in display order.
var SearchFields = []SearchField{
	FieldUsername,
	FieldMACAddress,
	FieldDetectedProgram,
	FieldDetectedPageURL,
}

// Column identifies a filterable column of the logs table. The zero value
// means "no filter".
type Column string

const (
	ColumnNone            Column = ""
	ColumnUsername        Column = "username"
	ColumnDeviceID        Column = "device_id"
	ColumnDetectedProgram Column = "detected_program"
	ColumnPageURL         Column = "page_url"
)

// fieldColumns maps normalized field keys to columns. Both the label form
// ("mac_address") and the column name ("device_id") are accepted.
var fieldColumns = map[string]Column{
	"username":          ColumnUsername,
	"mac_address":       ColumnDeviceID,
	"device_id":         ColumnDeviceID,
	"detected_program":  ColumnDetectedProgram,
	"detected_page_url": ColumnPageURL,
	"page_url":          ColumnPageURL,
}

// Valid reports whether c is a known filter column (or no filter).
func (c Column) Valid() bool {
	switch c {
	case ColumnNone, ColumnUsername, ColumnDeviceID, ColumnDetectedProgram, ColumnPageURL:
		return true
	}
	return false
}

// NormalizeField lowercases raw and replaces each run of whitespace with an
// underscore: "Detected  Program" -> "detected_program".
func NormalizeField(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), "_"))
}

// ResolveField maps a client-supplied field to a column. An empty field
// resolves to ColumnNone.
func ResolveField(raw string) (Column, error) {
	key := NormalizeField(raw)
	if key == "" {
		return ColumnNone, nil
	}
	col, ok := fieldColumns[key]
	if !ok {
		return ColumnNone, fmt.Errorf("%w: %q", ErrUnknownField, raw)
	}
	return col, nil
}
