package dormstats

import (
	"fmt"
	"strings"
)

// Table identifies a load destination. Using a closed enum instead of raw
// table-name strings forces exhaustive handling at every dispatch site; an
// unknown destination is a constructor-time error, not a silent no-op.
type Table int

const (
	// TableRoom is the grouping entity: {id, name}.
	TableRoom Table = iota

	// TableStudent is the individual entity referencing a room:
	// {birthday, id, name, room, sex}.
	TableStudent
)

// Name returns the SQL table name for the destination.
func (t Table) Name() string {
	switch t {
	case TableRoom:
		return "room"
	case TableStudent:
		return "student"
	default:
		return fmt.Sprintf("Table(%d)", int(t))
	}
}

// String implements fmt.Stringer.
func (t Table) String() string { return t.Name() }

// Format identifies an export encoding.
type Format int

const (
	// FormatRecords serializes each result row as a flat key-value mapping (JSON).
	FormatRecords Format = iota

	// FormatMarkup serializes each result row as a nested structural element
	// with one child per column (XML).
	FormatMarkup
)

// ParseFormat maps the user-supplied format name onto the Format enum.
// Recognized names (case-insensitive): "json", "records", "xml", "markup".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "records":
		return FormatRecords, nil
	case "xml", "markup":
		return FormatMarkup, nil
	default:
		return 0, fmt.Errorf("unknown output format %q: %w", s, ErrUnsupportedFormat)
	}
}

// Extension returns the output file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatRecords:
		return "json"
	case FormatMarkup:
		return "xml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// String implements fmt.Stringer.
func (f Format) String() string { return f.Extension() }

// RoomRecord is one entry of the rooms input artifact.
// Pointer fields make field extraction total: a missing JSON field decodes
// to nil and is inserted as SQL NULL.
type RoomRecord struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
}

// StudentRecord is one entry of the students input artifact.
// Birthday stays textual; the backend parses it when binding the
// timestamp parameter.
type StudentRecord struct {
	Birthday *string `json:"birthday"`
	ID       *int64  `json:"id"`
	Name     *string `json:"name"`
	Room     *int64  `json:"room"`
	Sex      *string `json:"sex"`
}

// ResultSet is the ordered capture of one statement's execution: the column
// names as reported by the backend at execute time, and every fetched row.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Records zips the column names onto each row, producing one flat mapping
// per row in row order.
func (rs ResultSet) Records() []map[string]any {
	records := make([]map[string]any, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		record := make(map[string]any, len(rs.Columns))
		for i, col := range rs.Columns {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}
	return records
}
