// Package csvio reads and writes the CSV files exchanged by roster, attendance
// and user import/export.
package csvio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\ufeff"

// ErrMissingHeader is returned when a header-mapped file has no header row
var ErrMissingHeader = errors.New("csv header row is required")

// Writer accumulates an in-memory CSV document. Fields containing a comma,
// a quote or a line break are quoted and embedded quotes are doubled.
type Writer struct {
	buf bytes.Buffer
	w   *csv.Writer
}

// NewWriter creates a Writer and writes header as the first row
func NewWriter(header ...string) *Writer {
	w := &Writer{}
	w.w = csv.NewWriter(&w.buf)
	if len(header) > 0 {
		// a write error is retained by csv.Writer and reported by Bytes
		_ = w.w.Write(header)
	}
	return w
}

// Write appends one row
func (w *Writer) Write(fields ...string) error {
	return w.w.Write(fields)
}

// Bytes flushes and returns the document
func (w *Writer) Bytes() ([]byte, error) {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return w.buf.Bytes(), nil
}

// Line is one non-blank input line reduced to its first field
type Line struct {
	Number int
	First  string
	Raw    string
}

// ReadFirstFields scans r line by line and returns the first comma-separated
// field of every non-blank line, trimmed and unquoted. The first non-blank line
// is dropped when it contains headerMarker, compared case-insensitively.
func ReadFirstFields(r io.Reader, headerMarker string) ([]Line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	marker := strings.ToLower(headerMarker)
	var (
		lines     []Line
		number    int
		seenFirst bool
	)
	for scanner.Scan() {
		number++
		raw := scanner.Text()
		if number == 1 {
			raw = strings.TrimPrefix(raw, utf8BOM)
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !seenFirst {
			seenFirst = true
			if marker != "" && strings.Contains(strings.ToLower(raw), marker) {
				continue
			}
		}
		lines = append(lines, Line{Number: number, First: FirstField(raw), Raw: raw})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return lines, nil
}

// FirstField returns the trimmed, unquoted text before the first comma of line
func FirstField(line string) string {
	field := line
	if i := strings.IndexByte(line, ','); i >= 0 {
		field = line[:i]
	}
	field = strings.TrimSpace(field)
	if len(field) >= 2 && strings.HasPrefix(field, `"`) && strings.HasSuffix(field, `"`) {
		field = strings.ReplaceAll(field[1:len(field)-1], `""`, `"`)
	}
	return strings.TrimSpace(strings.Trim(field, `"`))
}

// Record is one data row of a header-mapped CSV
type Record struct {
	Line   int
	fields map[string]string
	// Err is set when the row could not be parsed
	Err error
}

// Get returns the trimmed value of column, or "" when absent
func (r Record) Get(column string) string {
	return r.fields[strings.ToLower(column)]
}

// Table is a header-mapped CSV document
type Table struct {
	// Columns holds the lower-cased header names in file order
	Columns []string
	Records []Record
}

// HasColumn reports whether the header names column, case-insensitively
func (t *Table) HasColumn(column string) bool {
	column = strings.ToLower(column)
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// ReadRecords parses a CSV whose first row names the columns. Columns are
// matched case-insensitively. Rows whose fields are all blank are skipped.
// A malformed row is returned with Err set; only a read failure aborts.
func ReadRecords(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				records = append(records, Record{Line: parseErr.StartLine, Err: parseErr})
				continue
			}
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}

		line, _ := cr.FieldPos(0)
		rec := Record{Line: line, fields: make(map[string]string, len(columns))}
		blank := true
		for i, v := range row {
			if i >= len(columns) {
				break
			}
			v = strings.TrimSpace(v)
			if v != "" {
				blank = false
			}
			rec.fields[columns[i]] = v
		}
		if blank {
			continue
		}
		records = append(records, rec)
	}
	return &Table{Columns: columns, Records: records}, nil
}
