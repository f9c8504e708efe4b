package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/condor/internal/models"
)

// Table is a raw CSV table: a header and string rows.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// Get returns the cell of row in column name, or "" when the column is absent.
func (t *Table) Get(row []string, name string) string {
	if t.index == nil {
		t.index = models.Index(t.Header)
	}
	pos, ok := t.index[name]
	if !ok || pos >= len(row) {
		return ""
	}
	return row[pos]
}

// Has reports whether the header declares name.
func (t *Table) Has(name string) bool {
	if t.index == nil {
		t.index = models.Index(t.Header)
	}
	_, ok := t.index[name]
	return ok
}

// ReadTable reads path and validates its header against schema.
func ReadTable(path string, d Dialect, schema models.Schema) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	table, err := Decode(f, d)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := schema.Validate(table.Header); err != nil {
		return nil, err
	}
	return table, nil
}

// Decode parses a whole CSV stream. A leading UTF-8 BOM is ignored.
func Decode(r io.Reader, d Dialect) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = d.Separator
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return &Table{Header: header, Rows: rows}, nil
}

// WriteTable writes header and rows to path, creating parent directories.
// The file is written to a temporary sibling and renamed into place.
func WriteTable(path string, d Dialect, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	if err := Encode(f, d, header, rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// Encode writes a CSV stream.
func Encode(w io.Writer, d Dialect, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	writer.Comma = d.Separator

	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}
