package insight

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	appErr "github.com/xxxsen/insighthub/internal/pkg/errors"
)

var missingValues = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "-nan": {}, "null": {}, "none": {}, "#n/a": {}, "<na>": {},
}

// Table is a parsed csv with normalized column names. It is read-only once parsed.
type Table struct {
	columns []string
	rows    [][]string
	index   map[string]int
}

// NormalizeColumn trims, lowercases and replaces spaces with underscores.
func NormalizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Parse reads a csv whose first record is the header.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, appErr.Wrap(appErr.ErrInvalid, "csv is empty")
		}
		return nil, appErr.Wrap(appErr.ErrInvalid, fmt.Sprintf("couldn't read csv: %v", err))
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	t := &Table{
		columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, name := range header {
		col := NormalizeColumn(name)
		t.columns[i] = col
		if _, ok := t.index[col]; !ok {
			t.index[col] = i
		}
	}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, appErr.Wrap(appErr.ErrInvalid, fmt.Sprintf("couldn't read csv: %v", err))
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, appErr.Wrap(appErr.ErrInvalid,
				fmt.Sprintf("couldn't read csv: line %d has %d fields, expected %d", line, len(record), len(header)))
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Head returns the first n rows. The result shares storage with t.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n >= len(t.rows) {
		return t
	}
	return &Table{columns: t.columns, rows: t.rows[:n], index: t.index}
}

func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[NormalizeColumn(name)]
	if !ok {
		return Column{}, false
	}
	cells := make([]string, len(t.rows))
	for r, row := range t.rows {
		cells[r] = row[i]
	}
	return Column{cells: cells}, true
}

// Record maps each column to its typed value for row i.
func (t *Table) Record(i int) map[string]interface{} {
	out := make(map[string]interface{}, len(t.columns))
	for c, name := range t.columns {
		if _, ok := out[name]; ok {
			continue
		}
		out[name] = inferValue(t.rows[i][c])
	}
	return out
}

// Render prints the table as aligned plain text with a leading row index.
func (t *Table) Render() string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "\t")
	for _, c := range t.columns {
		fmt.Fprint(w, c, "\t")
	}
	fmt.Fprintln(w)
	for i, row := range t.rows {
		fmt.Fprint(w, i, "\t")
		for _, cell := range row {
			if isMissing(cell) {
				cell = "NaN"
			}
			fmt.Fprint(w, cell, "\t")
		}
		fmt.Fprintln(w)
	}
	_ = w.Flush()
	return buf.String()
}

// Column is a typed view over one column.
type Column struct {
	cells []string
}

func (c Column) Len() int {
	return len(c.cells)
}

// Strings returns the non-missing raw values.
func (c Column) Strings() []string {
	out := make([]string, 0, len(c.cells))
	for _, cell := range c.cells {
		if !isMissing(cell) {
			out = append(out, cell)
		}
	}
	return out
}

// Lower returns every value case-folded, missing cells included.
func (c Column) Lower() []string {
	out := make([]string, len(c.cells))
	for i, cell := range c.cells {
		out[i] = strings.ToLower(cell)
	}
	return out
}

// Floats returns the numeric values, skipping missing cells.
// ok is false if any non-missing cell is not a number.
func (c Column) Floats() ([]float64, bool) {
	out := make([]float64, 0, len(c.cells))
	for _, cell := range c.cells {
		if isMissing(cell) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil || math.IsInf(v, 0) {
			return nil, false
		}
		if math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out, true
}

func isMissing(cell string) bool {
	_, ok := missingValues[strings.ToLower(strings.TrimSpace(cell))]
	return ok
}

func inferValue(cell string) interface{} {
	if isMissing(cell) {
		return nil
	}
	s := strings.TrimSpace(cell)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return cell
}
