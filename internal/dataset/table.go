package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Required column names, matched exactly against the trimmed header.
const (
	ColAge           = "Age"
	ColGender        = "Gender"
	ColIncome        = "Income"
	ColSpendingScore = "Spending Score"
)

// RequiredColumns lists the columns every upload must carry, in message order.
var RequiredColumns = []string{ColAge, ColGender, ColIncome, ColSpendingScore}

// MinRows is the smallest dataset that can be split into three clusters.
const MinRows = 3

// Options controls how an upload is read.
type Options struct {
	// MaxRows limits accepted data rows; 0 means unlimited.
	MaxRows int
}

// DefaultOptions returns reasonable defaults for uploads.
func DefaultOptions() Options {
	return Options{MaxRows: 100000}
}

// Row is one customer record.
type Row struct {
	Age           float64
	Gender        string
	Income        float64
	SpendingScore float64
}

// Dataset is a validated customer table.
type Dataset struct {
	Name string
	// Header is the trimmed header row as uploaded, extra columns included.
	Header []string
	Rows   []Row
}

// Len returns the row count.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Genders returns the Gender column.
func (d *Dataset) Genders() []string {
	out := make([]string, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Gender
	}
	return out
}

// Read parses an uploaded CSV and checks it can be clustered. Checks run in
// order: syntax, required columns, row count, numeric cells.
func Read(name string, r io.Reader, opt Options) (*Dataset, error) {
	if r == nil {
		return nil, ErrNoFile()
	}
	if name == "" {
		return nil, ErrNoSelection()
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, parseErr(errors.New("no columns to parse from file"))
		}
		return nil, parseErr(fmt.Errorf("read header: %w", err))
	}
	ncol := len(header)
	index := make(map[string]int, ncol)
	cols := make([]string, ncol)
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		cols[i] = h
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	var records [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, parseErr(fmt.Errorf("read row %d: %w", len(records)+1, err))
		}
		if len(rec) > ncol {
			return nil, parseErr(fmt.Errorf("row %d: expected %d fields, saw %d", len(records)+1, ncol, len(rec)))
		}
		if len(records) >= maxRows {
			return nil, parseErr(fmt.Errorf("too many rows (limit %d)", opt.MaxRows))
		}
		records = append(records, rec)
	}

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Kind: SchemaError, Missing: missing}
	}
	if len(records) < MinRows {
		return nil, &ValidationError{Kind: InsufficientData}
	}

	ds := &Dataset{Name: name, Header: cols, Rows: make([]Row, 0, len(records))}
	ai, gi, ii, si := index[ColAge], index[ColGender], index[ColIncome], index[ColSpendingScore]
	for n, rec := range records {
		row := Row{Gender: strings.TrimSpace(cell(rec, gi))}
		var err error
		if row.Age, err = numericCell(rec, ai, n+1, ColAge); err != nil {
			return nil, err
		}
		if row.Income, err = numericCell(rec, ii, n+1, ColIncome); err != nil {
			return nil, err
		}
		if row.SpendingScore, err = numericCell(rec, si, n+1, ColSpendingScore); err != nil {
			return nil, err
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return rec[i]
}

func numericCell(rec []string, i, row int, col string) (float64, error) {
	raw := strings.TrimSpace(cell(rec, i))
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &CellError{Row: row, Column: col, Value: raw}
	}
	return f, nil
}
