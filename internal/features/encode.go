package features

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KaramelBytes/segloom/internal/dataset"
)

// Encoding maps category labels to integer codes. Codes are the index of the
// label in the sorted set of labels observed in one dataset, so an Encoding
// is only meaningful for the dataset that produced it.
type Encoding struct {
	Column  string
	Classes []string
	index   map[string]int
}

// NewEncoding builds an encoding from the distinct values in labels.
func NewEncoding(column string, labels []string) *Encoding {
	index := map[string]int{}
	for _, v := range labels {
		index[v] = 0
	}
	classes := make([]string, 0, len(index))
	for v := range index {
		classes = append(classes, v)
	}
	sort.Strings(classes)
	for i, v := range classes {
		index[v] = i
	}
	return &Encoding{Column: column, Classes: classes, index: index}
}

// Code returns the code for label.
func (e *Encoding) Code(label string) (int, bool) {
	c, ok := e.index[label]
	return c, ok
}

// Label returns the label for code.
func (e *Encoding) Label(code int) (string, bool) {
	if code < 0 || code >= len(e.Classes) {
		return "", false
	}
	return e.Classes[code], true
}

// Transform label-encodes values. Every value must be known to e.
func (e *Encoding) Transform(values []string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		c, ok := e.index[v]
		if !ok {
			return nil, &UnknownLabelError{Column: e.Column, Label: v}
		}
		out[i] = c
	}
	return out, nil
}

// UnknownLabelError is returned when a value has no code.
type UnknownLabelError struct {
	Column string
	Label  string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("column %s: unseen label %q", e.Column, e.Label)
}

// MissingLabelError is returned when a categorical cell is blank.
type MissingLabelError struct {
	Column string
	Row    int
}

func (e *MissingLabelError) Error() string {
	return fmt.Sprintf("column %s: row %d has no value to encode", e.Column, e.Row)
}

// Row is a customer record with Gender replaced by its code.
type Row struct {
	Age           float64
	Gender        int
	Income        float64
	SpendingScore float64
}

// Encoded is a dataset ready for distance-based clustering.
type Encoded struct {
	Name   string
	Rows   []Row
	Gender *Encoding
}

// ErrEmptyDataset is returned when there is nothing to encode.
var ErrEmptyDataset = errors.New("dataset has no rows")

// Encode label-encodes the Gender column of ds. Numeric columns are copied
// unchanged and ds is not modified.
func Encode(ds *dataset.Dataset) (*Encoded, error) {
	if ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	genders := ds.Genders()
	for i, g := range genders {
		if g == "" {
			return nil, &MissingLabelError{Column: dataset.ColGender, Row: i + 1}
		}
	}
	enc := NewEncoding(dataset.ColGender, genders)
	codes, err := enc.Transform(genders)
	if err != nil {
		return nil, err
	}
	out := &Encoded{Name: ds.Name, Rows: make([]Row, len(ds.Rows)), Gender: enc}
	for i, r := range ds.Rows {
		out.Rows[i] = Row{Age: r.Age, Gender: codes[i], Income: r.Income, SpendingScore: r.SpendingScore}
	}
	return out, nil
}

// FeatureNames is the column order of Matrix.
var FeatureNames = []string{dataset.ColAge, dataset.ColGender, dataset.ColIncome, dataset.ColSpendingScore}

// Matrix returns one [Age, Gender, Income, Spending Score] vector per row.
func (e *Encoded) Matrix() [][]float64 {
	X := make([][]float64, len(e.Rows))
	for i, r := range e.Rows {
		X[i] = []float64{r.Age, float64(r.Gender), r.Income, r.SpendingScore}
	}
	return X
}

// Column returns one numeric column by name.
func (e *Encoded) Column(name string) []float64 {
	out := make([]float64, len(e.Rows))
	for i, r := range e.Rows {
		switch name {
		case dataset.ColAge:
			out[i] = r.Age
		case dataset.ColGender:
			out[i] = float64(r.Gender)
		case dataset.ColIncome:
			out[i] = r.Income
		case dataset.ColSpendingScore:
			out[i] = r.SpendingScore
		}
	}
	return out
}

// GenderCounts returns how many rows carry each gender code.
func (e *Encoded) GenderCounts() []int {
	counts := make([]int, len(e.Gender.Classes))
	for _, r := range e.Rows {
		counts[r.Gender]++
	}
	return counts
}
