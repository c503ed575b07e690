package dataset

import (
	"fmt"
	"strings"
)

// Kind classifies why an upload was rejected.
type Kind int

const (
	// MissingFile means no file part was sent, or it had no filename.
	MissingFile Kind = iota + 1
	// ParseError means the content is not usable CSV.
	ParseError
	// SchemaError means one or more required columns are absent.
	SchemaError
	// InsufficientData means there are fewer rows than clusters.
	InsufficientData
)

func (k Kind) String() string {
	switch k {
	case MissingFile:
		return "missing_file"
	case ParseError:
		return "parse_error"
	case SchemaError:
		return "schema_error"
	case InsufficientData:
		return "insufficient_data"
	default:
		return "unknown"
	}
}

// ValidationError is a client-input failure. Its Error() text is the message
// returned to the caller verbatim.
type ValidationError struct {
	Kind Kind
	// Detail is the underlying parse failure for ParseError.
	Detail string
	// Missing lists the absent required columns for SchemaError.
	Missing []string
	// NoSelection distinguishes "No file selected" from "No file uploaded".
	NoSelection bool
	Err         error
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingFile:
		if e.NoSelection {
			return "No file selected"
		}
		return "No file uploaded"
	case ParseError:
		return fmt.Sprintf("Error reading the CSV file: %s", e.Detail)
	case SchemaError:
		return fmt.Sprintf("CSV must contain the following columns: %s", strings.Join(RequiredColumns, ", "))
	case InsufficientData:
		return "Insufficient data for clustering."
	default:
		return "invalid dataset"
	}
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrNoFile is returned when the caller sent no file part at all.
func ErrNoFile() *ValidationError { return &ValidationError{Kind: MissingFile} }

// ErrNoSelection is returned when the file part carries an empty filename.
func ErrNoSelection() *ValidationError { return &ValidationError{Kind: MissingFile, NoSelection: true} }

func parseErr(err error) *ValidationError {
	return &ValidationError{Kind: ParseError, Detail: err.Error(), Err: err}
}

// CellError reports a numeric cell that holds no usable number. The upload
// itself is well-formed CSV, so this is not a ValidationError.
type CellError struct {
	Row    int
	Column string
	Value  string
}

func (e *CellError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d: column %q is empty", e.Row, e.Column)
	}
	return fmt.Sprintf("row %d: column %q: could not convert %q to float", e.Row, e.Column, e.Value)
}
