package pipeline

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/KaramelBytes/segloom/internal/dataset"
	"github.com/KaramelBytes/segloom/internal/render"
)

// EncodingError wraps a failure while encoding categorical features.
type EncodingError struct{ Err error }

func (e *EncodingError) Error() string { return fmt.Sprintf("encoding: %v", e.Err) }
func (e *EncodingError) Unwrap() error { return e.Err }

// ClusteringError wraps a failure while assigning clusters.
type ClusteringError struct{ Err error }

func (e *ClusteringError) Error() string { return fmt.Sprintf("clustering: %v", e.Err) }
func (e *ClusteringError) Unwrap() error { return e.Err }

// RenderingError wraps a failure while drawing or encoding a chart.
type RenderingError struct {
	Chart string
	Err   error
}

func (e *RenderingError) Error() string { return fmt.Sprintf("rendering: %v", e.Err) }
func (e *RenderingError) Unwrap() error { return e.Err }

func renderingErr(err error) *RenderingError {
	re := &RenderingError{Err: err}
	var ce *render.ChartError
	if errors.As(err, &ce) {
		re.Chart = ce.Chart
	}
	return re
}

// IsClientError reports whether err was caused by the uploaded input.
func IsClientError(err error) bool {
	var ve *dataset.ValidationError
	return errors.As(err, &ve)
}

// Classify maps a run error to the status code and plain-text message
// returned to the caller. Processing errors all share one message shape.
func Classify(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	var ve *dataset.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error()
	}
	return http.StatusInternalServerError, fmt.Sprintf("Error during segmentation: %v", err)
}
