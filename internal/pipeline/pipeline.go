package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/KaramelBytes/segloom/internal/cluster"
	"github.com/KaramelBytes/segloom/internal/dataset"
	"github.com/KaramelBytes/segloom/internal/features"
	"github.com/KaramelBytes/segloom/internal/render"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is a step of a segmentation run.
type State int

const (
	Received State = iota
	Validated
	Encoded
	Clustered
	Rendered
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Received:
		return "received"
	case Validated:
		return "validated"
	case Encoded:
		return "encoded"
	case Clustered:
		return "clustered"
	case Rendered:
		return "rendered"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Upload is the dataset handed to a run. A nil Body means no file was sent.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Options configures a Runner.
type Options struct {
	Dataset dataset.Options
}

// Result is the outcome of a successful run.
type Result struct {
	RunID     string
	Artifacts render.Artifacts
	Clustered *cluster.Clustered
	// Trace lists the states the run passed through.
	Trace []State
}

// Runner drives validation, encoding, clustering and rendering. A Runner
// holds no per-run state and is safe for concurrent use.
type Runner struct {
	opts Options
	log  zerolog.Logger
}

// NewRunner creates a Runner.
func NewRunner(opts Options, log zerolog.Logger) *Runner {
	return &Runner{opts: opts, log: log}
}

// Run executes one segmentation. Failures are terminal: nothing partial is
// returned. Cancellation of ctx is honoured between stages.
func (r *Runner) Run(ctx context.Context, up Upload) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := r.log.With().Str("run_id", res.RunID).Str("file", up.Filename).Logger()
	start := time.Now()

	step := func(s State) {
		res.Trace = append(res.Trace, s)
		log.Debug().Str("state", s.String()).Dur("elapsed", time.Since(start)).Msg("segmentation state")
	}
	fail := func(err error) (*Result, error) {
		res.Trace = append(res.Trace, Failed)
		level := zerolog.ErrorLevel
		if IsClientError(err) {
			level = zerolog.WarnLevel
		}
		log.WithLevel(level).Err(err).Str("after", res.Trace[len(res.Trace)-2].String()).Msg("segmentation failed")
		return nil, err
	}

	step(Received)
	ds, err := dataset.Read(up.Filename, up.Body, r.opts.Dataset)
	if err != nil {
		var ce *dataset.CellError
		if errors.As(err, &ce) {
			// Well-formed CSV whose cells cannot become features.
			return fail(&EncodingError{Err: err})
		}
		return fail(err)
	}
	step(Validated)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	enc, err := features.Encode(ds)
	if err != nil {
		return fail(&EncodingError{Err: err})
	}
	step(Encoded)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	cl, err := assign(enc)
	if err != nil {
		return fail(&ClusteringError{Err: err})
	}
	res.Clustered = cl
	step(Clustered)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	arts, err := render.Render(cl)
	if err != nil {
		return fail(renderingErr(err))
	}
	res.Artifacts = arts
	step(Rendered)

	step(Done)
	log.Info().Int("rows", ds.Len()).Ints("cluster_sizes", cl.Sizes()).Dur("took", time.Since(start)).Msg("segmentation complete")
	return res, nil
}

// assign runs the clustering stage, turning a panic into an error.
func assign(enc *features.Encoded) (c *cluster.Clustered, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return cluster.Assign(enc)
}
