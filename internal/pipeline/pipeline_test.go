package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/KaramelBytes/segloom/internal/cluster"
	"github.com/KaramelBytes/segloom/internal/dataset"
	"github.com/KaramelBytes/segloom/internal/features"
	"github.com/KaramelBytes/segloom/internal/render"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

const scenarioCSV = "Age,Gender,Income,Spending Score\n" +
	"25,Male,40000,60\n" +
	"30,Female,50000,40\n" +
	"22,Male,35000,70\n" +
	"40,Female,80000,20\n" +
	"35,Male,60000,50\n"

func newRunner() *Runner {
	return NewRunner(Options{Dataset: dataset.DefaultOptions()}, zerolog.Nop())
}

func run(t *testing.T, name, body string) (*Result, error) {
	t.Helper()
	return newRunner().Run(context.Background(), Upload{Filename: name, Body: strings.NewReader(body)})
}

func TestRun_Scenario(t *testing.T) {
	res, err := run(t, "customers.csv", scenarioCSV)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Artifacts) != 5 {
		t.Fatalf("artifacts: %d", len(res.Artifacts))
	}
	for _, k := range render.Keys {
		if res.Artifacts[k] == "" {
			t.Fatalf("empty artifact %q", k)
		}
	}
	for _, l := range res.Clustered.Labels {
		if l < 0 || l > 2 {
			t.Fatalf("label %d outside {0,1,2}", l)
		}
	}
	want := []State{Received, Validated, Encoded, Clustered, Rendered, Done}
	if diff := cmp.Diff(want, res.Trace); diff != "" {
		t.Fatalf("trace (-want +got):\n%s", diff)
	}
	if res.RunID == "" {
		t.Fatalf("missing run id")
	}
}

func TestRun_Deterministic(t *testing.T) {
	a, err := run(t, "a.csv", scenarioCSV)
	if err != nil {
		t.Fatalf("run a: %v", err)
	}
	b, err := run(t, "b.csv", scenarioCSV)
	if err != nil {
		t.Fatalf("run b: %v", err)
	}
	if diff := cmp.Diff(a.Clustered.Labels, b.Clustered.Labels); diff != "" {
		t.Fatalf("labels differ (-a +b):\n%s", diff)
	}
	if a.RunID == b.RunID {
		t.Fatalf("run ids should be unique")
	}
}

func TestRun_ClientErrors(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(scenarioCSV), "\n")
	cases := []struct {
		name     string
		upload   Upload
		contains string
	}{
		{"no file", Upload{Filename: "x.csv"}, "No file uploaded"},
		{"no name", Upload{Body: strings.NewReader(scenarioCSV)}, "No file selected"},
		{"malformed", Upload{Filename: "x.csv", Body: strings.NewReader("a,\"b\n")}, "Error reading the CSV file: "},
		{"schema", Upload{Filename: "x.csv", Body: strings.NewReader("Age,Income\n1,2\n3,4\n5,6\n")}, "CSV must contain the following columns: Age, Gender, Income, Spending Score"},
		{"two rows", Upload{Filename: "x.csv", Body: strings.NewReader(strings.Join(lines[:3], "\n"))}, "Insufficient data for clustering."},
	}
	for _, tc := range cases {
		_, err := newRunner().Run(context.Background(), tc.upload)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		status, msg := Classify(err)
		if status != http.StatusBadRequest {
			t.Fatalf("%s: status %d", tc.name, status)
		}
		if !strings.Contains(msg, tc.contains) {
			t.Fatalf("%s: message %q lacks %q", tc.name, msg, tc.contains)
		}
	}
}

func TestRun_ClusteringFailureIsProcessingError(t *testing.T) {
	body := "Age,Gender,Income,Spending Score\n1,Male,1,1\n1,Male,1,1\n1,Male,1,1\n"
	_, err := run(t, "dup.csv", body)
	var ce *ClusteringError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ClusteringError, got %T %v", err, err)
	}
	if !errors.Is(err, cluster.ErrDegenerate) {
		t.Fatalf("expected ErrDegenerate in chain: %v", err)
	}
	status, msg := Classify(err)
	if status != http.StatusInternalServerError {
		t.Fatalf("status: %d", status)
	}
	if !strings.HasPrefix(msg, "Error during segmentation: ") {
		t.Fatalf("message: %q", msg)
	}
}

func TestRun_SignedZeroRowsAreNotDistinct(t *testing.T) {
	body := "Age,Gender,Income,Spending Score\n0,Male,1,1\n-0,Male,1,1\n5,Male,1,1\n"
	_, err := run(t, "zeros.csv", body)
	if !errors.Is(err, cluster.ErrDegenerate) {
		t.Fatalf("expected ErrDegenerate, got %v", err)
	}
	if status, msg := Classify(err); status != http.StatusInternalServerError || !strings.HasPrefix(msg, "Error during segmentation: ") {
		t.Fatalf("Classify = %d %q", status, msg)
	}
}

func TestRun_UnencodableCellsAreProcessingErrors(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		cause func(error) bool
	}{
		{"blank gender", "Age,Gender,Income,Spending Score\n25,,40000,60\n30,Female,50000,40\n22,Male,35000,70\n", isMissingLabel},
		{"text income", "Age,Gender,Income,Spending Score\n25,Male,lots,60\n30,Female,50000,40\n22,Male,35000,70\n", isCellError},
		{"empty score", "Age,Gender,Income,Spending Score\n25,Male,40000,\n30,Female,50000,40\n22,Male,35000,70\n", isCellError},
	}
	for _, tc := range cases {
		_, err := run(t, "x.csv", tc.body)
		var ee *EncodingError
		if !errors.As(err, &ee) {
			t.Fatalf("%s: expected EncodingError, got %T %v", tc.name, err, err)
		}
		if !tc.cause(err) {
			t.Fatalf("%s: unexpected cause in %v", tc.name, err)
		}
		status, msg := Classify(err)
		if status != http.StatusInternalServerError || !strings.HasPrefix(msg, "Error during segmentation: ") {
			t.Fatalf("%s: Classify = %d %q", tc.name, status, msg)
		}
	}
}

func isMissingLabel(err error) bool {
	var mle *features.MissingLabelError
	return errors.As(err, &mle)
}

func isCellError(err error) bool {
	var ce *dataset.CellError
	return errors.As(err, &ce)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRunner().Run(ctx, Upload{Filename: "x.csv", Body: strings.NewReader(scenarioCSV)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{nil, http.StatusOK, ""},
		{dataset.ErrNoFile(), http.StatusBadRequest, "No file uploaded"},
		{fmt.Errorf("wrapped: %w", dataset.ErrNoSelection()), http.StatusBadRequest, "No file selected"},
		{&EncodingError{Err: errors.New("boom")}, http.StatusInternalServerError, "Error during segmentation: encoding: boom"},
		{&RenderingError{Chart: "gender_pie", Err: errors.New("bad")}, http.StatusInternalServerError, "Error during segmentation: rendering: bad"},
	}
	for _, tc := range cases {
		status, msg := Classify(tc.err)
		if status != tc.status || msg != tc.msg {
			t.Fatalf("Classify(%v) = %d %q, want %d %q", tc.err, status, msg, tc.status, tc.msg)
		}
	}
}

func TestRenderingErrCarriesChart(t *testing.T) {
	re := renderingErr(&render.ChartError{Chart: render.KeyGenderPie, Err: errors.New("x")})
	if re.Chart != render.KeyGenderPie {
		t.Fatalf("chart: %q", re.Chart)
	}
}
