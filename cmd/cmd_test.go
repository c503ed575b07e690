package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/segloom/internal/render"
)

const customersCSV = "Age,Gender,Income,Spending Score\n" +
	"25,Male,40000,60\n" +
	"30,Female,50000,40\n" +
	"22,Male,35000,70\n" +
	"40,Female,80000,20\n" +
	"35,Male,60000,50\n"

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset bound variables that persist across invocations
	cfgFile, debug, flagLogLevel = "", false, ""
	segOutDir, segJSONPath, segQuiet = "", "", false
	sbOutDir, sbJobs, sbQuiet, sbStrict = "", 0, false, false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSegment_WritesChartsAndJSON(t *testing.T) {
	home := isolateHome(t)
	in := filepath.Join(home, "customers.csv")
	writeFile(t, in, customersCSV)
	outDir := filepath.Join(home, "out")
	jsonPath := filepath.Join(home, "summary.json")

	if _, err := runCmd(t, "segment", in, "-o", outDir, "--json", jsonPath, "--quiet"); err != nil {
		t.Fatalf("segment: %v", err)
	}
	for _, k := range render.Keys {
		b, err := os.ReadFile(filepath.Join(outDir, k+".png"))
		if err != nil {
			t.Fatalf("missing chart %s: %v", k, err)
		}
		if !bytes.HasPrefix(b, []byte("\x89PNG")) {
			t.Fatalf("%s is not a PNG", k)
		}
	}
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var got segmentOutput
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if got.Report == nil || got.Report.Rows != 5 || len(got.Charts) != len(render.Keys) {
		t.Fatalf("unexpected summary: %s", raw)
	}
	sizes := 0
	for _, c := range got.Report.Clusters {
		sizes += c.Size
	}
	if sizes != 5 {
		t.Fatalf("cluster sizes sum to %d, want 5", sizes)
	}
}

func TestSegment_InvalidFile(t *testing.T) {
	home := isolateHome(t)
	in := filepath.Join(home, "bad.csv")
	writeFile(t, in, "Name,Email\nA,a@x\n")
	_, err := runCmd(t, "segment", in, "-o", filepath.Join(home, "out"), "--quiet")
	if err == nil || !strings.Contains(err.Error(), "CSV must contain the following columns") {
		t.Fatalf("expected schema error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(home, "out")); !os.IsNotExist(statErr) {
		t.Fatalf("no output expected on failure")
	}
}

func TestSegmentBatch_CollisionsAndFailures(t *testing.T) {
	home := isolateHome(t)
	writeFile(t, filepath.Join(home, "d1", "customers.csv"), customersCSV)
	writeFile(t, filepath.Join(home, "d2", "customers.csv"), customersCSV)
	writeFile(t, filepath.Join(home, "d3", "short.csv"), "Age,Gender,Income,Spending Score\n25,Male,40000,60\n")
	outRoot := filepath.Join(home, "out")

	_, err := runCmd(t, "segment-batch", filepath.Join(home, "d*", "*.csv"), "-o", outRoot, "-j", "2", "--quiet")
	if err == nil || !strings.Contains(err.Error(), "1 of 3 files failed") {
		t.Fatalf("expected one failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "Insufficient data for clustering.") {
		t.Fatalf("failure reason missing: %v", err)
	}
	for _, dir := range []string{"customers", "customers__2"} {
		if _, err := os.Stat(filepath.Join(outRoot, dir, render.KeySegmentation+".png")); err != nil {
			t.Fatalf("missing output for %s: %v", dir, err)
		}
	}
}

func TestSegmentBatch_NoMatches(t *testing.T) {
	home := isolateHome(t)
	_, err := runCmd(t, "segment-batch", filepath.Join(home, "nothing-*.csv"), "--quiet")
	if err == nil || !strings.Contains(err.Error(), "no input files matched") {
		t.Fatalf("expected no-match error, got %v", err)
	}
}

func TestOutputDirs(t *testing.T) {
	got := outputDirs("root", []string{"a/x.csv", "b/x.csv", "c/y.csv", "d/x.csv"})
	want := []string{
		filepath.Join("root", "x"),
		filepath.Join("root", "x__2"),
		filepath.Join("root", "y"),
		filepath.Join("root", "x__3"),
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("outputDirs[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestConfig_SetAndShow(t *testing.T) {
	home := isolateHome(t)
	cfgPath := filepath.Join(home, "segloom.yaml")

	if _, err := runCmd(t, "--config", cfgPath, "config", "set", "batch_jobs", "7"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	out, err := runCmd(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "batch_jobs: 7") || !strings.Contains(out, "addr: :5000") {
		t.Fatalf("unexpected show output:\n%s", out)
	}
	if _, err := runCmd(t, "--config", cfgPath, "config", "set", "log_level", "loud"); err == nil {
		t.Fatalf("expected invalid log_level error")
	}
	if _, err := runCmd(t, "--config", cfgPath, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}
