package utils

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWritePNGs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	payloads := map[string]string{
		"b_chart": base64.StdEncoding.EncodeToString([]byte("second")),
		"a_chart": base64.StdEncoding.EncodeToString([]byte("first")),
	}
	paths, err := WritePNGs(dir, payloads)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != "a_chart.png" {
		t.Fatalf("paths: %v", paths)
	}
	b, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "second" {
		t.Fatalf("content: %q", b)
	}
	if _, err := os.Stat(paths[0] + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestWritePNGs_BadPayload(t *testing.T) {
	_, err := WritePNGs(t.TempDir(), map[string]string{"x": "not base64!"})
	if err == nil || !strings.Contains(err.Error(), "decode x") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "{\n  \"k\": \"v\"\n}" {
		t.Fatalf("unexpected: %q", b)
	}
}
