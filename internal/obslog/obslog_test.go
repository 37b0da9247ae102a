package obslog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "board.log")
	logger, err := New(Options{Level: "debug", Format: "json", ToFile: true, FilePath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("move_applied", zap.String("from", "e2"), zap.String("to", "e4"))
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(raw))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not json: %q", line)
	}
	if entry["msg"] != "move_applied" || entry["from"] != "e2" || entry["level"] != "debug" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.log")
	logger, err := New(Options{Level: "warn", Format: "json", ToFile: true, FilePath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")
	_ = logger.Sync()
	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "dropped") || !strings.Contains(string(raw), "kept") {
		t.Errorf("level filter failed: %q", raw)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{"debug": "debug", "WARNING": "warn", " error ": "error", "bogus": "info", "": "info"}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s; want %s", in, got, want)
		}
	}
}

func TestReplaceRestores(t *testing.T) {
	before := L()
	restore := Replace(zap.NewExample())
	if L() == before {
		t.Fatal("Replace did not swap the logger")
	}
	restore()
	if L() != before {
		t.Error("restore did not bring back the previous logger")
	}
}
