package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLogLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("parse log line %q: %v", scanner.Text(), err)
		}
		lines = append(lines, entry)
	}
	return lines
}

func TestLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.log")
	logger, err := New(path, "INFO", DefaultRotationConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.Info("discussion started", "rounds", 3)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	lines := readLogLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	if lines[0]["msg"] != "discussion started" {
		t.Errorf("msg = %v, want 'discussion started'", lines[0]["msg"])
	}
	if lines[0]["rounds"] != float64(3) {
		t.Errorf("rounds = %v, want 3", lines[0]["rounds"])
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.log")
	logger, err := New(path, "WARN", DefaultRotationConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	logger.Error("also kept")
	logger.Close()

	lines := readLogLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
}

func TestChildLoggerAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.log")
	logger, err := New(path, "DEBUG", DefaultRotationConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	child := logger.WithDiscussion("d-1").WithParticipant("director").WithRound(2)
	child.Info("message sent")

	// Parent is unaffected by child attributes.
	logger.Info("bare")
	logger.Close()

	lines := readLogLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if lines[0]["discussion_id"] != "d-1" || lines[0]["participant"] != "director" || lines[0]["round"] != float64(2) {
		t.Errorf("child attrs missing from %v", lines[0])
	}
	if _, ok := lines[1]["discussion_id"]; ok {
		t.Error("parent logger should not carry child attributes")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"WARN", "WARN"},
		{"bogus", "INFO"},
		{"", "INFO"},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in).String(); !strings.EqualFold(got, tt.want) {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.log")
	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error: %v", err)
	}

	// Two writes just over half the limit force one rotation.
	big := make([]byte, 600*1024)
	for i := range big {
		big[i] = 'x'
	}
	if _, err := rw.Write(big); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := rw.Write(big); err != nil {
		t.Fatalf("second write: %v", err)
	}
	rw.Close()

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected rotated backup %s.1: %v", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat live file: %v", err)
	}
	if info.Size() != int64(len(big)) {
		t.Errorf("live file size = %d, want %d", info.Size(), len(big))
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	logger := NewNop()
	logger.WithService("script").Info("into the void")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on nop logger: %v", err)
	}
}
