package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLevel(l slog.Level) *slog.LevelVar {
	lv := new(slog.LevelVar)
	lv.Set(l)
	return lv
}

func TestConsoleHandlerFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, testLevel(slog.LevelInfo), false))

	logger.Info("downloaded part",
		slog.String("component", "downloader"),
		slog.Int("episode_id", 42),
		slog.String("file", "a b.mp4"))

	line := buf.String()
	if !strings.Contains(line, " INFO downloader: downloaded part") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "episode_id=42") {
		t.Fatalf("missing int attr: %q", line)
	}
	if !strings.Contains(line, `file="a b.mp4"`) {
		t.Fatalf("value with spaces must be quoted: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component must not appear as key=value: %q", line)
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, testLevel(slog.LevelWarn), false))

	logger.Info("dropped")
	logger.Warn("kept")

	if got := buf.String(); strings.Contains(got, "dropped") || !strings.Contains(got, "kept") {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestConsoleHandlerGroupsAndWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, testLevel(slog.LevelInfo), false))

	logger.With(slog.String("run_id", "abc")).WithGroup("fetch").Info("done", slog.Int("retries", 2))

	line := buf.String()
	if !strings.Contains(line, "run_id=abc") {
		t.Fatalf("missing inherited attr: %q", line)
	}
	if !strings.Contains(line, "fetch.retries=2") {
		t.Fatalf("missing group-prefixed attr: %q", line)
	}
}

func TestConsoleHandlerColor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, testLevel(slog.LevelInfo), true))
	logger.Error("boom")
	if !strings.Contains(buf.String(), "\x1b[31mERROR\x1b[0m") {
		t.Fatalf("expected colored level label: %q", buf.String())
	}
}

func TestJSONHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newJSONHandler(&buf, testLevel(slog.LevelInfo)))

	logger.Warn("rate limited", slog.Int("episode_id", 7))

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if doc["level"] != "warn" {
		t.Fatalf("unexpected level: %v", doc["level"])
	}
	if doc["msg"] != "rate limited" {
		t.Fatalf("unexpected msg: %v", doc["msg"])
	}
	if _, ok := doc["ts"]; !ok {
		t.Fatal("missing ts key")
	}
	if doc["episode_id"] != float64(7) {
		t.Fatalf("unexpected attr: %v", doc["episode_id"])
	}
}

func TestNewWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Options{Level: "debug", Format: "json", LogDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hello")

	data, err := os.ReadFile(filepath.Join(dir, "rbtv.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("log file missing record: %q", data)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
