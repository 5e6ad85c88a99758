package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// resetFileOutput restores the package file-output state after a test.
func resetFileOutput(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		if err := CloseFileOutput(); err != nil {
			t.Errorf("closing file output: %v", err)
		}
	})
}

func TestForServiceWritesPerServiceFile(t *testing.T) {
	dir := t.TempDir()
	resetFileOutput(t)
	EnableFileOutput(dir, slog.LevelDebug)

	log := ForService("ingest")
	log.Info("row appended", "tray", "Tray-A1")

	data, err := os.ReadFile(filepath.Join(dir, "ingest.log"))
	if err != nil {
		t.Fatalf("reading service log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, data)
	}
	if entry["msg"] != "row appended" {
		t.Errorf("msg = %v, want %q", entry["msg"], "row appended")
	}
	if entry["service"] != "ingest" {
		t.Errorf("service = %v, want %q", entry["service"], "ingest")
	}
	if entry["tray"] != "Tray-A1" {
		t.Errorf("tray = %v, want %q", entry["tray"], "Tray-A1")
	}
}

func TestForServiceSeparatesFilesPerService(t *testing.T) {
	dir := t.TempDir()
	resetFileOutput(t)
	EnableFileOutput(dir, slog.LevelDebug)

	ForService("api").Info("one")
	ForService("notify").Info("two")

	for _, name := range []string{"api.log", "notify.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected log file %s: %v", name, err)
		}
	}
}

func TestForServiceWithoutFileOutput(t *testing.T) {
	// No EnableFileOutput; the logger must still work and create no files.
	log := ForService("summary")
	log.Info("no file sink")

	if _, err := os.Stat("summary.log"); !os.IsNotExist(err) {
		t.Errorf("unexpected summary.log in working directory (err=%v)", err)
	}
}

func TestCloseFileOutputDisablesFileSink(t *testing.T) {
	dir := t.TempDir()
	resetFileOutput(t)
	EnableFileOutput(dir, slog.LevelDebug)

	ForService("api").Info("before close")
	if err := CloseFileOutput(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// After close, new loggers go to stdout only.
	ForService("relay").Info("after close")
	if _, err := os.Stat(filepath.Join(dir, "relay.log")); !os.IsNotExist(err) {
		t.Errorf("relay.log created after CloseFileOutput (err=%v)", err)
	}
}

func TestLevelNameReplacement(t *testing.T) {
	attr := replaceLevelNames(nil, slog.Any(slog.LevelKey, LevelFatal))
	if got := attr.Value.String(); got != "FATAL" {
		t.Errorf("LevelFatal rendered as %q, want FATAL", got)
	}
	attr = replaceLevelNames(nil, slog.Any(slog.LevelKey, LevelTrace))
	if got := attr.Value.String(); got != "TRACE" {
		t.Errorf("LevelTrace rendered as %q, want TRACE", got)
	}
}
