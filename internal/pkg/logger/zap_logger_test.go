package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLogFile(t *testing.T, lines string) *ZapLogger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte(lines), 0644); err != nil {
		t.Fatalf("failed to write log file: %v", err)
	}
	return &ZapLogger{filePath: path}
}

func TestGetLogsReturnsNewestFirstAndFilters(t *testing.T) {
	l := writeLogFile(t, `{"level":"INFO","timestamp":"2026-08-28T10:00:00","message":"first","module":"ConsultationService"}
{"level":"WARN","timestamp":"2026-08-28T10:00:01","message":"second","module":"BillingService"}
not a json line
{"level":"INFO","timestamp":"2026-08-28T10:00:02","message":"third","module":"ConsultationService","details":{"user_id":"u1"}}
`)

	entries, err := l.GetLogs("", 10, 0)
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3 (malformed line skipped)", len(entries))
	}
	if entries[0].Message != "third" || entries[2].Message != "first" {
		t.Errorf("entries not newest first: %q ... %q", entries[0].Message, entries[2].Message)
	}
	if entries[0].Details["user_id"] != "u1" {
		t.Errorf("details not parsed: %v", entries[0].Details)
	}

	warns, err := l.GetLogs("WARN", 10, 0)
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	if len(warns) != 1 || warns[0].Message != "second" {
		t.Errorf("level filter returned %v, want just the WARN entry", warns)
	}
}

func TestGetLogsPaginates(t *testing.T) {
	l := writeLogFile(t, `{"level":"INFO","message":"a"}
{"level":"INFO","message":"b"}
{"level":"INFO","message":"c"}
`)

	page, err := l.GetLogs("", 1, 1)
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	if len(page) != 1 || page[0].Message != "b" {
		t.Errorf("page = %v, want the middle entry", page)
	}

	past, err := l.GetLogs("", 10, 50)
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	if len(past) != 0 {
		t.Errorf("offset past the end returned %d entries, want 0", len(past))
	}
}

func TestGetLogByIdFindsSynthesizedId(t *testing.T) {
	l := writeLogFile(t, `{"level":"INFO","message":"needle"}
{"level":"INFO","message":"other"}
`)

	entries, err := l.GetLogs("", 10, 0)
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	var id string
	for _, e := range entries {
		if e.Message == "needle" {
			id = e.Id
		}
	}
	if id == "" {
		t.Fatal("no synthesized id on the entry")
	}

	entry, err := l.GetLogById(id)
	if err != nil {
		t.Fatalf("GetLogById returned error: %v", err)
	}
	if entry.Message != "needle" {
		t.Errorf("GetLogById returned %q, want %q", entry.Message, "needle")
	}

	if _, err := l.GetLogById("does-not-exist"); err == nil {
		t.Error("expected an error for an unknown id")
	}
}

func TestGetLogsMissingFileIsEmpty(t *testing.T) {
	l := &ZapLogger{filePath: filepath.Join(t.TempDir(), "absent.log")}

	entries, err := l.GetLogs("", 10, 0)
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries from a missing file, want 0", len(entries))
	}
}
