package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_TextFormatIncludesLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Info, TextFormat)
	l.Info("compilation started")
	out := buf.String()
	if !strings.Contains(out, "[INFO ]") || !strings.Contains(out, "compilation started") {
		t.Fatalf("unexpected text log line: %q", out)
	}
}

func TestLogger_BelowMinLevelIsSuppressed(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Warn, TextFormat)
	l.Info("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below min level, got %q", buf.String())
	}
}

func TestLogger_JSONFormatIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Debug, JSONFormat)
	l.Error("emission failed", map[string]any{"func": "main"})

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line: %v\n%s", err, buf.String())
	}
	if entry.Level != "ERROR" || entry.Message != "emission failed" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Fields["func"] != "main" {
		t.Fatalf("expected field func=main, got %v", entry.Fields)
	}
}

func TestNewCompile_TagsEveryEntryWithTheSameCompileID(t *testing.T) {
	var buf bytes.Buffer
	l := NewCompile(&buf, Debug, JSONFormat)
	l.Info("stage one")
	l.Info("stage two")

	dec := json.NewDecoder(&buf)
	var first, second Entry
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode first: %v", err)
	}
	if err := dec.Decode(&second); err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if first.CompileID == "" {
		t.Fatalf("expected a non-empty compile ID")
	}
	if first.CompileID != second.CompileID {
		t.Fatalf("expected both entries to share a compile ID, got %q and %q", first.CompileID, second.CompileID)
	}
}

func TestWith_MergesFieldsAcrossParentAndChild(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Debug, JSONFormat).With(map[string]any{"stage": "ir"})
	l.Info("lowering", map[string]any{"func": "add"})

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry.Fields["stage"] != "ir" || entry.Fields["func"] != "add" {
		t.Fatalf("expected merged fields, got %v", entry.Fields)
	}
}
