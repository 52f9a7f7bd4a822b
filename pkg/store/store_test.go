package store

import (
	"context"
	"testing"
	"time"
)

func TestOpen_CreatesSchemaOnInMemoryDB(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	recs, err := s.History(ctx, 10)
	if err != nil {
		t.Fatalf("History on empty store: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records yet, got %d", len(recs))
	}
}

func TestRecordAndHistory_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.Record(ctx, Record{CompileID: "a", SourceHash: "h1", StartedAt: base, Result: "ok", AsmLines: 12}); err != nil {
		t.Fatalf("Record a: %v", err)
	}
	if err := s.Record(ctx, Record{CompileID: "b", SourceHash: "h2", StartedAt: base.Add(time.Minute), Result: "error", Error: "parse error", AsmLines: 0}); err != nil {
		t.Fatalf("Record b: %v", err)
	}

	recs, err := s.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].CompileID != "b" || recs[1].CompileID != "a" {
		t.Fatalf("expected newest-first ordering, got %+v", recs)
	}
	if recs[0].Error != "parse error" {
		t.Fatalf("expected error message preserved, got %q", recs[0].Error)
	}
	if recs[1].Error != "" {
		t.Fatalf("expected empty error for successful compile, got %q", recs[1].Error)
	}
}

func TestRecord_UpsertsOnDuplicateCompileID(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	now := time.Now().UTC()
	if err := s.Record(ctx, Record{CompileID: "x", SourceHash: "h", StartedAt: now, Result: "error", Error: "boom", AsmLines: 0}); err != nil {
		t.Fatalf("first Record: %v", err)
	}
	if err := s.Record(ctx, Record{CompileID: "x", SourceHash: "h", StartedAt: now, Result: "ok", AsmLines: 5}); err != nil {
		t.Fatalf("second Record: %v", err)
	}

	recs, err := s.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected the duplicate to upsert into a single row, got %d rows", len(recs))
	}
	if recs[0].Result != "ok" || recs[0].AsmLines != 5 {
		t.Fatalf("expected the second Record to win, got %+v", recs[0])
	}
}
