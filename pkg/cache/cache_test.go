package cache

import (
	"context"
	"testing"
)

func TestKey_IsStableAndContentAddressed(t *testing.T) {
	a := Key("int main() { return 0; }")
	b := Key("int main() { return 0; }")
	c := Key("int main() { return 1; }")
	if a != b {
		t.Fatalf("expected identical source to hash identically")
	}
	if a == c {
		t.Fatalf("expected different source to hash differently")
	}
}

func TestLRU_SetThenGetHits(t *testing.T) {
	l := NewLRU(2)
	l.Set("k1", "asm1")
	if v, ok := l.Get("k1"); !ok || v != "asm1" {
		t.Fatalf("expected hit for k1, got %q %v", v, ok)
	}
	if _, ok := l.Get("missing"); ok {
		t.Fatalf("expected miss for unset key")
	}
	stats := l.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	l := NewLRU(2)
	l.Set("a", "1")
	l.Set("b", "2")
	l.Get("a") // a is now most-recently-used
	l.Set("c", "3") // evicts b, not a

	if _, ok := l.Get("b"); ok {
		t.Fatalf("expected b to have been evicted")
	}
	if _, ok := l.Get("a"); !ok {
		t.Fatalf("expected a to survive eviction")
	}
	if _, ok := l.Get("c"); !ok {
		t.Fatalf("expected c to be present")
	}
	if l.Stats().Evictions != 1 {
		t.Fatalf("expected exactly one eviction, got %+v", l.Stats())
	}
}

func TestCompiled_LookupAndStoreWithoutRedisTier(t *testing.T) {
	c := NewCompiled(4, nil)
	ctx := context.Background()

	if _, ok, err := c.Lookup(ctx, "int main() { return 0; }"); ok || err != nil {
		t.Fatalf("expected a clean miss before any Store, got ok=%v err=%v", ok, err)
	}

	if err := c.Store(ctx, "int main() { return 0; }", "main:\n  li a0, 0\n  ret\n"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	asm, ok, err := c.Lookup(ctx, "int main() { return 0; }")
	if err != nil || !ok {
		t.Fatalf("expected a hit after Store, got ok=%v err=%v", ok, err)
	}
	if asm != "main:\n  li a0, 0\n  ret\n" {
		t.Fatalf("unexpected cached assembly: %q", asm)
	}
}
