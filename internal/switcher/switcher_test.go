package switcher

import (
	"testing"

	"deckmux/internal/engine"
)

func TestRankOrdersBestMatchFirst(t *testing.T) {
	entries := []engine.SwitcherEntry{
		{ID: 1, Name: "frontend", Cwd: "/repo/web", Notes: ""},
		{ID: 2, Name: "backend", Cwd: "/repo/api", Notes: "fix auth bug"},
		{ID: 3, Name: "scratch", Cwd: "/tmp", Notes: ""},
	}

	ranked := New().Rank("auth", entries)
	if len(ranked) == 0 || ranked[0] != 2 {
		t.Fatalf("ranked = %v, want session 2 (auth match) first", ranked)
	}
}

func TestRankEmptyQueryReturnsOriginalOrder(t *testing.T) {
	entries := []engine.SwitcherEntry{{ID: 1}, {ID: 2}, {ID: 3}}
	ranked := New().Rank("", entries)
	if len(ranked) != 3 || ranked[0] != 1 || ranked[2] != 3 {
		t.Fatalf("ranked = %v, want original order", ranked)
	}
}

func TestRankNoMatchesReturnsEmpty(t *testing.T) {
	entries := []engine.SwitcherEntry{{ID: 1, Name: "zzz"}}
	ranked := New().Rank("qqqqq-no-match-xyz", entries)
	if len(ranked) != 0 {
		t.Fatalf("ranked = %v, want empty", ranked)
	}
}
