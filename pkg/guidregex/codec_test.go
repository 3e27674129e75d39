package guidregex

import (
	"reflect"
	"strings"
	"testing"
)

func TestCompileSingle(t *testing.T) {
	got := Compile([]string{"single@ext.com"})
	if !reflect.DeepEqual(got, []string{"single@ext.com"}) {
		t.Errorf("Expected single guid verbatim, got %v", got)
	}
}

func TestCompilePair(t *testing.T) {
	got := Compile([]string{"a@x.com", "b@x.com"})
	expected := []string{`/^((a@x\.com)|(b@x\.com))$/`}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestCompileEmpty(t *testing.T) {
	if got := Compile(nil); got != nil {
		t.Errorf("Expected nil for empty input, got %v", got)
	}
}

func TestCompileEscaping(t *testing.T) {
	got := Compile([]string{"{c0ffee00-dead-beef}", "plain@x.com"})
	expected := []string{`/^((\{c0ffee00-dead-beef\})|(plain@x\.com))$/`}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestCompileBoundedChunks(t *testing.T) {
	got := CompileBounded([]string{"aaa", "bbb", "ccc"}, 18)
	expected := []string{"/^((aaa)|(bbb))$/", "/^((ccc))$/"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestCompileBoundedOrderPreserved(t *testing.T) {
	guids := []string{"g1@x.com", "g2@x.com", "g3@x.com", "g4@x.com", "g5@x.com"}
	blocks := CompileBounded(guids, 40)
	var recovered []string
	for _, block := range blocks {
		recovered = append(recovered, Expand(block)...)
	}
	if !reflect.DeepEqual(recovered, guids) {
		t.Errorf("Expected guid order preserved across blocks, got %v", recovered)
	}
}

func TestCompileBoundedLengthBound(t *testing.T) {
	guids := []string{"first@x.com", "second@x.com", "third@x.com", "averyveryverylongoversizedguid@example.com"}
	maxLen := 30
	blocks := CompileBounded(guids, maxLen)
	for _, block := range blocks {
		ids := Expand(block)
		if len(block) > maxLen && len(ids) != 1 {
			t.Errorf("Block %q exceeds %d chars but holds %d guids", block, maxLen, len(ids))
		}
	}
}

func TestCompileOversizedGuidNeverDropped(t *testing.T) {
	long := strings.Repeat("x", 50) + "@ext.com"
	blocks := CompileBounded([]string{long, "small@x.com"}, 20)
	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d: %v", len(blocks), blocks)
	}
	if got := Expand(blocks[0]); !reflect.DeepEqual(got, []string{long}) {
		t.Errorf("Expected oversized guid alone in first block, got %v", got)
	}
}

func TestExpandLiteral(t *testing.T) {
	got := Expand("literal@ext.com")
	if !reflect.DeepEqual(got, []string{"literal@ext.com"}) {
		t.Errorf("Expected literal to expand to itself, got %v", got)
	}
}

func TestExpandRoundTrip(t *testing.T) {
	guids := []string{"a@x.com", "b@x.com", "{uuid-style}"}
	blocks := Compile(guids)
	if len(blocks) != 1 {
		t.Fatalf("Expected a single block, got %v", blocks)
	}
	if got := Expand(blocks[0]); !reflect.DeepEqual(got, guids) {
		t.Errorf("Expected round trip to recover %v, got %v", guids, got)
	}
}

func TestExpandDeduplicates(t *testing.T) {
	got := Expand("/^((a@x)|(b@x)|(a@x))$/")
	if !reflect.DeepEqual(got, []string{"a@x", "b@x"}) {
		t.Errorf("Expected first-seen dedup, got %v", got)
	}
}

func TestExpandBareAlternation(t *testing.T) {
	got := Expand(`/^(one@x\.com)|(two@x\.com)$/`)
	if !reflect.DeepEqual(got, []string{"one@x.com", "two@x.com"}) {
		t.Errorf("Expected bare alternation to expand, got %v", got)
	}
}

func TestExpandRejectsComplexRegex(t *testing.T) {
	tt := []struct {
		name    string
		pattern string
	}{
		{"wildcard", "/^evil.*$/"},
		{"character class", "/^((a[bc]@x))$/"},
		{"metacharacter escape", `/^((a\d+@x))$/`},
		{"unanchored", "/(a@x)|(b@x)/"},
		{"plain slash regex", "/anything-goes/"},
	}
	for _, tc := range tt {
		if got := Expand(tc.pattern); got != nil {
			t.Errorf("%s: expected nil for %q, got %v", tc.name, tc.pattern, got)
		}
	}
}
