package symtab

import "testing"

func TestInternIsStable(t *testing.T) {
	tab := New()
	id1 := tab.Intern("c}K")
	id2 := tab.Intern("c}K")
	if id1 != id2 {
		t.Fatalf("re-interning the same symbol produced different ids: %d vs %d", id1, id2)
	}
	if sym := tab.Symbol(id1); sym != "c}K" {
		t.Fatalf("Symbol(%d) = %q, want c}K", id1, sym)
	}
}

func TestReservedSentinels(t *testing.T) {
	tab := New()
	if id, ok := tab.Find(EpsSymbol); !ok || id != Eps {
		t.Fatalf("eps sentinel not at reserved id 0")
	}
	if id, ok := tab.Find(SkipSymbol); !ok || id != Skip {
		t.Fatalf("skip sentinel not at reserved id 2")
	}
}

func TestCopyIsIndependent(t *testing.T) {
	tab := New()
	tab.Intern("a}b")
	c := tab.Copy()
	c.Intern("x}y")
	if _, ok := tab.Find("x}y"); ok {
		t.Fatalf("mutating a copy leaked into the original table")
	}
}

func TestMultigramRoundTrip(t *testing.T) {
	m := Multigram{Left: []string{"a", "b"}, Right: []string{"p", "r"}}
	label := m.Label()
	if label != "a|b}p|r" {
		t.Fatalf("Label() = %q, want a|b}p|r", label)
	}
	parsed, ok := ParseMultigram(label)
	if !ok {
		t.Fatalf("ParseMultigram failed to parse %q", label)
	}
	if len(parsed.Left) != 2 || len(parsed.Right) != 2 {
		t.Fatalf("parsed multigram has wrong shape: %+v", parsed)
	}
}

func TestMultigramSkipSide(t *testing.T) {
	m := Multigram{Left: []string{"c"}, Right: []string{SkipSymbol}}
	parsed, ok := ParseMultigram(m.Label())
	if !ok || !parsed.IsRightSkip() {
		t.Fatalf("expected right side to parse back as skip, got %+v", parsed)
	}
}
