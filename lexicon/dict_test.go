package lexicon

import (
	"strings"
	"testing"
)

const testDict = `# toy G2P training dictionary
c a t	K AE T
p h	F
p h	P HH
`

func TestLoadDict(t *testing.T) {
	d, err := Load(strings.NewReader(testDict))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	e := d.Lookup([]string{"c", "a", "t"})
	if e == nil {
		t.Fatalf("c a t not found")
	}
	if len(e.Pronunciations) != 1 || strings.Join(e.Pronunciations[0], " ") != "K AE T" {
		t.Errorf("c a t pronunciations = %v, want [[K AE T]]", e.Pronunciations)
	}

	e = d.Lookup([]string{"p", "h"})
	if e == nil || len(e.Pronunciations) != 2 {
		t.Fatalf("p h should have 2 pronunciations, got %v", e)
	}
}

func TestDictionaryPairs(t *testing.T) {
	d, err := Load(strings.NewReader(testDict))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	pairs := d.Pairs()
	if len(pairs) != 3 {
		t.Fatalf("len(Pairs()) = %d, want 3 (1 + 2 alternative pronunciations)", len(pairs))
	}
}

func TestLookupMissing(t *testing.T) {
	d, err := Load(strings.NewReader(testDict))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if e := d.Lookup([]string{"q", "z"}); e != nil {
		t.Errorf("expected no entry for q z, got %v", e)
	}
}

func TestWords(t *testing.T) {
	d, err := Load(strings.NewReader(testDict))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	words := d.Words()
	if len(words) != 2 {
		t.Errorf("len(Words()) = %d, want 2", len(words))
	}
}
