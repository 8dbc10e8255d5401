package wordfsa

import (
	"testing"

	"github.com/ieee0824/transcript-go/symtab"
)

func TestBuildWordFsaEmptyLettersIsOneState(t *testing.T) {
	syms := symtab.New()
	b := NewBuilder(syms)
	f, err := b.BuildWordFsa(nil, syms, Options{})
	if err != nil {
		t.Fatalf("BuildWordFsa: %v", err)
	}
	if f.NumStates() != 1 {
		t.Fatalf("expected one state, got %d", f.NumStates())
	}
	if f.Start != 0 || !f.IsFinal(0) {
		t.Fatalf("expected state 0 to be both start and final")
	}
}

func TestBuildWordFsaAddsClusterArc(t *testing.T) {
	syms := symtab.New()
	syms.Intern("c")
	syms.Intern("h")
	syms.Intern("a")
	syms.Intern("t")
	syms.Intern("c|h") // a mined cluster, simulating what model.Clusters() would surface
	b := NewBuilder(syms)

	f, err := b.BuildWordFsa([]string{"c", "h", "a", "t"}, syms, Options{})
	if err != nil {
		t.Fatalf("BuildWordFsa: %v", err)
	}
	// Expect a direct arc from state 0 to state 2 for the "c|h" cluster,
	// in addition to the single-letter "c" arc from 0 to 1.
	var sawCluster, sawLetter bool
	chID, _ := syms.Find("c|h")
	cID, _ := syms.Find("c")
	for _, a := range f.States[0].Arcs {
		if a.ILabel == chID && a.To == 2 {
			sawCluster = true
		}
		if a.ILabel == cID && a.To == 1 {
			sawLetter = true
		}
	}
	if !sawCluster {
		t.Fatalf("expected a cluster arc for c|h from state 0 to 2")
	}
	if !sawLetter {
		t.Fatalf("expected a single-letter arc for c from state 0 to 1")
	}
}

func TestBuildWordFsaSuperfinalWrapsChain(t *testing.T) {
	syms := symtab.New()
	syms.Intern("a")
	b := NewBuilder(syms)
	f, err := b.BuildWordFsa([]string{"a"}, syms, Options{Superfinal: true})
	if err != nil {
		t.Fatalf("BuildWordFsa: %v", err)
	}
	// start -> bos -> a -> eos(final): 4 states total.
	if f.NumStates() != 4 {
		t.Fatalf("expected 4 states with superfinal wrapping, got %d", f.NumStates())
	}
	if f.Empty() {
		t.Fatalf("expected a non-empty accepting path")
	}
}
