package align

import (
	"testing"

	"github.com/ieee0824/transcript-go/symtab"
)

func TestBuildLatticeEqualLengthCanonical(t *testing.T) {
	syms := symtab.New()
	b := NewBuilder(syms, Options{Seq1Max: 1, Seq2Max: 1, Restrict: true})
	f, err := b.BuildLattice([]string{"c", "a", "t"}, []string{"K", "AE", "T"}, nil)
	if err != nil {
		t.Fatalf("BuildLattice: %v", err)
	}
	if f.Empty() {
		t.Fatalf("canonical 1-1 lattice should not be empty")
	}
	// Exactly 4 states (grid (3+1)x(3+1) but seq1_max=seq2_max=1, no
	// deletions -> a strict diagonal, so only the 4 on-diagonal states are
	// reachable/co-reachable).
	f.Connect()
	if f.NumStates() != 4 {
		t.Fatalf("expected 4 states on the canonical diagonal, got %d", f.NumStates())
	}
}

func TestBuildLatticeUnequalLengthNoDeletionIsEmpty(t *testing.T) {
	syms := symtab.New()
	b := NewBuilder(syms, Options{Seq1Max: 1, Seq2Max: 1, Restrict: true, Grow: false})
	_, err := b.BuildLattice([]string{"p", "h"}, []string{"F"}, nil)
	if err == nil {
		t.Fatalf("expected ErrEmptyLattice for unequal lengths with deletions disabled")
	}
}

func TestBuildLatticeGrowRecovers(t *testing.T) {
	syms := symtab.New()
	b := NewBuilder(syms, Options{Seq1Max: 1, Seq2Max: 1, Grow: true})
	f, err := b.BuildLattice([]string{"p", "h"}, []string{"F"}, nil)
	if err != nil {
		t.Fatalf("BuildLattice with grow=true should recover: %v", err)
	}
	if f.Empty() {
		t.Fatalf("grown lattice should not be empty")
	}
}

func TestRestrictForbidsManyToMany(t *testing.T) {
	syms := symtab.New()
	b := NewBuilder(syms, Options{Seq1Max: 2, Seq2Max: 2, Restrict: true})
	f := b.buildOnce([]string{"p", "h"}, []string{"F", "F"}, b.Opts, nil)
	for _, st := range f.States {
		for _, a := range st.Arcs {
			mg, ok := symtab.ParseMultigram(syms.Symbol(a.ILabel))
			if !ok {
				continue
			}
			if len(mg.Left) >= 2 && len(mg.Right) >= 2 {
				t.Fatalf("restrict=true allowed a many-to-many arc: %+v", mg)
			}
		}
	}
}
