package prune

import (
	"math"
	"testing"

	"github.com/ieee0824/transcript-go/internal/fst"
	"github.com/ieee0824/transcript-go/internal/semiring"
	"github.com/ieee0824/transcript-go/symtab"
)

func build2PathLattice(syms *symtab.Table, cheap, costly float64) *fst.Fst {
	f := fst.New()
	s0 := f.AddState()
	s1 := f.AddState()
	fin := f.AddState()
	f.SetStart(s0)
	id1 := syms.Intern("a}p")
	id2 := syms.Intern("b}q")
	f.AddArc(s0, fst.Arc{ILabel: id1, OLabel: id1, Weight: cheap, To: s1})
	f.AddArc(s0, fst.Arc{ILabel: id2, OLabel: id2, Weight: costly, To: s1})
	f.AddArc(s1, fst.Arc{ILabel: id1, OLabel: id1, Weight: 0, To: fin})
	f.SetFinal(fin, 0)
	return f
}

func TestNBest1SelectsShortestPath(t *testing.T) {
	syms := symtab.New()
	f := build2PathLattice(syms, 2.3, 3.1)
	p := New(syms)
	out := p.Prune(f, Options{NBest: 1, Beam: math.Inf(1)})
	total := fst.ShortestDistance(out, semiring.Tropical, false)[out.Start]
	if math.Abs(total-2.3) > 1e-9 {
		t.Fatalf("1-best weight = %v, want 2.3", total)
	}
}

func TestNBest0ReturnsEmpty(t *testing.T) {
	syms := symtab.New()
	f := build2PathLattice(syms, 2.3, 3.1)
	p := New(syms)
	out := p.Prune(f, Options{NBest: 0, Beam: math.Inf(1)})
	if !out.Empty() {
		t.Fatalf("nbest=0 should yield an empty result")
	}
}

func TestBeamPruneRemovesDistantPaths(t *testing.T) {
	syms := symtab.New()
	f := build2PathLattice(syms, 2.3, 10.0)
	p := New(syms)
	out := p.Prune(f, Options{NBest: 2, Beam: 1.0})
	// Only the cheap path should survive a tight beam.
	if out.NumStates() == 0 {
		t.Fatalf("expected at least the cheap path to survive")
	}
	costlyID, _ := syms.Find("b}q")
	for _, st := range out.States {
		for _, a := range st.Arcs {
			if a.ILabel == costlyID {
				t.Fatalf("the costly b}q arc survived a beam of 1.0")
			}
		}
	}
}
