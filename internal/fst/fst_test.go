package fst

import (
	"math"
	"testing"

	"github.com/ieee0824/transcript-go/internal/semiring"
)

func linearChain(weights ...float64) *Fst {
	f := New()
	s := f.AddState()
	f.SetStart(s)
	for _, w := range weights {
		next := f.AddState()
		f.AddArc(s, Arc{ILabel: 1, OLabel: 1, Weight: w, To: next})
		s = next
	}
	f.SetFinal(s, 0)
	return f
}

func TestShortestDistanceLinearChain(t *testing.T) {
	f := linearChain(1.0, 2.0, 3.0)
	d := ShortestDistance(f, semiring.Tropical, true)
	if got := d[len(d)-1]; got != 6.0 {
		t.Fatalf("forward distance to final = %v, want 6.0", got)
	}
	b := ShortestDistance(f, semiring.Tropical, false)
	if got := b[0]; got != 6.0 {
		t.Fatalf("backward distance from start = %v, want 6.0", got)
	}
}

func TestShortestPathPicksCheaperBranch(t *testing.T) {
	f := New()
	s0 := f.AddState()
	s1 := f.AddState()
	s2 := f.AddState()
	fin := f.AddState()
	f.SetStart(s0)
	f.AddArc(s0, Arc{ILabel: 1, OLabel: 1, Weight: 0.5, To: s1})
	f.AddArc(s0, Arc{ILabel: 2, OLabel: 2, Weight: 3.0, To: s2})
	f.AddArc(s1, Arc{ILabel: 3, OLabel: 3, Weight: 0.1, To: fin})
	f.AddArc(s2, Arc{ILabel: 3, OLabel: 3, Weight: 0.1, To: fin})
	f.SetFinal(fin, 0)

	best := ShortestPath(f)
	if best.NumStates() != 3 {
		t.Fatalf("expected a 3-state linear chain, got %d states", best.NumStates())
	}
	first := best.States[0].Arcs[0]
	if first.ILabel != 1 {
		t.Fatalf("expected the cheap branch (ilabel 1), got ilabel %d", first.ILabel)
	}
}

func TestConnectRemovesDeadStates(t *testing.T) {
	f := New()
	s0 := f.AddState()
	s1 := f.AddState()
	dead := f.AddState()
	f.SetStart(s0)
	f.AddArc(s0, Arc{ILabel: 1, OLabel: 1, Weight: 0, To: s1})
	f.AddArc(s0, Arc{ILabel: 2, OLabel: 2, Weight: 0, To: dead})
	f.SetFinal(s1, 0)

	f.Connect()
	if f.NumStates() != 2 {
		t.Fatalf("expected dead state removed, got %d states", f.NumStates())
	}
}

func TestEmptyFstHasNoPath(t *testing.T) {
	f := New()
	s := f.AddState()
	f.SetStart(s)
	if !f.Empty() {
		t.Fatalf("fst with no final state should be empty")
	}
}

func TestPushNormalizesFinal(t *testing.T) {
	f := New()
	s0 := f.AddState()
	s1 := f.AddState()
	f.SetStart(s0)
	f.AddArc(s0, Arc{ILabel: 1, OLabel: 1, Weight: 1.0, To: s1})
	f.SetFinal(s1, 2.0)

	Push(f, semiring.Log, true)
	if f.States[s1].Final != semiring.Log.One() {
		t.Fatalf("final weight after push+normalize = %v, want %v", f.States[s1].Final, semiring.Log.One())
	}
	if math.Abs(f.States[s0].Arcs[0].Weight-3.0) > 1e-9 {
		t.Fatalf("pushed arc weight = %v, want 3.0", f.States[s0].Arcs[0].Weight)
	}
}

func TestComposeMatchesSharedLabels(t *testing.T) {
	left := New()
	l0 := left.AddState()
	l1 := left.AddState()
	left.SetStart(l0)
	left.AddArc(l0, Arc{ILabel: 1, OLabel: 10, Weight: 0.5, To: l1})
	left.SetFinal(l1, 0)

	right := New()
	r0 := right.AddState()
	r1 := right.AddState()
	right.SetStart(r0)
	right.AddArc(r0, Arc{ILabel: 10, OLabel: 20, Weight: 0.25, To: r1})
	right.SetFinal(r1, 0)

	out := Compose(left, right, semiring.Tropical)
	if out.Empty() {
		t.Fatalf("composition should accept the shared-label path")
	}
	d := ShortestDistance(out, semiring.Tropical, true)
	total := ShortestDistance(out, semiring.Tropical, false)[out.Start]
	_ = d
	if math.Abs(total-0.75) > 1e-9 {
		t.Fatalf("composed weight = %v, want 0.75", total)
	}
}
