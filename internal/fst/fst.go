// Package fst is the generic weighted finite-state transducer core that
// spec.md treats as an externally supplied library (§2, FstCore). No repo
// in the retrieval pack vendors an FST library, so the subset of state/arc
// storage and algorithms the rest of this module actually calls is
// implemented here directly on the standard library, grounded on the
// teacher's log-domain math (internal/mathutil) and lattice-traversal style
// (acoustic/baumwelch.go, decoder/viterbi.go).
package fst

import (
	"fmt"

	"github.com/ieee0824/transcript-go/internal/semiring"
)

// NoStateId marks the absence of a start state.
const NoStateId = -1

// Arc is a single transition: consume ILabel on the input tape, emit OLabel
// on the output tape, pay Weight, move to To.
type Arc struct {
	ILabel int32
	OLabel int32
	Weight float64
	To     int
}

// State is a vector of outgoing arcs plus a final weight. A state is final
// iff Final is a semiring member (not the zero/unreachable sentinel
// Unfinal).
type State struct {
	Arcs  []Arc
	Final float64
}

// Unfinal is the sentinel final weight for non-final states.
const Unfinal = semiring.LogZero - 1

// Fst is a weighted automaton or transducer over one of the two semirings
// in package semiring. Label 0 is always epsilon.
type Fst struct {
	States []State
	Start  int
}

// New returns an empty Fst with no states and no start state.
func New() *Fst {
	return &Fst{Start: NoStateId}
}

// AddState appends a new, non-final state and returns its id.
func (f *Fst) AddState() int {
	f.States = append(f.States, State{Final: Unfinal})
	return len(f.States) - 1
}

// SetStart marks state s as the start state.
func (f *Fst) SetStart(s int) { f.Start = s }

// SetFinal marks state s as final with the given weight.
func (f *Fst) SetFinal(s int, w float64) { f.States[s].Final = w }

// IsFinal reports whether s is a final state.
func (f *Fst) IsFinal(s int) bool { return f.States[s].Final != Unfinal }

// AddArc appends an arc from state s.
func (f *Fst) AddArc(s int, a Arc) {
	f.States[s].Arcs = append(f.States[s].Arcs, a)
}

// NumStates returns the number of states in the Fst.
func (f *Fst) NumStates() int { return len(f.States) }

// Empty reports whether the Fst has no start state, or no path at all
// exists from start to a final state.
func (f *Fst) Empty() bool {
	if f.Start == NoStateId || len(f.States) == 0 {
		return true
	}
	seen := make([]bool, len(f.States))
	var stack = []int{f.Start}
	seen[f.Start] = true
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.IsFinal(s) {
			return false
		}
		for _, a := range f.States[s].Arcs {
			if !seen[a.To] {
				seen[a.To] = true
				stack = append(stack, a.To)
			}
		}
	}
	return true
}

// Connect removes states that are not on some path from Start to a final
// state, renumbering the survivors. Mirrors the Connect step the alignment
// builder applies when either deletion flag is off (spec.md §4.1).
func (f *Fst) Connect() {
	if f.Start == NoStateId {
		return
	}
	n := len(f.States)
	reachable := make([]bool, n)
	var fwd func(int)
	fwd = func(s int) {
		if reachable[s] {
			return
		}
		reachable[s] = true
		for _, a := range f.States[s].Arcs {
			fwd(a.To)
		}
	}
	fwd(f.Start)

	// Build reverse adjacency to find states that can reach a final state.
	rev := make([][]int, n)
	for s := 0; s < n; s++ {
		for _, a := range f.States[s].Arcs {
			rev[a.To] = append(rev[a.To], s)
		}
	}
	coreachable := make([]bool, n)
	var stack []int
	for s := 0; s < n; s++ {
		if f.IsFinal(s) {
			coreachable[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range rev[s] {
			if !coreachable[p] {
				coreachable[p] = true
				stack = append(stack, p)
			}
		}
	}

	keep := make([]bool, n)
	remap := make([]int, n)
	for i := range remap {
		remap[i] = -1
	}
	newStates := make([]State, 0, n)
	for s := 0; s < n; s++ {
		if reachable[s] && coreachable[s] {
			keep[s] = true
			remap[s] = len(newStates)
			newStates = append(newStates, State{Final: f.States[s].Final})
		}
	}
	for s := 0; s < n; s++ {
		if !keep[s] {
			continue
		}
		ns := remap[s]
		for _, a := range f.States[s].Arcs {
			if keep[a.To] {
				newStates[ns].Arcs = append(newStates[ns].Arcs, Arc{
					ILabel: a.ILabel, OLabel: a.OLabel, Weight: a.Weight, To: remap[a.To],
				})
			}
		}
	}
	f.States = newStates
	if f.Start != NoStateId && keep[f.Start] {
		f.Start = remap[f.Start]
	} else {
		f.Start = NoStateId
	}
}

// Reverse returns a new Fst with all arcs flipped and start/final states
// swapped (a single super-start with epsilon arcs into the old final
// states, each carrying the old final weight). Used by the n-best search,
// which spec.md §4.6 specifies as operating on "the reversed composed FST".
func (f *Fst) Reverse(w semiring.Weight) *Fst {
	out := New()
	for range f.States {
		out.AddState()
	}
	superStart := out.AddState()
	out.SetStart(superStart)
	if f.Start != NoStateId {
		out.SetFinal(f.Start, w.One())
	}
	for s, st := range f.States {
		for _, a := range st.Arcs {
			out.AddArc(a.To, Arc{ILabel: a.ILabel, OLabel: a.OLabel, Weight: a.Weight, To: s})
		}
		if f.IsFinal(s) {
			out.AddArc(superStart, Arc{ILabel: 0, OLabel: 0, Weight: st.Final, To: s})
		}
	}
	return out
}

// String renders a compact AT&T-style text dump, handy in tests and debug
// logging.
func (f *Fst) String() string {
	s := fmt.Sprintf("start=%d\n", f.Start)
	for i, st := range f.States {
		for _, a := range st.Arcs {
			s += fmt.Sprintf("%d\t%d\t%d\t%d\t%g\n", i, a.To, a.ILabel, a.OLabel, a.Weight)
		}
		if f.IsFinal(i) {
			s += fmt.Sprintf("%d\t%g\n", i, st.Final)
		}
	}
	return s
}
