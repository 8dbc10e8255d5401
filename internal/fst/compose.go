package fst

import "github.com/ieee0824/transcript-go/internal/semiring"

// composeState pairs a state of each input Fst. It carries no
// epsilon-filter state, so where f1 has output epsilons and f2 has input
// epsilons at the same state pair, both orders of taking them are kept as
// separate paths; the word FSA has no epsilon arcs, so this does not arise
// when decoding.
type composeState struct {
	s1, s2 int
}

// Compose builds the standard epsilon composition of f1 (left, matched on
// its output tape) with f2 (right, matched on its input tape), the
// operation spec.md §4.6 step 1 performs between the input word FSA and
// the joint model WFST. Matching is a simple linear scan per state; the
// joint model is expected to be small enough (a compiled n-gram over a
// multigram alphabet for one word's lattice) that sorting matchers would
// not pay for themselves at this scale.
func Compose(f1, f2 *Fst, w semiring.Weight) *Fst {
	out := New()
	if f1.Start == NoStateId || f2.Start == NoStateId {
		return out
	}

	index := map[composeState]int{}
	get := func(cs composeState) int {
		if id, ok := index[cs]; ok {
			return id
		}
		id := out.AddState()
		index[cs] = id
		return id
	}

	start := composeState{f1.Start, f2.Start}
	startID := get(start)
	out.SetStart(startID)

	queue := []composeState{start}
	visited := map[composeState]bool{start: true}

	for len(queue) > 0 {
		cs := queue[0]
		queue = queue[1:]
		sid := index[cs]

		if f1.IsFinal(cs.s1) && f2.IsFinal(cs.s2) {
			out.SetFinal(sid, w.Times(f1.States[cs.s1].Final, f2.States[cs.s2].Final))
		}

		// Non-epsilon matches: f1's olabel against f2's ilabel.
		for _, a1 := range f1.States[cs.s1].Arcs {
			if a1.OLabel == 0 {
				continue
			}
			for _, a2 := range f2.States[cs.s2].Arcs {
				if a2.ILabel != a1.OLabel {
					continue
				}
				next := composeState{a1.To, a2.To}
				nid := get(next)
				out.AddArc(sid, Arc{
					ILabel: a1.ILabel,
					OLabel: a2.OLabel,
					Weight: w.Times(a1.Weight, a2.Weight),
					To:     nid,
				})
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		// Epsilon on f1's output tape: stay on f2, advance f1.
		for _, a1 := range f1.States[cs.s1].Arcs {
			if a1.OLabel != 0 {
				continue
			}
			next := composeState{a1.To, cs.s2}
			nid := get(next)
			out.AddArc(sid, Arc{ILabel: a1.ILabel, OLabel: 0, Weight: a1.Weight, To: nid})
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
		// Epsilon on f2's input tape: stay on f1, advance f2. This is how
		// a joint model's epsilon back-off arcs (composition mode
		// fsa_eps, spec.md §6) are carried through unmodified.
		for _, a2 := range f2.States[cs.s2].Arcs {
			if a2.ILabel != 0 {
				continue
			}
			next := composeState{cs.s1, a2.To}
			nid := get(next)
			out.AddArc(sid, Arc{ILabel: 0, OLabel: a2.OLabel, Weight: a2.Weight, To: nid})
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	return out
}
