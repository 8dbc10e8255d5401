package fst

import "github.com/ieee0824/transcript-go/internal/semiring"

// ShortestPath extracts the single best (lowest tropical weight) path from
// f as a linear-chain Fst, by first computing backward distances and then
// greedily walking forward along arcs that lie on a shortest path. Used by
// CorpusEmitter.WriteCorpus (spec.md §4.4) and as the nbest=1 fast path of
// LatticePruner.Prune (spec.md §4.3).
func ShortestPath(f *Fst) *Fst {
	if f.Start == NoStateId || f.Empty() {
		return New()
	}
	beta := ShortestDistance(f, semiring.Tropical, false)

	out := New()
	cur := f.Start
	prevOut := out.AddState()
	out.SetStart(prevOut)
	for {
		if f.IsFinal(cur) && beta[cur] == f.States[cur].Final {
			out.SetFinal(prevOut, f.States[cur].Final)
			return out
		}
		// Ties are broken by arc order, matching the discovery-order
		// tie-break the decoder documents for n-best.
		var chosen *Arc
		bestW := semiring.Tropical.Zero()
		for i := range f.States[cur].Arcs {
			a := &f.States[cur].Arcs[i]
			if beta[a.To] == semiring.Tropical.Zero() {
				continue
			}
			cand := semiring.Tropical.Times(a.Weight, beta[a.To])
			if chosen == nil || cand < bestW {
				chosen = a
				bestW = cand
			}
		}
		if chosen == nil {
			if f.IsFinal(cur) {
				out.SetFinal(prevOut, f.States[cur].Final)
			}
			return out
		}
		nextOut := out.AddState()
		out.AddArc(prevOut, Arc{ILabel: chosen.ILabel, OLabel: chosen.OLabel, Weight: chosen.Weight, To: nextOut})
		prevOut = nextOut
		cur = chosen.To
	}
}

// Push reweights every arc from the forward (start-to-state) distances d as
// d[s] * w / d[next], which "pushes" weight towards the final states: each
// final weight becomes d[s] * final, or, when normalizeFinal is set, is
// reset to One. This is the posterior-normalization step spec.md §4.4
// describes for archive emission, and the first half of forward-backward
// pruning in §4.3.
func Push(f *Fst, w semiring.Weight, normalizeFinal bool) {
	alpha := ShortestDistance(f, w, true)
	for s := range f.States {
		d := alpha[s]
		if d == w.Zero() {
			continue
		}
		for i := range f.States[s].Arcs {
			a := &f.States[s].Arcs[i]
			nd := alpha[a.To]
			if nd == w.Zero() {
				continue
			}
			a.Weight = w.Divide(w.Times(d, a.Weight), nd)
		}
		if f.IsFinal(s) {
			if normalizeFinal {
				f.States[s].Final = w.One()
			} else {
				f.States[s].Final = w.Times(d, f.States[s].Final)
			}
		}
	}
}
