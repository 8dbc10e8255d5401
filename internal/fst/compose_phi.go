package fst

import "github.com/ieee0824/transcript-go/internal/semiring"

// ComposeWithPhi composes f1 against f2 exactly as Compose does, but adds a
// PhiMatcher fallback on f2's side: whenever f2's current state has no arc
// whose input label matches the label f1 is trying to advance on, and f2
// has an outgoing arc labelled phiLabel, that phi arc is taken instead
// without consuming any of f1's tape (spec.md §9's PhiMatcher variant,
// backing the decoder's fsa_phi and fst_phi composition modes, spec.md §6).
// Phi transitions may chain (a phi state can itself only have a phi arc),
// so the matcher follows the chain until a concrete match is found or no
// further phi arc exists.
func ComposeWithPhi(f1, f2 *Fst, phiLabel int32, w semiring.Weight) *Fst {
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

	// resolveState follows phi arcs from s2 looking for one with a
	// concrete (non-phi) arc matching want, accumulating the phi weight
	// paid along the way. Returns the resolved state and accumulated
	// weight; ok is false if no match exists anywhere along the chain.
	resolve := func(s2 int, want int32) (state int, weight float64, ok bool) {
		cur := s2
		acc := w.One()
		seen := map[int]bool{}
		for {
			if seen[cur] {
				return 0, 0, false
			}
			seen[cur] = true
			for _, a := range f2.States[cur].Arcs {
				if a.ILabel == want {
					return cur, acc, true
				}
			}
			var next = -1
			var phiW float64
			for _, a := range f2.States[cur].Arcs {
				if a.ILabel == phiLabel {
					next = a.To
					phiW = a.Weight
					break
				}
			}
			if next == -1 {
				return 0, 0, false
			}
			acc = w.Times(acc, phiW)
			cur = next
		}
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

		for _, a1 := range f1.States[cs.s1].Arcs {
			if a1.OLabel == 0 {
				// Epsilon on f1's output tape: stay on f2, advance f1.
				next := composeState{a1.To, cs.s2}
				nid := get(next)
				out.AddArc(sid, Arc{ILabel: a1.ILabel, OLabel: 0, Weight: a1.Weight, To: nid})
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
				continue
			}
			resolved, phiW, ok := resolve(cs.s2, a1.OLabel)
			if !ok {
				continue
			}
			for _, a2 := range f2.States[resolved].Arcs {
				if a2.ILabel != a1.OLabel {
					continue
				}
				next := composeState{a1.To, a2.To}
				nid := get(next)
				out.AddArc(sid, Arc{
					ILabel: a1.ILabel,
					OLabel: a2.OLabel,
					Weight: w.Times(w.Times(a1.Weight, phiW), a2.Weight),
					To:     nid,
				})
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		// Epsilon on f2's input tape: stay on f1, advance f2.
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
