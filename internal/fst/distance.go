package fst

import "github.com/ieee0824/transcript-go/internal/semiring"

// ShortestDistance computes, for every state, the semiring-sum over all
// paths from the start state to it (forward=true) or from it to a final
// state (forward=false). This is the generic machinery behind both EM's
// alpha/beta computation (Log semiring) and the decoder's forward-distance
// pass (Tropical semiring, Dijkstra order — spec.md §4.6 step 2).
//
// The implementation is a relaxation to a fixed point rather than a single
// topological or Dijkstra pass, so it is correct for both semirings and for
// both acyclic lattices (alignment grids) and the cyclic back-off arcs a
// joint n-gram WFST may contain.
func ShortestDistance(f *Fst, w semiring.Weight, forward bool) []float64 {
	if forward {
		return shortestDistanceForward(f, w)
	}
	return shortestDistanceBackward(f, w)
}

func shortestDistanceForward(f *Fst, w semiring.Weight) []float64 {
	n := f.NumStates()
	d := make([]float64, n)
	r := make([]float64, n)
	for i := range d {
		d[i] = w.Zero()
		r[i] = w.Zero()
	}
	if f.Start == NoStateId {
		return d
	}

	d[f.Start] = w.One()
	r[f.Start] = w.One()
	queue := []int{f.Start}
	inQueue := make([]bool, n)
	inQueue[f.Start] = true
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		inQueue[s] = false
		rs := r[s]
		r[s] = w.Zero()
		for _, a := range f.States[s].Arcs {
			cand := w.Times(rs, a.Weight)
			sum := w.Plus(d[a.To], cand)
			if !w.ApproxEq(sum, d[a.To], 1e-9) {
				d[a.To] = sum
				r[a.To] = w.Plus(r[a.To], cand)
				if !inQueue[a.To] {
					queue = append(queue, a.To)
					inQueue[a.To] = true
				}
			}
		}
	}
	return d
}

func shortestDistanceBackward(f *Fst, w semiring.Weight) []float64 {
	n := f.NumStates()
	d := make([]float64, n)
	r := make([]float64, n)
	for i := range d {
		d[i] = w.Zero()
		r[i] = w.Zero()
	}

	rev := reverseAdjacency(f)
	queue := make([]int, 0, n)
	inQueue := make([]bool, n)
	for s := 0; s < n; s++ {
		if f.IsFinal(s) {
			d[s] = f.States[s].Final
			r[s] = f.States[s].Final
			queue = append(queue, s)
			inQueue[s] = true
		}
	}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		inQueue[s] = false
		rs := r[s]
		r[s] = w.Zero()
		for _, ra := range rev[s] {
			cand := w.Times(rs, ra.weight)
			sum := w.Plus(d[ra.from], cand)
			if !w.ApproxEq(sum, d[ra.from], 1e-9) {
				d[ra.from] = sum
				r[ra.from] = w.Plus(r[ra.from], cand)
				if !inQueue[ra.from] {
					queue = append(queue, ra.from)
					inQueue[ra.from] = true
				}
			}
		}
	}
	return d
}

type revArc struct {
	from   int
	weight float64
}

func reverseAdjacency(f *Fst) [][]revArc {
	rev := make([][]revArc, f.NumStates())
	for s, st := range f.States {
		for _, a := range st.Arcs {
			rev[a.To] = append(rev[a.To], revArc{from: s, weight: a.Weight})
		}
	}
	return rev
}
