// Package prune implements LatticePruner (spec.md §4.3): penalize,
// forward-backward prune, beam-prune, and n-best prune a single alignment
// lattice, in that order, preserving posterior normalization when
// required. The beam-pruning step is grounded on the teacher's
// decoder/viterbi.go pruneTokens helper, generalized from a flat token
// slice to in-place Fst arc pruning.
package prune

import (
	"math"

	"github.com/ieee0824/transcript-go/align"
	"github.com/ieee0824/transcript-go/internal/fst"
	"github.com/ieee0824/transcript-go/internal/semiring"
	"github.com/ieee0824/transcript-go/symtab"
)

// Options configures a single Prune call.
type Options struct {
	Penalize        bool
	ForwardBackward bool
	Beam            float64 // math.Inf(1) disables beam pruning
	NBest           int     // 0 yields an empty Fst; a negative value skips n-best extraction
}

// Pruner applies LatticePruner.Prune to alignment lattices, consulting a
// shared PenaltyTable for the penalize step (spec.md §3).
type Pruner struct {
	Syms    *symtab.Table
	Penalty *align.PenaltyTable
}

// New returns a Pruner over syms, with its own fresh penalty table.
func New(syms *symtab.Table) *Pruner {
	return &Pruner{Syms: syms, Penalty: align.NewPenaltyTable()}
}

// Prune applies penalize, forward-backward, beam, and n-best steps to f in
// that order (spec.md §4.3). When opts.NBest == 1, the forward-backward
// and beam steps are skipped since they cannot change the argmax.
func (p *Pruner) Prune(f *fst.Fst, opts Options) *fst.Fst {
	out := cloneFst(f)

	if opts.Penalize {
		p.penalize(out)
	}

	skipFBAndBeam := opts.NBest == 1
	if opts.ForwardBackward && !skipFBAndBeam {
		fst.Push(out, semiring.Log, true)
		alpha := fst.ShortestDistance(out, semiring.Log, true)
		beta := fst.ShortestDistance(out, semiring.Log, false)
		betaStart := beta[out.Start]
		for s, st := range out.States {
			for i := range st.Arcs {
				a := &out.States[s].Arcs[i]
				if alpha[s] <= semiring.LogZero || beta[a.To] <= semiring.LogZero || betaStart <= semiring.LogZero {
					continue
				}
				logGamma := alpha[s] + a.Weight + beta[a.To] - betaStart
				a.Weight = semiring.Clamp(logGamma, 99)
			}
		}
	}

	if !math.IsInf(opts.Beam, 1) && !skipFBAndBeam {
		beamPrune(out, opts.Beam)
	}

	switch {
	case opts.NBest == 0:
		return fst.New()
	case opts.NBest == 1:
		return fst.ShortestPath(out)
	case opts.NBest > 1:
		return nBestUnion(out, opts.NBest)
	default:
		return out
	}
}

// nBestUnion extracts up to n shortest paths from f and unions them into a
// single small lattice sharing one start state (each branch keeps its own
// final state), the shape LatticePruner.Prune needs when nbest>1 (the
// surviving paths still need to be walkable as one Fst for
// CorpusEmitter.WriteArchive to push-and-normalize). After each extraction
// every arc carrying one of the path's labels gets +50 (invalidatePath);
// this does not guarantee distinct paths, and a path can be extracted again
// when the alternatives share its labels. This is a practical n-best by
// repeated single-best extraction rather than a weight-annulling n-shortest-
// distance algorithm, adequate at the per-training-pair lattice sizes this
// package operates on.
func nBestUnion(f *fst.Fst, n int) *fst.Fst {
	work := cloneFst(f)
	out := fst.New()
	start := out.AddState()
	out.SetStart(start)

	for i := 0; i < n; i++ {
		if work.Empty() {
			break
		}
		best := fst.ShortestPath(work)
		if best.NumStates() == 0 {
			break
		}
		// Splice best's linear chain (state 0..k, final at k) into out as
		// a fresh branch sharing only the start state.
		prev := start
		cur := best.Start
		for len(best.States[cur].Arcs) > 0 {
			a := best.States[cur].Arcs[0]
			next := out.AddState()
			out.AddArc(prev, fst.Arc{ILabel: a.ILabel, OLabel: a.OLabel, Weight: a.Weight, To: next})
			prev = next
			cur = a.To
		}
		out.SetFinal(prev, best.States[cur].Final)
		invalidatePath(work, best)
	}
	return out
}

// invalidatePath inflates the weight of every arc label appearing in best
// within work, so the next ShortestPath call will prefer a different path.
func invalidatePath(work *fst.Fst, best *fst.Fst) {
	labels := make(map[int32]bool)
	for _, st := range best.States {
		for _, a := range st.Arcs {
			labels[a.ILabel] = true
		}
	}
	for s := range work.States {
		arcs := work.States[s].Arcs
		for i := range arcs {
			if labels[arcs[i].ILabel] {
				arcs[i].Weight += 50
			}
		}
	}
}

// penalize rewrites each arc's weight per spec.md §3's penalty table:
// (lhs>=2 && rhs>=2) arcs receive a large finite penalty; others are
// multiplied (added, in log-space) by penalty.max. NaN and LogZero results
// are clamped.
func (p *Pruner) penalize(f *fst.Fst) {
	for s := range f.States {
		arcs := f.States[s].Arcs
		for i := range arcs {
			pe := p.Penalty.Entry(arcs[i].ILabel, p.Syms)
			var w float64
			if pe.LHS >= 2 && pe.RHS >= 2 {
				w = 99
			} else {
				w = arcs[i].Weight + float64(pe.Max)
			}
			arcs[i].Weight = semiring.Clamp(w, 99)
		}
	}
}

// beamPrune removes arcs whose endpoint state's best tropical distance to
// a final state exceeds the 1-best distance by more than beam, mirroring
// decoder/viterbi.go's pruneTokens beam cut.
func beamPrune(f *fst.Fst, beam float64) {
	beta := fst.ShortestDistance(f, semiring.Tropical, false)
	if f.Start == fst.NoStateId {
		return
	}
	best := beta[f.Start]
	if best == semiring.Tropical.Zero() {
		return
	}
	threshold := best + beam
	for s := range f.States {
		kept := f.States[s].Arcs[:0]
		for _, a := range f.States[s].Arcs {
			if beta[a.To] == semiring.Tropical.Zero() {
				continue
			}
			cost := a.Weight + beta[a.To]
			if cost <= threshold {
				kept = append(kept, a)
			}
		}
		f.States[s].Arcs = kept
	}
	f.Connect()
}

func cloneFst(f *fst.Fst) *fst.Fst {
	out := fst.New()
	for range f.States {
		out.AddState()
	}
	out.SetStart(f.Start)
	for s, st := range f.States {
		out.States[s].Final = st.Final
		out.States[s].Arcs = append([]fst.Arc(nil), st.Arcs...)
	}
	return out
}
