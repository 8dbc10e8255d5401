package em

import (
	"math"

	"log/slog"

	"github.com/ieee0824/transcript-go/align"
	"github.com/ieee0824/transcript-go/internal/fst"
	"github.com/ieee0824/transcript-go/internal/semiring"
	"github.com/ieee0824/transcript-go/symtab"
)

// Pair is a single training example: a letter sequence and its
// pronunciation, already tokenized (one element per grapheme / phone).
type Pair struct {
	Seq1 []string
	Seq2 []string
}

// Skipped records a training pair the aligner could not place a lattice
// for (spec.md §7 kind 3): reported and skipped, never fatal.
type Skipped struct {
	Index int
	Pair  Pair
	Err   error
}

// Options configures the EM run.
type Options struct {
	Align      align.Options
	Iterations int
	Epsilon    float64 // convergence threshold on |Δtotal|
	PenalizeEM bool    // spec.md §4.2 step 2(b)
	Logger     *slog.Logger
}

// DefaultOptions mirrors spec.md §8's worked scenarios.
func DefaultOptions() Options {
	return Options{
		Align:      align.DefaultOptions(),
		Iterations: 5,
		Epsilon:    1e-4,
		PenalizeEM: true,
		Logger:     slog.Default(),
	}
}

// Trainer owns the full training set of alignment lattices and the
// AlignmentModel, and runs expectation-maximization to convergence
// (spec.md §4.2, EMAligner).
type Trainer struct {
	Syms    *symtab.Table
	Model   *AlignmentModel
	Opts    Options
	lattices []*fst.Fst
	Skipped []Skipped
	// Change records |Δtotal| after each maximization step, for the
	// monotonic-non-increase invariant spec.md §8 tests.
	Change []float64
}

// NewTrainer returns a Trainer over a fresh symbol table.
func NewTrainer(opts Options) *Trainer {
	syms := symtab.New()
	return &Trainer{
		Syms:  syms,
		Model: NewAlignmentModel(syms),
		Opts:  opts,
	}
}

// Train builds a lattice per pair, establishes the initial uniform
// distribution, then runs Opts.Iterations rounds of expectation and
// maximization, halting early once |Δtotal| < Opts.Epsilon (spec.md
// §4.2). Returns the trained model; Trainer.Skipped holds any pairs whose
// lattice could not be built.
func (t *Trainer) Train(pairs []Pair) *AlignmentModel {
	log := t.Opts.Logger
	if log == nil {
		log = slog.Default()
	}
	builder := align.NewBuilder(t.Syms, t.Opts.Align)

	t.lattices = t.lattices[:0]
	for idx, p := range pairs {
		f, err := builder.BuildLattice(p.Seq1, p.Seq2, nil)
		if err != nil {
			t.Skipped = append(t.Skipped, Skipped{Index: idx, Pair: p, Err: err})
			log.Warn("alignment: skipping unalignable pair", "index", idx, "seq1", p.Seq1, "seq2", p.Seq2, "reason", err.Error())
			continue
		}
		for _, st := range f.States {
			for _, a := range st.Arcs {
				t.Model.register(a.ILabel, a.Weight)
			}
		}
		t.lattices = append(t.lattices, f)
	}
	t.Model.maximize()
	t.rewriteAll()

	prevTotal := 0.0
	for iter := 0; iter < t.Opts.Iterations; iter++ {
		t.expectation()
		total := t.Model.total
		t.Model.maximize()
		t.rewriteAll()

		change := math.Abs(total - prevTotal)
		t.Change = append(t.Change, change)
		prevTotal = total
		if change < t.Opts.Epsilon {
			break
		}
	}
	return t.Model
}

// Lattices returns the per-pair alignment lattices built during Train, the
// form CorpusEmitter consumes (spec.md §4.4). Ownership passes to the
// caller once training has completed; Trainer itself does not read them
// again after Train returns.
func (t *Trainer) Lattices() []*fst.Fst {
	return t.lattices
}

// expectation runs forward-backward over every lattice in the Log
// semiring and accumulates each arc's posterior (gamma) into the model
// (spec.md §4.2 step 2(a)).
func (t *Trainer) expectation() {
	for _, f := range t.lattices {
		if f.Start == fst.NoStateId {
			continue
		}
		alpha := fst.ShortestDistance(f, semiring.Log, true)
		beta := fst.ShortestDistance(f, semiring.Log, false)
		betaStart := beta[f.Start]
		if betaStart <= semiring.LogZero {
			continue
		}
		for s, st := range f.States {
			if alpha[s] <= semiring.LogZero {
				continue
			}
			for _, a := range st.Arcs {
				if beta[a.To] <= semiring.LogZero {
					continue
				}
				logGamma := alpha[s] + a.Weight + beta[a.To] - betaStart
				gamma := math.Exp(-logGamma)
				t.Model.accumulate(a.ILabel, gamma)
			}
		}
	}
}

// rewriteAll rewrites every arc weight in every lattice from the current
// model, applying the penalize_em reweighting when enabled (spec.md §4.2
// step 2(b)).
func (t *Trainer) rewriteAll() {
	for _, f := range t.lattices {
		for s := range f.States {
			arcs := f.States[s].Arcs
			for i := range arcs {
				id := arcs[i].ILabel
				w, ok := t.Model.weights[id]
				if !ok {
					continue
				}
				if t.Opts.PenalizeEM {
					w = t.penalize(id, w)
				}
				arcs[i].Weight = w
			}
		}
	}
}

// penalize applies spec.md §4.2's penalize_em rule: multiply by
// penalty.tot (here, add in log-space since Times is addition), with a
// large finite penalty on (lhs>=2 && rhs>=2) arcs and an additional large
// penalty on NaN/LogZero results.
func (t *Trainer) penalize(id int32, w float64) float64 {
	pe := t.Model.Penalty().Entry(id, t.Syms)
	var out float64
	if pe.LHS >= 2 && pe.RHS >= 2 {
		out = 99
	} else {
		out = w + float64(pe.Sum)
	}
	return semiring.Clamp(out, 99)
}
