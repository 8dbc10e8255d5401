// Package em implements the many-to-many EM alignment trainer: given a
// training set of lattices built by package align, it runs
// expectation-maximization to convergence and produces an AlignmentModel
// (spec.md §4.2, EMAligner). The forward-backward shape is grounded on the
// teacher's acoustic/baumwelch.go Baum-Welch trainer, generalized from
// Gaussian-emission HMMs to the discrete multigram lattices package align
// builds, and its convergence-loop idiom (MaxIterations,
// ConvergenceThresh, DefaultTrainingConfig) is carried over directly.
package em

import (
	"math"

	"github.com/ieee0824/transcript-go/align"
	"github.com/ieee0824/transcript-go/internal/semiring"
	"github.com/ieee0824/transcript-go/symtab"
)

// AlignmentModel maps multigram id to its Log-semiring weight
// (negative-log probability), per spec.md §3. It also owns the running
// accumulator used during expectation and the shared penalty table used
// when penalize_em is enabled.
type AlignmentModel struct {
	Syms    *symtab.Table
	weights map[int32]float64 // model[id], final (post-maximization) weights
	accum   map[int32]float64 // prev_model[id], expectation accumulator
	total   float64
	penalty *align.PenaltyTable
}

// NewAlignmentModel returns an empty model rooted on syms.
func NewAlignmentModel(syms *symtab.Table) *AlignmentModel {
	return &AlignmentModel{
		Syms:    syms,
		weights: make(map[int32]float64),
		accum:   make(map[int32]float64),
		penalty: align.NewPenaltyTable(),
	}
}

// WeightOf implements align.Model: lattice construction consults the
// current (possibly still-training) weights.
func (m *AlignmentModel) WeightOf(id int32) (float64, bool) {
	w, ok := m.weights[id]
	return w, ok
}

// register records id's construction-time weight into the expectation
// accumulator, the uniform initial distribution step in spec.md §4.2.1.
func (m *AlignmentModel) register(id int32, w float64) {
	if _, ok := m.accum[id]; !ok {
		m.accum[id] = 0
	}
	m.accum[id] += math.Exp(-w)
	m.total += math.Exp(-w)
}

// accumulate adds gamma (a linear-domain posterior mass, not a log weight)
// into the expectation accumulator for id, NaN-guarding per spec.md §4.2
// step 2(a).
func (m *AlignmentModel) accumulate(id int32, gamma float64) {
	if math.IsNaN(gamma) || math.IsInf(gamma, 0) {
		return
	}
	m.accum[id] += gamma
	m.total += gamma
}

// maximize divides every accumulated value by total to produce new
// Log-semiring weights, then zeroes the accumulator for the next
// iteration (spec.md §4.2 step 2(b)).
func (m *AlignmentModel) maximize() {
	if m.total <= 0 {
		m.total = 1
	}
	for id, acc := range m.accum {
		p := acc / m.total
		w := semiring.LogZero
		if p > 0 {
			w = -math.Log(p)
		}
		m.weights[id] = semiring.Clamp(w, 99)
	}
	m.accum = make(map[int32]float64)
	m.total = 0
}

// SetWeight installs w directly as id's trained weight, bypassing
// expectation/maximization entirely. Used by package model when loading a
// previously trained model back off disk.
func (m *AlignmentModel) SetWeight(id int32, w float64) {
	m.weights[id] = semiring.Clamp(w, 99)
}

// Weights returns a snapshot of the trained model's id->weight map.
func (m *AlignmentModel) Weights() map[int32]float64 {
	out := make(map[int32]float64, len(m.weights))
	for k, v := range m.weights {
		out[k] = v
	}
	return out
}

// Merge folds other's trained weights into m's expectation accumulator,
// adding exp(-weight) per id as linear-domain mass. This supplements spec.md's single-
// threaded Train with the sharded-training path §5 describes as an
// optional parallel optimization: train disjoint shards independently,
// merge, then run one shared maximization.
func (m *AlignmentModel) Merge(other *AlignmentModel) {
	for id, w := range other.weights {
		m.accum[id] += math.Exp(-w)
		m.total += math.Exp(-w)
	}
}

// ProbMassTotal returns Σ exp(-weight) over all trained ids, used by the
// round-trip invariant in spec.md §8 ("sums to 1 ± δ after maximization").
func (m *AlignmentModel) ProbMassTotal() float64 {
	var sum float64
	for _, w := range m.weights {
		sum += math.Exp(-w)
	}
	return sum
}

// Penalty returns the shared penalty table (spec.md §3).
func (m *AlignmentModel) Penalty() *align.PenaltyTable { return m.penalty }
