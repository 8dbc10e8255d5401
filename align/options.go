// Package align builds, for a single (seq1, seq2) training pair, the
// lattice of all legal many-to-many alignment operations (spec.md §4.1,
// AlignmentBuilder). Grounded on the teacher's grid-shaped HMM lattice
// construction (acoustic/hmm.go's left-to-right state machine, generalized
// from a fixed 5-state phoneme topology to an arbitrary (|seq1|+1)x(|seq2|+1)
// grid) and its log-domain weight conventions (internal/mathutil).
package align

import "github.com/ieee0824/transcript-go/symtab"

// Options configures lattice construction: the maximum subsequence length
// on each side, whether null-deletions are allowed on each side, the
// restriction against simultaneous many-to-many (k>1 && l>1) arcs, and
// whether construction should grow the max lengths on failure.
type Options struct {
	Seq1Max  int // max letters consumed per arc
	Seq2Max  int // max phones consumed per arc
	Seq1Del  bool // allow (k, 0) null-deletion arcs on the letter side
	Seq2Del  bool // allow (0, l) null-deletion arcs on the phone side
	Restrict bool // forbid k>1 && l>1 arcs
	Grow     bool // on an empty lattice, retry with seq1_max+1, seq2_max+1
}

// DefaultOptions mirrors the values used in spec.md §8's worked end-to-end
// scenarios.
func DefaultOptions() Options {
	return Options{
		Seq1Max:  2,
		Seq2Max:  2,
		Seq1Del:  true,
		Seq2Del:  true,
		Restrict: true,
		Grow:     true,
	}
}

// PenaltyEntry caches the per-multigram properties spec.md §3's penalty
// table defines, populated once per id on first sight.
type PenaltyEntry struct {
	LHS        int
	RHS        int
	Max        int
	Sum        int
	LHSIsSkip  bool
	RHSIsSkip  bool
}

// PenaltyTable maps multigram id to its cached PenaltyEntry. Shared between
// EMAligner's penalize_em re-weighting and LatticePruner's penalize step
// (spec.md §4.2, §4.3), since both need the same lhs/rhs shape facts.
type PenaltyTable struct {
	entries map[int32]PenaltyEntry
}

// NewPenaltyTable returns an empty table.
func NewPenaltyTable() *PenaltyTable {
	return &PenaltyTable{entries: make(map[int32]PenaltyEntry)}
}

// Entry returns the cached entry for id, computing and caching it from tab
// on first sight.
func (p *PenaltyTable) Entry(id int32, tab *symtab.Table) PenaltyEntry {
	if e, ok := p.entries[id]; ok {
		return e
	}
	mg, _ := symtab.ParseMultigram(tab.Symbol(id))
	e := PenaltyEntry{
		LHS:       len(mg.Left),
		RHS:       len(mg.Right),
		LHSIsSkip: mg.IsLeftSkip(),
		RHSIsSkip: mg.IsRightSkip(),
	}
	if e.LHS > e.RHS {
		e.Max = e.LHS
	} else {
		e.Max = e.RHS
	}
	e.Sum = e.LHS + e.RHS
	p.entries[id] = e
	return e
}
