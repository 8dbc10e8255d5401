package align

import (
	"github.com/pkg/errors"

	"github.com/ieee0824/transcript-go/internal/fst"
	"github.com/ieee0824/transcript-go/internal/semiring"
	"github.com/ieee0824/transcript-go/symtab"
)

// ErrEmptyLattice is returned by BuildLattice when no path from start to
// final exists under the current flags (spec.md §7 kind 3: empty
// alignment lattice). Callers are expected to log-and-skip the offending
// pair, not treat this as fatal.
var ErrEmptyLattice = errors.New("alignment: empty lattice")

// Model supplies per-multigram weights during lattice construction. A nil
// Model means "not yet trained" — arcs fall back to the uniform,
// length-weighted default spec.md §4.1 specifies.
type Model interface {
	WeightOf(id int32) (float64, bool)
}

// Builder constructs alignment lattices for (seq1, seq2) training pairs,
// interning every multigram it discovers into a single shared SymbolTable
// so ids stay stable across the whole training set (spec.md §3).
type Builder struct {
	Opts Options
	Syms *symtab.Table
}

// NewBuilder returns a Builder backed by syms, using opts for construction.
func NewBuilder(syms *symtab.Table, opts Options) *Builder {
	return &Builder{Opts: opts, Syms: syms}
}

// state index helper for the (|seq1|+1) x (|seq2|+1) grid, spec.md §3.
func gridIndex(i, j, seq2Len int) int { return i*(seq2Len+1) + j }

// BuildLattice constructs the alignment lattice for seq1/seq2 under b.Opts,
// consulting model (if non-nil) for arc weights. If the result has no
// start-to-final path and b.Opts.Grow is set, lengths are grown by one on
// each side and construction retried until a non-empty lattice is found or
// growth no longer helps (seq1_max and seq2_max both exceed the sequence
// lengths); at that point ErrEmptyLattice is returned and the pair should
// be skipped (spec.md §4.1, §7 kind 3).
func (b *Builder) BuildLattice(seq1, seq2 []string, model Model) (*fst.Fst, error) {
	opts := b.Opts
	for {
		f := b.buildOnce(seq1, seq2, opts, model)
		if !f.Empty() {
			if !opts.Seq1Del || !opts.Seq2Del {
				f.Connect()
			}
			return f, nil
		}
		if !opts.Grow || (opts.Seq1Max > len(seq1) && opts.Seq2Max > len(seq2)) {
			return nil, errors.Wrapf(ErrEmptyLattice, "seq1=%v seq2=%v", seq1, seq2)
		}
		opts.Seq1Max++
		opts.Seq2Max++
	}
}

func (b *Builder) buildOnce(seq1, seq2 []string, opts Options, model Model) *fst.Fst {
	n1, n2 := len(seq1), len(seq2)
	f := fst.New()
	for i := 0; i <= n1; i++ {
		for j := 0; j <= n2; j++ {
			f.AddState()
		}
	}
	f.SetStart(gridIndex(0, 0, n2))
	f.SetFinal(gridIndex(n1, n2, n2), semiring.Log.One())

	for i := 0; i <= n1; i++ {
		for j := 0; j <= n2; j++ {
			from := gridIndex(i, j, n2)
			for k := 0; k <= opts.Seq1Max; k++ {
				for l := 0; l <= opts.Seq2Max; l++ {
					if k == 0 && l == 0 {
						continue
					}
					if k == 0 && !opts.Seq1Del {
						continue
					}
					if l == 0 && !opts.Seq2Del {
						continue
					}
					if k >= 2 && l >= 2 && opts.Restrict {
						continue
					}
					if i+k > n1 || j+l > n2 {
						continue
					}
					mg := symtab.Multigram{}
					if k == 0 {
						mg.Left = []string{symtab.SkipSymbol}
					} else {
						mg.Left = append(mg.Left, seq1[i:i+k]...)
					}
					if l == 0 {
						mg.Right = []string{symtab.SkipSymbol}
					} else {
						mg.Right = append(mg.Right, seq2[j:j+l]...)
					}
					id := b.Syms.InternMultigram(mg)
					w := defaultWeight(k, l)
					if model != nil {
						if mw, ok := model.WeightOf(id); ok {
							w = mw
						}
					}
					to := gridIndex(i+k, j+l, n2)
					f.AddArc(from, fst.Arc{ILabel: id, OLabel: id, Weight: w, To: to})
				}
			}
		}
	}
	return f
}

// defaultWeight is the uniform, length-weighted initial weight spec.md
// §4.1 specifies for construction before any model exists: LogOne + (k+l),
// i.e. k+l in -log space since LogOne is 0 — longer subsequences start out
// more expensive, biasing EM's first iteration towards short multigrams.
func defaultWeight(k, l int) float64 {
	return semiring.Log.One() + float64(k+l)
}
