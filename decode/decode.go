// Package decode implements JointDecoder (spec.md §4.6): composes a word's
// input FSA against a joint n-gram model WFST and extracts the filtered
// n-best canonical pronunciations. The reversed-lattice heap search is
// grounded on the teacher's decoder/viterbi.go token-passing beam search,
// generalized from a flat token-per-frame pass to Mohri-style n-shortest-
// path search over an explicit state graph.
package decode

import (
	"container/heap"
	"log/slog"
	"math"

	"github.com/pkg/errors"

	"github.com/ieee0824/transcript-go/internal/fst"
	"github.com/ieee0824/transcript-go/internal/semiring"
	"github.com/ieee0824/transcript-go/model"
	"github.com/ieee0824/transcript-go/symtab"
	"github.com/ieee0824/transcript-go/wordfsa"
)

// PhiLabel is the reserved failure-transition label this implementation
// uses for the fsa_phi and fst_phi composition modes (spec.md §6). The
// spec's reserved joint-model ids only name eps(0)/cluster-sep(1)/skip(2);
// a phi id is a decoder-internal convention layered on top, not part of
// the shared multigram alphabet, so it is defined here rather than in
// package symtab.
const PhiLabel int32 = 3

// PathData is one decoded pronunciation hypothesis (spec.md §3).
type PathData struct {
	Weight  float64
	ILabels []int32
	OLabels []int32
	Uniques []int32
}

// Options configures a single Phoneticize call (spec.md §4.6).
type Options struct {
	NBest          int
	Beam           float64
	Threshold      float64 // relative to the 1-best tropical weight, per spec.md §9
	Accumulate     bool
	Pmass          float64 // 1.0 disables the pmass cut
	Superfinal     bool
	Filter         PathFilter // defaults to IdentityFilter when nil
	LetterSplitter func(string) []string
}

// DefaultOptions returns the zero-cut, single-best configuration.
func DefaultOptions() Options {
	return Options{NBest: 1, Beam: math.Inf(1), Threshold: math.Inf(1), Pmass: 1.0}
}

// Decoder owns an immutably-shared joint model and mines its cluster map
// once (spec.md §5: "the joint model WFST is loaded once and immutably
// shared by all decoder instances").
type Decoder struct {
	Model   *model.JointModel
	builder *wordfsa.Builder
	Logger  *slog.Logger
}

// NewDecoder returns a Decoder over jm. A nil logger falls back to
// slog.Default().
func NewDecoder(jm *model.JointModel, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{Model: jm, builder: wordfsa.NewBuilderFromClusters(jm.Clusters()), Logger: logger}
}

// Phoneticize decodes word into up to opts.NBest ranked, filter-unique
// pronunciation hypotheses (spec.md §4.6). Configuration errors (kind 1,
// spec.md §7) are returned; everything else is handled per the recoverable
// kinds there.
func (d *Decoder) Phoneticize(word string, opts Options) ([]PathData, error) {
	if opts.NBest < 0 {
		return nil, errors.Errorf("decode: negative nbest %d", opts.NBest)
	}
	if opts.Pmass <= 0 || opts.Pmass > 1.0 {
		return nil, errors.Errorf("decode: pmass %v not in (0,1]", opts.Pmass)
	}
	if opts.NBest == 0 {
		return nil, nil
	}
	filter := opts.Filter
	if filter == nil {
		filter = IdentityFilter{}
	}
	splitter := opts.LetterSplitter
	if splitter == nil {
		splitter = wordfsa.DefaultLetterSplitter
	}

	// The decode-time symbol table is a copy rooted on the loaded one, so
	// mining per-request cluster/sentence-boundary symbols never mutates
	// the shared model table (spec.md §5).
	syms := d.Model.Syms.Copy()

	raw := splitter(word)
	letters := make([]string, 0, len(raw))
	for _, l := range raw {
		if _, ok := syms.Find(l); ok {
			letters = append(letters, l)
			continue
		}
		d.Logger.Warn("decode: unknown letter dropped", "word", word, "letter", l)
	}

	wfsa, err := d.builder.BuildWordFsa(letters, syms, wordfsa.Options{Superfinal: opts.Superfinal})
	if err != nil {
		return nil, errors.Wrap(err, "decode: build word fsa")
	}

	var composed *fst.Fst
	switch d.Model.Mode {
	case model.ModeFsaEps:
		composed = fst.Compose(wfsa, d.Model.Fst, semiring.Tropical)
	case model.ModeFsaPhi, model.ModeFstPhi:
		composed = fst.ComposeWithPhi(wfsa, d.Model.Fst, PhiLabel, semiring.Tropical)
	default:
		return nil, errors.Errorf("decode: unknown composition mode %v", d.Model.Mode)
	}

	if composed.Empty() {
		return nil, nil // spec.md §7 kind 5: no decode path is not an error
	}

	return d.nBestSearch(composed, syms, opts, filter)
}

// collected is one completed, filter-unique hypothesis still being grown by
// accumulate.
type collected struct {
	data  PathData
	order int // first-discovery index, for ascending-weight/discovery-order tie-breaks
}

// nBestSearch runs the reversed-lattice n-best search spec.md §4.6 step 3
// describes: a priority queue ordered by g(state) + h(state) where h is the
// admissible forward-distance heuristic, bounded by a per-state visit
// counter and the relative tropical threshold.
func (d *Decoder) nBestSearch(composed *fst.Fst, syms *symtab.Table, opts Options, filter PathFilter) ([]PathData, error) {
	fwd := fst.ShortestDistance(composed, semiring.Tropical, true)

	bestTotal := semiring.Tropical.Zero()
	for s, st := range composed.States {
		if !composed.IsFinal(s) {
			continue
		}
		c := semiring.Tropical.Times(fwd[s], st.Final)
		if c < bestTotal {
			bestTotal = c
		}
	}
	if bestTotal >= semiring.Tropical.Zero() {
		return nil, nil // no accepting path
	}
	limit := bestTotal + opts.Threshold

	rev := composed.Reverse(semiring.Tropical)
	superStart := rev.NumStates() - 1

	h := &pathHeap{}
	heap.Init(h)
	for _, a := range rev.States[superStart].Arcs {
		heap.Push(h, &heapItem{
			state:    a.To,
			g:        a.Weight,
			priority: a.Weight + fwd[a.To],
		})
	}

	visits := make(map[int]int)
	seen := make(map[string]int) // uniques key -> index into results
	var results []collected

	capacity := opts.NBest
	for h.Len() > 0 && len(results) < opts.NBest {
		item := heap.Pop(h).(*heapItem)
		if item.priority > limit {
			break
		}
		visits[item.state]++
		if visits[item.state] > capacity {
			continue
		}

		if item.state == composed.Start {
			fs := filter.Fresh()
			var il, ol []int32
			for i := len(item.arcs) - 1; i >= 0; i-- {
				a := item.arcs[i]
				il = append(il, a.ILabel)
				ol = append(ol, a.OLabel)
				fs.Extend(a.OLabel)
			}
			key := uniquesKey(fs.Uniques())
			if idx, ok := seen[key]; ok {
				if opts.Accumulate {
					results[idx].data.Weight = semiring.Log.Plus(results[idx].data.Weight, item.g)
				}
				// else: redundant tied variant, discarded (spec.md §4.6 step 4)
			} else {
				seen[key] = len(results)
				results = append(results, collected{
					data: PathData{
						Weight:  item.g,
						ILabels: il,
						OLabels: ol,
						Uniques: fs.Uniques(),
					},
					order: len(results),
				})
			}
			continue
		}

		for _, a := range rev.States[item.state].Arcs {
			nArcs := append(append([]fst.Arc(nil), item.arcs...), fst.Arc{
				ILabel: a.ILabel, OLabel: a.OLabel, Weight: a.Weight, To: item.state,
			})
			ng := semiring.Tropical.Times(item.g, a.Weight)
			heap.Push(h, &heapItem{
				state:    a.To,
				g:        ng,
				arcs:     nArcs,
				priority: ng + fwd[a.To],
			})
		}
	}

	out := make([]PathData, len(results))
	for i, c := range results {
		out[i] = c.data
	}
	sortPathsByWeight(out)

	if opts.Pmass < 1.0 {
		out = applyPmassCut(out, opts.Pmass)
	}
	return out, nil
}

func sortPathsByWeight(ps []PathData) {
	for i := 1; i < len(ps); i++ {
		v := ps[i]
		j := i - 1
		for j >= 0 && ps[j].Weight > v.Weight {
			ps[j+1] = ps[j]
			j--
		}
		ps[j+1] = v
	}
}

// applyPmassCut implements spec.md §4.6 step 5: a greedy prefix cut so the
// cumulative normalized probability mass first crosses pmass.
func applyPmassCut(ps []PathData, pmass float64) []PathData {
	if len(ps) == 0 {
		return ps
	}
	var total float64
	for _, p := range ps {
		total += math.Exp(-p.Weight)
	}
	if total <= 0 {
		return ps
	}
	var running float64
	for i, p := range ps {
		running += math.Exp(-p.Weight) / total
		if running >= pmass {
			return ps[:i+1]
		}
	}
	return ps
}

// heapItem is one in-progress reversed-search node.
type heapItem struct {
	state    int
	g        float64
	arcs     []fst.Arc // arcs collected from the final state down to state, in reverse-discovery order
	priority float64
}

type pathHeap []*heapItem

func (h pathHeap) Len() int            { return len(h) }
func (h pathHeap) Less(i, j int) bool  { return h[i].priority < h[j].priority }
func (h pathHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *pathHeap) Push(x interface{}) { *h = append(*h, x.(*heapItem)) }
func (h *pathHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
