// Package wordfsa implements WordFsaBuilder (spec.md §4.5): turns an input
// letter sequence into a linear-chain acceptor plus every cluster arc the
// joint model recognizes, the FSA JointDecoder composes against a joint
// model WFST. Grounded on the teacher's lexicon/dict.go vocabulary
// enumeration style, generalized from a flat word list to a per-request
// chain-plus-cluster-arcs builder.
package wordfsa

import (
	"strings"

	"github.com/ieee0824/transcript-go/internal/fst"
	"github.com/ieee0824/transcript-go/symtab"
)

// sentence boundary marker symbols used when Options.Superfinal is set.
const (
	sentenceBeginSymbol = "<s>"
	sentenceEndSymbol   = "</s>"
)

// Options configures a single BuildWordFsa call.
type Options struct {
	// Superfinal appends sentence-begin and sentence-end marker states
	// around the letter chain, for models that encode sentence boundaries
	// (spec.md §4.5).
	Superfinal bool
	// MaxClusterLen bounds how many consecutive letters a mined cluster
	// arc may span; 0 means "use the longest cluster found in the model".
	MaxClusterLen int
	// LetterSplitter is not read by BuildWordFsa, which receives letters
	// already split; the decoder applies its own decode.Options.LetterSplitter
	// (falling back to DefaultLetterSplitter) before calling BuildWordFsa.
	LetterSplitter func(word string) []string
}

// DefaultLetterSplitter splits a word on symtab.IntraSep, falling back to
// one letter token per rune when the separator is absent.
func DefaultLetterSplitter(word string) []string {
	if strings.Contains(word, symtab.IntraSep) {
		return strings.Split(word, symtab.IntraSep)
	}
	out := make([]string, 0, len(word))
	for _, r := range word {
		out = append(out, string(r))
	}
	return out
}

// Builder mines the cluster map once per model and reuses it across
// BuildWordFsa calls, per spec.md §4.5 "mine clusters once per model".
type Builder struct {
	clusterIDs    map[string]int32 // "|"-joined cluster tokens -> symbol id
	maxClusterLen int
}

// clusterMap is the map type model.JointModel's Clusters method returns,
// named here as a plain map so this package does not import model; the
// decode package passes model.Clusters() directly.
type clusterMap = map[string]int32

// NewBuilder mines cluster arcs from isyms (every interned symbol
// containing symtab.IntraSep but not symtab.JointSep is a cluster, spec.md
// §4.5's "scan the input symbol table").
func NewBuilder(isyms *symtab.Table) *Builder {
	clusters := make(clusterMap)
	for _, sym := range isyms.Symbols() {
		if strings.Contains(sym, symtab.JointSep) {
			continue
		}
		if !strings.Contains(sym, symtab.IntraSep) {
			continue
		}
		id, ok := isyms.Find(sym)
		if !ok {
			continue
		}
		clusters[sym] = id
	}
	return NewBuilderFromClusters(clusters)
}

// NewBuilderFromClusters builds a Builder from an already-mined cluster
// map, the form model.JointModel.Clusters returns.
func NewBuilderFromClusters(clusters clusterMap) *Builder {
	maxLen := 0
	for sym := range clusters {
		n := len(strings.Split(sym, symtab.IntraSep))
		if n > maxLen {
			maxLen = n
		}
	}
	return &Builder{clusterIDs: clusters, maxClusterLen: maxLen}
}

// BuildWordFsa chains states 0..n with single-letter arcs, adds a cluster
// arc from i to i+k for every mined cluster matching letters[i..i+k), and
// optionally wraps the chain in sentence-boundary markers (spec.md §4.5).
// An empty letters slice yields an FSA with exactly one state, simultaneously
// start and final (spec.md §8 boundary behavior).
func (b *Builder) BuildWordFsa(letters []string, isyms *symtab.Table, opts Options) (*fst.Fst, error) {
	maxLen := opts.MaxClusterLen
	if maxLen == 0 {
		maxLen = b.maxClusterLen
	}

	f := fst.New()
	start := f.AddState()
	f.SetStart(start)

	chainStart := start
	if opts.Superfinal {
		bos := f.AddState()
		id := isyms.Intern(sentenceBeginSymbol)
		f.AddArc(start, fst.Arc{ILabel: id, OLabel: id, Weight: 0, To: bos})
		chainStart = bos
	}

	n := len(letters)
	states := make([]int, n+1)
	states[0] = chainStart
	for i := 1; i <= n; i++ {
		states[i] = f.AddState()
	}

	for i := 0; i < n; i++ {
		id, ok := isyms.Find(letters[i])
		if ok {
			f.AddArc(states[i], fst.Arc{ILabel: id, OLabel: id, Weight: 0, To: states[i+1]})
		}
		for k := 2; k <= maxLen && i+k <= n; k++ {
			sym := strings.Join(letters[i:i+k], symtab.IntraSep)
			cid, ok := b.clusterIDs[sym]
			if !ok {
				continue
			}
			f.AddArc(states[i], fst.Arc{ILabel: cid, OLabel: cid, Weight: 0, To: states[i+k]})
		}
	}

	last := states[n]
	if opts.Superfinal {
		eos := f.AddState()
		id := isyms.Intern(sentenceEndSymbol)
		f.AddArc(last, fst.Arc{ILabel: id, OLabel: id, Weight: 0, To: eos})
		last = eos
	}
	f.SetFinal(last, 0)
	return f, nil
}
