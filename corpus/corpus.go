// Package corpus implements CorpusEmitter (spec.md §4.4): writes either a
// 1-best alignment corpus (one line per training pair) or a keyed n-best
// archive, with posterior-normalized arc weights, consumed downstream by an
// external N-gram training toolkit (out of scope here, per spec.md §1).
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ieee0824/transcript-go/internal/fst"
	"github.com/ieee0824/transcript-go/internal/semiring"
	"github.com/ieee0824/transcript-go/prune"
	"github.com/ieee0824/transcript-go/symtab"
)

// WriteCorpus emits one alignment per line: for each lattice, run the
// pruner with the given options then follow the shortest path, writing
// the sequence of multigram symbols space-separated (spec.md §4.4, §6
// "Corpus output format").
func WriteCorpus(w io.Writer, lattices []*fst.Fst, syms *symtab.Table, p *prune.Pruner, opts prune.Options) error {
	bw := bufio.NewWriter(w)
	for _, f := range lattices {
		best := p.Prune(f, opts)
		if best.Empty() {
			continue
		}
		toks := pathLabels(best, syms)
		if _, err := fmt.Fprintln(bw, strings.Join(toks, " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// pathLabels walks the (assumed-linear) chain fst f and returns the
// symbol string for each arc's label in order.
func pathLabels(f *fst.Fst, syms *symtab.Table) []string {
	var out []string
	if f.Start == fst.NoStateId {
		return out
	}
	cur := f.Start
	for len(f.States[cur].Arcs) > 0 {
		a := f.States[cur].Arcs[0]
		out = append(out, syms.Symbol(a.ILabel))
		cur = a.To
	}
	return out
}

// WriteArchive emits an indexed archive: for each lattice (non-empty after
// pruning), push weights to final in Log, reset final weights to one
// (posterior normalization), and write under a zero-padded key starting at
// 00000001 (spec.md §4.4, §6 "Archive output format"). Entries lacking any
// valid path are silently skipped. The archive format here is a simple
// self-contained text serialization (key line, then one "from to ilabel
// olabel weight" line per arc, then a final-state line, then a blank
// separator) rather than the library-native binary archive format spec.md
// treats as a given (no archive-format library exists in the retrieval
// pack — see DESIGN.md).
func WriteArchive(w io.Writer, lattices []*fst.Fst, syms *symtab.Table, p *prune.Pruner, opts prune.Options) error {
	bw := bufio.NewWriter(w)
	key := 1
	for _, f := range lattices {
		pruned := p.Prune(f, opts)
		if pruned.Empty() {
			continue
		}
		fst.Push(pruned, semiring.Log, true)
		if _, err := fmt.Fprintf(bw, "%08d\n", key); err != nil {
			return err
		}
		for s, st := range pruned.States {
			for _, a := range st.Arcs {
				if _, err := fmt.Fprintf(bw, "%d\t%d\t%s\t%s\t%g\n", s, a.To, syms.Symbol(a.ILabel), syms.Symbol(a.OLabel), a.Weight); err != nil {
					return err
				}
			}
			if pruned.IsFinal(s) {
				if _, err := fmt.Fprintf(bw, "%d\t%g\n", s, st.Final); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintln(bw); err != nil {
			return err
		}
		key++
	}
	return bw.Flush()
}
