package corpus

import (
	"math"
	"strings"
	"testing"

	"github.com/ieee0824/transcript-go/internal/fst"
	"github.com/ieee0824/transcript-go/prune"
	"github.com/ieee0824/transcript-go/symtab"
)

func linearLattice(syms *symtab.Table, labels []string, weights []float64) *fst.Fst {
	f := fst.New()
	s := f.AddState()
	f.SetStart(s)
	for i, lbl := range labels {
		id := syms.Intern(lbl)
		next := f.AddState()
		f.AddArc(s, fst.Arc{ILabel: id, OLabel: id, Weight: weights[i], To: next})
		s = next
	}
	f.SetFinal(s, 0)
	return f
}

func TestWriteCorpusOneLinePerLattice(t *testing.T) {
	syms := symtab.New()
	f1 := linearLattice(syms, []string{"c}K", "a}AE", "t}T"}, []float64{0, 0, 0})
	f2 := linearLattice(syms, []string{"p}F"}, []float64{0})

	var buf strings.Builder
	p := prune.New(syms)
	opts := prune.Options{NBest: 1, Beam: math.Inf(1)}
	if err := WriteCorpus(&buf, []*fst.Fst{f1, f2}, syms, p, opts); err != nil {
		t.Fatalf("WriteCorpus: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "c}K a}AE t}T" {
		t.Fatalf("line 1 = %q, want %q", lines[0], "c}K a}AE t}T")
	}
}

func TestWriteArchiveSkipsEmptyLattices(t *testing.T) {
	syms := symtab.New()
	good := linearLattice(syms, []string{"c}K"}, []float64{0})
	empty := fst.New()
	empty.AddState() // no start set -> empty

	var buf strings.Builder
	p := prune.New(syms)
	opts := prune.Options{NBest: 1, Beam: math.Inf(1)}
	if err := WriteArchive(&buf, []*fst.Fst{good, empty}, syms, p, opts); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	if !strings.Contains(buf.String(), "00000001") {
		t.Fatalf("expected the first archive key, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "00000002") {
		t.Fatalf("expected the empty lattice to be skipped, got %q", buf.String())
	}
}
