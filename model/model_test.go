package model

import (
	"strings"
	"testing"

	"github.com/ieee0824/transcript-go/em"
	"github.com/ieee0824/transcript-go/internal/fst"
	"github.com/ieee0824/transcript-go/symtab"
)

func TestAlignmentModelRoundTrip(t *testing.T) {
	syms := symtab.New()
	m := em.NewAlignmentModel(syms)
	id := syms.InternMultigram(symtab.Multigram{Left: []string{"c"}, Right: []string{"K"}})
	m.SetWeight(id, 0.69)

	var buf strings.Builder
	h := Header{Seq1Del: true, Seq1Max: 2, Seq2Max: 2, IntraSep: "|", JointSep: "}"}
	if err := SaveAlignmentModel(&buf, m, h); err != nil {
		t.Fatalf("SaveAlignmentModel: %v", err)
	}

	loaded, gotH, err := LoadAlignmentModel(strings.NewReader(buf.String()), symtab.New())
	if err != nil {
		t.Fatalf("LoadAlignmentModel: %v", err)
	}
	if !gotH.Seq1Del || gotH.Seq1Max != 2 {
		t.Fatalf("header round trip = %+v", gotH)
	}
	gotW, ok := loaded.WeightOf(loaded.Syms.Intern("c}K"))
	if !ok || gotW != 0.69 {
		t.Fatalf("reloaded weight = %v, %v, want 0.69, true", gotW, ok)
	}
}

func TestJointModelRoundTrip(t *testing.T) {
	syms := symtab.New()
	ab := syms.Intern("a|b")
	f := fst.New()
	s0 := f.AddState()
	s1 := f.AddState()
	f.SetStart(s0)
	f.AddArc(s0, fst.Arc{ILabel: ab, OLabel: ab, Weight: 1.5, To: s1})
	f.SetFinal(s1, 0)

	jm := &JointModel{Fst: f, Syms: syms, Mode: ModeFsaPhi}
	var buf strings.Builder
	if err := SaveJointModel(&buf, jm, DefaultHeader()); err != nil {
		t.Fatalf("SaveJointModel: %v", err)
	}

	loaded, _, err := LoadJointModel(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("LoadJointModel: %v", err)
	}
	if loaded.Mode != ModeFsaPhi {
		t.Fatalf("mode = %v, want fsa_phi", loaded.Mode)
	}
	if loaded.Fst.NumStates() != 2 || loaded.Fst.Start != 0 {
		t.Fatalf("fst shape mismatch: states=%d start=%d", loaded.Fst.NumStates(), loaded.Fst.Start)
	}
	clusters := loaded.Clusters()
	if _, ok := clusters["a|b"]; !ok {
		t.Fatalf("expected cluster symbol a|b to be mined, got %v", clusters)
	}
}
