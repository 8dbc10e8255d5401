package em

import (
	"math"
	"testing"

	"github.com/ieee0824/transcript-go/align"
)

func split(s string) []string {
	var out []string
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func fields(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == ' ' {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func scenarioOptions() Options {
	o := DefaultOptions()
	o.Align = align.Options{Seq1Max: 2, Seq2Max: 2, Seq1Del: true, Seq2Del: true, Restrict: true, Grow: true}
	o.Iterations = 5
	o.PenalizeEM = true
	return o
}

func TestTrainSinglePairConverges(t *testing.T) {
	tr := NewTrainer(scenarioOptions())
	pairs := []Pair{{Seq1: split("cat"), Seq2: fields("K AE T")}}
	model := tr.Train(pairs)

	for _, want := range []string{"c}K", "a}AE", "t}T"} {
		id, ok := tr.Syms.Find(want)
		if !ok {
			t.Fatalf("expected multigram %q to have been interned", want)
		}
		w, ok := model.WeightOf(id)
		if !ok {
			t.Fatalf("expected multigram %q to have a trained weight", want)
		}
		p := math.Exp(-w)
		if p <= 0.3 {
			t.Fatalf("posterior for %q = %v, want > 0.3", want, p)
		}
	}
}

func TestProbMassTotalApproxOne(t *testing.T) {
	tr := NewTrainer(scenarioOptions())
	tr.Train([]Pair{{Seq1: split("cat"), Seq2: fields("K AE T")}})
	mass := tr.Model.ProbMassTotal()
	if math.Abs(mass-1.0) > 1e-6 {
		t.Fatalf("ProbMassTotal = %v, want ~1.0", mass)
	}
}

func TestChangeIsMonotonicNonIncreasingWithoutPenalize(t *testing.T) {
	o := scenarioOptions()
	o.PenalizeEM = false
	o.Iterations = 6
	tr := NewTrainer(o)
	tr.Train([]Pair{
		{Seq1: split("cat"), Seq2: fields("K AE T")},
		{Seq1: split("bat"), Seq2: fields("B AE T")},
		{Seq1: split("hat"), Seq2: fields("HH AE T")},
	})
	for i := 1; i < len(tr.Change); i++ {
		if tr.Change[i] > tr.Change[i-1]+1e-9 {
			t.Fatalf("change increased at iteration %d: %v -> %v", i, tr.Change[i-1], tr.Change[i])
		}
	}
}

func TestUnalignablePairIsSkippedNotFatal(t *testing.T) {
	o := scenarioOptions()
	o.Align.Seq1Del = false
	o.Align.Seq2Del = false
	o.Align.Seq1Max = 1
	o.Align.Seq2Max = 1
	o.Align.Grow = false
	tr := NewTrainer(o)
	tr.Train([]Pair{
		{Seq1: split("ph"), Seq2: fields("F")}, // unequal length, no deletions -> unalignable
		{Seq1: split("it"), Seq2: fields("I T")},
	})
	if len(tr.Skipped) != 1 {
		t.Fatalf("expected exactly 1 skipped pair, got %d", len(tr.Skipped))
	}
}
