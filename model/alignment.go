package model

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ieee0824/transcript-go/em"
	"github.com/ieee0824/transcript-go/symtab"
)

// SaveAlignmentModel writes m's trained weights as the single-state WFSA
// spec.md §6 describes: state 0 is final with weight one (0 in -log space),
// and one self-loop (id, id, weight) per trained multigram. The Header
// record is written first so a later Load recovers the training
// configuration without depending on any reserved symbol id.
func SaveAlignmentModel(w io.Writer, m *em.AlignmentModel, h Header) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, h); err != nil {
		return errors.Wrap(err, "model: write header")
	}
	weights := m.Weights()
	ids := make([]int32, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sortInt32s(ids)
	for _, id := range ids {
		sym := m.Syms.Symbol(id)
		if _, err := fmt.Fprintf(bw, "%s\t%g\n", sym, weights[id]); err != nil {
			return errors.Wrap(err, "model: write self-loop")
		}
	}
	return bw.Flush()
}

// LoadAlignmentModel reads the format SaveAlignmentModel writes, interning
// every multigram label into syms and returning a model ready to drive
// WordFsaBuilder cluster mining and EMAligner continuation.
func LoadAlignmentModel(r io.Reader, syms *symtab.Table) (*em.AlignmentModel, Header, error) {
	m := em.NewAlignmentModel(syms)
	h := DefaultHeader()

	first, sc := scanFirstLine(r)
	if first != "" {
		if parsed, ok := readHeader(first); ok {
			h = parsed
			first = ""
		}
	}

	process := func(line string) error {
		if line == "" {
			return nil
		}
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			return errors.Errorf("model: malformed alignment model line %q", line)
		}
		w, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return errors.Wrapf(err, "model: weight field %q", fields[1])
		}
		id := syms.Intern(fields[0])
		m.SetWeight(id, w)
		return nil
	}

	if first != "" {
		if err := process(first); err != nil {
			return nil, h, err
		}
	}
	for sc.Scan() {
		if err := process(sc.Text()); err != nil {
			return nil, h, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, h, errors.Wrap(err, "model: scan alignment model")
	}
	return m, h, nil
}

func sortInt32s(xs []int32) {
	for i := 1; i < len(xs); i++ {
		v := xs[i]
		j := i - 1
		for j >= 0 && xs[j] > v {
			xs[j+1] = xs[j]
			j--
		}
		xs[j+1] = v
	}
}
