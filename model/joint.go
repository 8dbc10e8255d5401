package model

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ieee0824/transcript-go/internal/fst"
	"github.com/ieee0824/transcript-go/symtab"
)

// CompositionMode selects how WordFsaBuilder's input FSA is matched against
// a JointModel's back-off structure during decoding (spec.md §4.6).
type CompositionMode int

const (
	// ModeFsaEps composes a plain word FSA against the model's native
	// epsilon back-off arcs.
	ModeFsaEps CompositionMode = iota
	// ModeFsaPhi composes a plain word FSA against a model whose back-off
	// arcs have been rewritten to a reserved phi (failure) label.
	ModeFsaPhi
	// ModeFstPhi composes against a phi-rewritten model exactly as
	// ModeFsaPhi does; the word FSA is not rewritten and no label pairs are
	// encoded.
	ModeFstPhi
)

func (m CompositionMode) String() string {
	switch m {
	case ModeFsaEps:
		return "fsa_eps"
	case ModeFsaPhi:
		return "fsa_phi"
	case ModeFstPhi:
		return "fst_phi"
	default:
		return "unknown"
	}
}

// ParseCompositionMode parses the CLI-facing spelling of a CompositionMode.
func ParseCompositionMode(s string) (CompositionMode, error) {
	switch s {
	case "fsa_eps":
		return ModeFsaEps, nil
	case "fsa_phi":
		return ModeFsaPhi, nil
	case "fst_phi":
		return ModeFstPhi, nil
	default:
		return 0, errors.Errorf("model: unknown composition mode %q", s)
	}
}

// JointModel is a compiled joint n-gram WFST plus the shared input/output
// symbol table it was trained over (spec.md §5, JointNGramDecoder's model
// input). Unlike the alignment model, this is multi-state: it is the n-gram
// back-off automaton an external ARPA-to-WFST compiler would normally
// produce (out of scope here per spec.md §1 — see DESIGN.md), so Load/Save
// here read and write this module's own compact text encoding of an
// already-compiled Fst rather than reimplementing that compiler.
type JointModel struct {
	Fst  *fst.Fst
	Syms *symtab.Table
	Mode CompositionMode
}

// Clusters returns every interned symbol that is a multi-letter grapheme
// cluster (i.e. contains the multigram left-side IntraSep but no JointSep),
// the set WordFsaBuilder mines once per model to add cluster arcs (spec.md
// §4.5).
func (jm *JointModel) Clusters() map[string]int32 {
	out := make(map[string]int32)
	for _, sym := range jm.Syms.Symbols() {
		if strings.Contains(sym, symtab.JointSep) {
			continue
		}
		if strings.Contains(sym, symtab.IntraSep) {
			out[sym] = mustFind(jm.Syms, sym)
		}
	}
	return out
}

func mustFind(t *symtab.Table, sym string) int32 {
	id, _ := t.Find(sym)
	return id
}

// SaveJointModel writes jm in this package's text encoding: a header line,
// the symbol table, then one line per arc and one line per final state.
func SaveJointModel(w io.Writer, jm *JointModel, h Header) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, h); err != nil {
		return errors.Wrap(err, "model: write header")
	}
	if _, err := fmt.Fprintf(bw, "#mode\t%s\n", jm.Mode); err != nil {
		return errors.Wrap(err, "model: write mode")
	}
	syms := jm.Syms.Symbols()
	if _, err := fmt.Fprintf(bw, "#syms\t%d\n", len(syms)); err != nil {
		return errors.Wrap(err, "model: write symbol count")
	}
	for id, s := range syms {
		if _, err := fmt.Fprintf(bw, "%d\t%s\n", id, s); err != nil {
			return errors.Wrap(err, "model: write symbol")
		}
	}
	if _, err := fmt.Fprintf(bw, "#start\t%d\n", jm.Fst.Start); err != nil {
		return errors.Wrap(err, "model: write start state")
	}
	for s, st := range jm.Fst.States {
		for _, a := range st.Arcs {
			if _, err := fmt.Fprintf(bw, "%d\t%d\t%d\t%d\t%g\n", s, a.To, a.ILabel, a.OLabel, a.Weight); err != nil {
				return errors.Wrap(err, "model: write arc")
			}
		}
		if jm.Fst.IsFinal(s) {
			if _, err := fmt.Fprintf(bw, "%d\t%g\n", s, st.Final); err != nil {
				return errors.Wrap(err, "model: write final")
			}
		}
	}
	return bw.Flush()
}

// LoadJointModel reads the encoding SaveJointModel writes.
func LoadJointModel(r io.Reader) (*JointModel, Header, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	h := DefaultHeader()
	if sc.Scan() {
		if parsed, ok := readHeader(sc.Text()); ok {
			h = parsed
		} else {
			return nil, h, errors.New("model: joint model missing header line")
		}
	}

	mode := ModeFsaEps
	if sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "#mode\t") {
			return nil, h, errors.New("model: joint model missing mode line")
		}
		parsed, err := ParseCompositionMode(strings.TrimPrefix(line, "#mode\t"))
		if err != nil {
			return nil, h, err
		}
		mode = parsed
	}

	nSyms := 0
	if sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "#syms\t") {
			return nil, h, errors.New("model: joint model missing symbol count line")
		}
		n, err := strconv.Atoi(strings.TrimPrefix(line, "#syms\t"))
		if err != nil {
			return nil, h, errors.Wrap(err, "model: symbol count")
		}
		nSyms = n
	}

	syms := symtab.New()
	for i := 0; i < nSyms; i++ {
		if !sc.Scan() {
			return nil, h, errors.New("model: truncated symbol table")
		}
		fields := strings.SplitN(sc.Text(), "\t", 2)
		if len(fields) != 2 {
			return nil, h, errors.Errorf("model: malformed symbol line %q", sc.Text())
		}
		// Reserved ids 0..4 are already seeded by symtab.New; only intern
		// ids beyond that so re-loading is idempotent with the writer's
		// id assignment order.
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, h, errors.Wrap(err, "model: symbol id")
		}
		if int32(id) >= syms.Size() {
			syms.Intern(fields[1])
		}
	}

	jm := &JointModel{Fst: fst.New(), Syms: syms, Mode: mode}
	statesSeen := map[int]bool{}
	ensure := func(s int) {
		for jm.Fst.NumStates() <= s {
			jm.Fst.AddState()
		}
		statesSeen[s] = true
	}

	start := -1
	if sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "#start\t") {
			return nil, h, errors.New("model: joint model missing start state line")
		}
		n, err := strconv.Atoi(strings.TrimPrefix(line, "#start\t"))
		if err != nil {
			return nil, h, errors.Wrap(err, "model: start state")
		}
		start = n
	}

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		switch len(fields) {
		case 5: // arc: from to ilabel olabel weight
			from, to, il, ol, w, err := parseArcFields(fields)
			if err != nil {
				return nil, h, err
			}
			ensure(from)
			ensure(to)
			jm.Fst.AddArc(from, fst.Arc{ILabel: il, OLabel: ol, Weight: w, To: to})
		case 2: // final: state weight
			s, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, h, errors.Wrap(err, "model: final state id")
			}
			w, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, h, errors.Wrap(err, "model: final weight")
			}
			ensure(s)
			jm.Fst.SetFinal(s, w)
		default:
			return nil, h, errors.Errorf("model: malformed joint model line %q", line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, h, errors.Wrap(err, "model: scan joint model")
	}
	if start >= 0 {
		ensure(start)
		jm.Fst.SetStart(start)
	}
	return jm, h, nil
}

func parseArcFields(fields []string) (from, to int, il, ol int32, w float64, err error) {
	from, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, 0, 0, 0, errors.Wrap(err, "model: arc from")
	}
	to, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, 0, 0, 0, errors.Wrap(err, "model: arc to")
	}
	ilv, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, 0, 0, 0, errors.Wrap(err, "model: arc ilabel")
	}
	olv, err := strconv.Atoi(fields[3])
	if err != nil {
		return 0, 0, 0, 0, 0, errors.Wrap(err, "model: arc olabel")
	}
	w, err = strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return 0, 0, 0, 0, 0, errors.Wrap(err, "model: arc weight")
	}
	return from, to, int32(ilv), int32(olv), w, nil
}
