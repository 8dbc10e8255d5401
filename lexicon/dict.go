// Package lexicon loads a G2P training dictionary: a flat text file of
// word/pronunciation entries, the raw material AlignmentBuilder and
// EMAligner train over (spec.md §1 "Given a training dictionary of
// word/pronunciation pairs"). Grounded on the teacher's own
// word-to-pronunciation Dictionary, generalized from a fixed phoneme
// inventory (acoustic.Phoneme) to arbitrary letter/phone tokens so any
// alphabet pair can be trained.
package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ieee0824/transcript-go/em"
)

// Entry is a single training dictionary line: a letter sequence and one or
// more reference phone-sequence pronunciations.
type Entry struct {
	Letters       []string
	Pronunciations [][]string
}

// Dictionary holds word-to-pronunciation mappings, keyed by the joined
// letter sequence.
type Dictionary struct {
	Entries map[string]*Entry
	order   []string // insertion order, so Pairs() is deterministic
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{Entries: make(map[string]*Entry)}
}

// Add registers one pronunciation for letters. Both slices are used as
// given, one element per token; Add does no splitting of its own.
func (d *Dictionary) Add(letters []string, phones []string) {
	key := strings.Join(letters, " ")
	e, ok := d.Entries[key]
	if !ok {
		e = &Entry{Letters: letters}
		d.Entries[key] = e
		d.order = append(d.order, key)
	}
	e.Pronunciations = append(e.Pronunciations, phones)
}

// Load reads a training dictionary from r. Format: one entry per line,
// "<letters>\t<phones>", where both sides are whitespace-separated token
// lists (spec.md §3's seq1/seq2). Blank lines and lines starting with "#"
// are ignored.
func Load(r io.Reader) (*Dictionary, error) {
	d := NewDictionary()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	lineNum := 0

	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("lexicon: line %d: expected 2 tab-separated fields, got %d", lineNum, len(parts))
		}
		letters := strings.Fields(parts[0])
		phones := strings.Fields(parts[1])
		if len(letters) == 0 || len(phones) == 0 {
			return nil, fmt.Errorf("lexicon: line %d: empty letter or phone sequence", lineNum)
		}
		d.Add(letters, phones)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("lexicon: scan dictionary: %w", err)
	}
	return d, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Lookup returns the entry for a letter sequence, or nil if absent.
func (d *Dictionary) Lookup(letters []string) *Entry {
	return d.Entries[strings.Join(letters, " ")]
}

// Words returns every distinct letter sequence in the dictionary, in
// load/insertion order.
func (d *Dictionary) Words() [][]string {
	out := make([][]string, len(d.order))
	for i, key := range d.order {
		out[i] = d.Entries[key].Letters
	}
	return out
}

// Pairs flattens the dictionary into EMAligner training pairs, one per
// (letters, pronunciation) combination — a word with N alternative
// pronunciations contributes N pairs, in load order (spec.md §4.2 "For
// each training pair, build a lattice").
func (d *Dictionary) Pairs() []em.Pair {
	var out []em.Pair
	for _, key := range d.order {
		e := d.Entries[key]
		for _, phones := range e.Pronunciations {
			out = append(out, em.Pair{Seq1: e.Letters, Seq2: phones})
		}
	}
	return out
}
