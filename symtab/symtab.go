// Package symtab implements the bidirectional string<->id symbol table
// spec.md §3 describes: it encodes letter tokens, phone tokens, and
// multigram labels of the form "L}R", with stable ids assigned on first
// sight. The shape — parallel id2str/str2id with a Copy() that deep-copies
// both — is lifted directly from the teacher pack's closest analogue,
// kho-fslm's Vocab (a bidirectional word<->id map for a language model),
// generalized from words to arbitrary grapheme/phone/multigram tokens.
package symtab

// Reserved token ids, stable across the life of any model (spec.md §3).
const (
	Eps  int32 = 0
	Skip int32 = 2
)

// Reserved token strings for the two sentinels above; ids 1, 3 and 4 are
// metadata slots whose meaning is file-format specific (see model.Header)
// rather than single fixed strings, per the re-architecture note in
// DESIGN.md resolving the id 0-4 overloading spec.md's source inherited.
const (
	EpsSymbol  = "<eps>"
	SkipSymbol = "<skip>"
)

// Table is a symbol table: a stable, append-only mapping between strings
// and int32 ids. The zero value is not usable; construct with New.
type Table struct {
	id2str []string
	str2id map[string]int32
}

// New returns a Table pre-seeded with the reserved eps/skip sentinels at
// their fixed ids and placeholders for the metadata slots 1, 3 and 4, so the
// first interned symbol gets id 5.
func New() *Table {
	t := &Table{
		id2str: make([]string, 5),
		str2id: make(map[string]int32, 64),
	}
	t.id2str[Eps] = EpsSymbol
	t.id2str[1] = "<reserved-1>"
	t.id2str[Skip] = SkipSymbol
	t.id2str[3] = "<reserved-3>"
	t.id2str[4] = "<reserved-4>"
	t.str2id[EpsSymbol] = Eps
	t.str2id[SkipSymbol] = Skip
	return t
}

// Copy returns a deep copy that can be mutated independently, mirroring
// kho-fslm's Vocab.Copy: the decoder roots a per-request working table on
// the immutable loaded one (spec.md §5) so that mining new cluster symbols
// during decode never mutates the shared model table.
func (t *Table) Copy() *Table {
	c := &Table{
		id2str: make([]string, len(t.id2str)),
		str2id: make(map[string]int32, len(t.str2id)),
	}
	copy(c.id2str, t.id2str)
	for k, v := range t.str2id {
		c.str2id[k] = v
	}
	return c
}

// Size returns one past the largest assigned id.
func (t *Table) Size() int32 { return int32(len(t.id2str)) }

// Find returns the id of sym and true, or (0, false) if sym has never been
// interned.
func (t *Table) Find(sym string) (int32, bool) {
	id, ok := t.str2id[sym]
	return id, ok
}

// Symbol returns the string for id. Panics if id is out of range; callers
// should only pass ids obtained from Find or Intern.
func (t *Table) Symbol(id int32) string { return t.id2str[id] }

// Intern returns the id for sym, assigning a new stable id on first sight.
// This is how AlignmentBuilder registers multigrams into the shared table
// (spec.md §3's "shared across all training pairs" invariant).
func (t *Table) Intern(sym string) int32 {
	if id, ok := t.str2id[sym]; ok {
		return id
	}
	id := int32(len(t.id2str))
	t.id2str = append(t.id2str, sym)
	t.str2id[sym] = id
	return id
}

// Symbols returns every interned string in id order, including the
// reserved sentinels.
func (t *Table) Symbols() []string {
	out := make([]string, len(t.id2str))
	copy(out, t.id2str)
	return out
}
