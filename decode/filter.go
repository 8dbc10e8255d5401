package decode

import (
	"strings"

	"github.com/ieee0824/transcript-go/symtab"
)

// vetoed reports whether id is one of the non-phonetic sentinel labels
// spec.md §4.7 says every filter excludes from a uniques vector.
func vetoed(id int32) bool {
	return id == symtab.Eps || id == 1 || id == symtab.Skip
}

// PathState accumulates one in-progress path's canonical "uniques" vector
// as the search extends it arc by arc (spec.md §4.6 step 4,
// `filter.Extend(path, arc)`).
type PathState interface {
	Extend(olabel int32)
	Uniques() []int32
}

// PathFilter is the strategy spec.md §4.7 describes: given a joint model's
// output symbol table, produce a fresh PathState per candidate path.
type PathFilter interface {
	Fresh() PathState
}

// IdentityFilter's uniques vector is simply every non-vetoed olabel seen,
// in order (spec.md §4.7 "Identity filter").
type IdentityFilter struct{}

func (IdentityFilter) Fresh() PathState { return &identityState{} }

type identityState struct {
	uniques []int32
}

func (s *identityState) Extend(olabel int32) {
	if vetoed(olabel) {
		return
	}
	s.uniques = append(s.uniques, olabel)
}

func (s *identityState) Uniques() []int32 { return s.uniques }

// MultigramFilter decomposes each olabel via symtab.ParseMultigram (or, for
// a plain cluster olabel with no joint separator, by splitting on the
// intra-separator) and pushes every non-vetoed constituent phone token onto
// the uniques vector, collapsing tied multigram segmentations onto the same
// canonical phone sequence (spec.md §4.7 "Multigram filter").
type MultigramFilter struct {
	syms     *symtab.Table
	phoneIDs map[string]int32
	nextID   int32
	cache    map[int32][]int32
}

// NewMultigramFilter returns a filter that resolves olabels against syms,
// the joint model's (decode-time copy of the) output symbol table.
func NewMultigramFilter(syms *symtab.Table) *MultigramFilter {
	return &MultigramFilter{
		syms:     syms,
		phoneIDs: make(map[string]int32),
		nextID:   1,
		cache:    make(map[int32][]int32),
	}
}

func (f *MultigramFilter) internPhone(tok string) int32 {
	if id, ok := f.phoneIDs[tok]; ok {
		return id
	}
	id := f.nextID
	f.nextID++
	f.phoneIDs[tok] = id
	return id
}

// decompose resolves olabel to its constituent phone-side token ids,
// caching the result since the same olabel recurs across many paths.
func (f *MultigramFilter) decompose(olabel int32) []int32 {
	if ids, ok := f.cache[olabel]; ok {
		return ids
	}
	sym := f.syms.Symbol(olabel)
	var ids []int32
	if mg, ok := symtab.ParseMultigram(sym); ok {
		for _, tok := range mg.Right {
			if tok == symtab.SkipSymbol {
				continue
			}
			ids = append(ids, f.internPhone(tok))
		}
	} else {
		for _, tok := range strings.Split(sym, symtab.IntraSep) {
			ids = append(ids, f.internPhone(tok))
		}
	}
	f.cache[olabel] = ids
	return ids
}

func (f *MultigramFilter) Fresh() PathState {
	return &multigramState{filter: f}
}

type multigramState struct {
	filter  *MultigramFilter
	uniques []int32
}

func (s *multigramState) Extend(olabel int32) {
	if vetoed(olabel) {
		return
	}
	s.uniques = append(s.uniques, s.filter.decompose(olabel)...)
}

func (s *multigramState) Uniques() []int32 { return s.uniques }

// uniquesKey turns a uniques vector into a comparable map key.
func uniquesKey(ids []int32) string {
	b := make([]byte, 0, len(ids)*5)
	for _, id := range ids {
		b = append(b, byte(id>>24), byte(id>>16), byte(id>>8), byte(id), ',')
	}
	return string(b)
}
