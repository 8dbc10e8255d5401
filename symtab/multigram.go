package symtab

import "strings"

// Default separators from spec.md §3: IntraSep joins tokens within one side
// of a multigram ("a|b"), JointSep separates the two sides ("L}R").
const (
	IntraSep = "|"
	JointSep = "}"
)

// Multigram is the in-memory, parsed form of an "L}R" token: L and R are
// the (possibly empty, possibly skip) letter- and phone-side subsequences.
type Multigram struct {
	Left  []string
	Right []string
}

// IsLeftSkip reports whether the left side is the null-alignment sentinel.
func (m Multigram) IsLeftSkip() bool { return len(m.Left) == 1 && m.Left[0] == SkipSymbol }

// IsRightSkip reports whether the right side is the null-alignment
// sentinel.
func (m Multigram) IsRightSkip() bool { return len(m.Right) == 1 && m.Right[0] == SkipSymbol }

// Label renders the canonical "L}R" string form, e.g. "a|b}p|r".
func (m Multigram) Label() string {
	return strings.Join(m.Left, IntraSep) + JointSep + strings.Join(m.Right, IntraSep)
}

// ParseMultigram decomposes a "L}R" label back into its sides. Returns
// false if label does not contain the joint separator (i.e. is not a
// multigram label at all, such as a plain single-letter cluster token).
func ParseMultigram(label string) (Multigram, bool) {
	idx := strings.Index(label, JointSep)
	if idx < 0 {
		return Multigram{}, false
	}
	left := label[:idx]
	right := label[idx+1:]
	m := Multigram{}
	if left == SkipSymbol {
		m.Left = []string{SkipSymbol}
	} else if left != "" {
		m.Left = strings.Split(left, IntraSep)
	}
	if right == SkipSymbol {
		m.Right = []string{SkipSymbol}
	} else if right != "" {
		m.Right = strings.Split(right, IntraSep)
	}
	return m, true
}

// InternMultigram interns the canonical label for m and returns its id,
// assigning a new id on first sight (spec.md §3: "Each distinct multigram
// is assigned a stable symbol id on first sight").
func (t *Table) InternMultigram(m Multigram) int32 {
	return t.Intern(m.Label())
}
