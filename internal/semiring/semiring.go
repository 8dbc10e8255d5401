// Package semiring models the two weight algebras the WFST core is built
// over. The generic template-heavy semiring machinery of the source this
// system is descended from is expressed here as a small interface with two
// concrete instances instead, per the re-architecture notes in the design
// document: Tropical for shortest-path/n-best search, Log for
// forward-backward expectation and posterior reweighting.
package semiring

import (
	"math"

	"github.com/ieee0824/transcript-go/internal/mathutil"
)

// Weight is a semiring element together with the operations the core
// algorithms need: Zero, One, Plus (semiring addition), Times (semiring
// multiplication), Divide (inverse of Times, used when peeling a weight
// back off a path), Reverse (the reverse-semiring weight, the identity for
// both instances here) and ApproxEq for convergence checks.
type Weight interface {
	Zero() float64
	One() float64
	Plus(a, b float64) float64
	Times(a, b float64) float64
	Divide(a, b float64) float64
	Reverse(a float64) float64
	ApproxEq(a, b, delta float64) bool
	// Member reports whether w is a valid (non-poisoned) value in this
	// semiring; NaN and +/-Inf are never members.
	Member(w float64) bool
}

// LogZero is the value used for the semiring zero in both instances: a
// large finite negative-log weight rather than true infinity, so that
// shortest-distance bookkeeping never has to special-case infinities.
const LogZero = mathutil.LogZero

// Tropical is the (min, +) semiring over negative-log weights: Plus takes
// the better (lower) of two path weights, Times accumulates weight along a
// path. Used for shortest-path / n-best search.
var Tropical Weight = tropicalWeight{}

// Log is the (logadd, +) semiring: Plus marginalizes two paths'
// probabilities, Times accumulates weight along a path. Used for
// forward-backward expectation and posterior reweighting.
var Log Weight = logWeight{}

type tropicalWeight struct{}

func (tropicalWeight) Zero() float64 { return LogZero }
func (tropicalWeight) One() float64  { return 0 }
func (tropicalWeight) Plus(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
func (tropicalWeight) Times(a, b float64) float64 {
	if a >= LogZero && b >= LogZero {
		return a + b
	}
	return LogZero
}
func (tropicalWeight) Divide(a, b float64) float64 {
	if b <= LogZero {
		return LogZero
	}
	return a - b
}
func (tropicalWeight) Reverse(a float64) float64 { return a }
func (tropicalWeight) ApproxEq(a, b, delta float64) bool {
	return math.Abs(a-b) <= delta
}
func (tropicalWeight) Member(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0)
}

type logWeight struct{}

func (logWeight) Zero() float64 { return LogZero }
func (logWeight) One() float64  { return 0 }
func (logWeight) Plus(a, b float64) float64 {
	return mathutil.LogAdd(a, b)
}
func (logWeight) Times(a, b float64) float64 {
	if a >= LogZero && b >= LogZero {
		return a + b
	}
	return LogZero
}
func (logWeight) Divide(a, b float64) float64 {
	if b <= LogZero {
		return LogZero
	}
	return a - b
}
func (logWeight) Reverse(a float64) float64 { return a }
func (logWeight) ApproxEq(a, b, delta float64) bool {
	return math.Abs(a-b) <= delta
}
func (logWeight) Member(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0)
}

// Clamp guards against the numerical poison described in the error-handling
// design: NaN or infinite weights are clamped to a large finite log weight
// rather than propagated.
func Clamp(w float64, large float64) float64 {
	if math.IsNaN(w) || math.IsInf(w, 1) {
		return large
	}
	if math.IsInf(w, -1) {
		return LogZero
	}
	return w
}
