// Package transcript is the top-level grapheme-to-phoneme engine: it wires
// together AlignmentBuilder, EMAligner, LatticePruner, CorpusEmitter,
// WordFsaBuilder and JointDecoder into the two data-flows spec.md §2
// describes (train: dictionary pairs -> lattices -> model -> corpus/
// archive; decode: word + joint model -> composed lattice -> ranked
// pronunciations). Engine keeps the teacher's original Recognizer/Option
// functional-options shape, generalized from acoustic/language model
// loading to alignment training and joint-model decoding.
package transcript

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ieee0824/transcript-go/corpus"
	"github.com/ieee0824/transcript-go/decode"
	"github.com/ieee0824/transcript-go/em"
	"github.com/ieee0824/transcript-go/model"
	"github.com/ieee0824/transcript-go/prune"
)

// Engine is the top-level G2P entry point: it has no state of its own
// beyond the logger handed to every trainer and decoder it creates.
type Engine struct {
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger overrides the structured logger injected into every
// operation that can hit a recoverable error (spec.md §7).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine returns an Engine with the given options applied.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TrainResult bundles a completed EMAligner run, ready for LatticePruner
// and CorpusEmitter to consume without re-aligning. RunID tags the run so a
// corpus and its sibling n-best archive can be correlated by a downstream
// N-gram toolkit invocation even after both files have left this process.
type TrainResult struct {
	Trainer *em.Trainer
	RunID   uuid.UUID
}

// Train runs AlignmentBuilder + EMAligner over pairs (spec.md §4.1–4.2).
func (e *Engine) Train(pairs []em.Pair, opts em.Options) *TrainResult {
	if opts.Logger == nil {
		opts.Logger = e.logger
	}
	t := em.NewTrainer(opts)
	t.Train(pairs)
	for _, sk := range t.Skipped {
		e.logger.Warn("train: pair skipped, empty lattice", "pair_index", sk.Index, "reason", sk.Err.Error())
	}
	runID := uuid.New()
	e.logger.Info("train: run tagged", "run_id", runID.String())
	return &TrainResult{Trainer: t, RunID: runID}
}

// EmitCorpus writes the 1-best aligned corpus for a trained run, ready for
// an external N-gram toolkit to consume (spec.md §1 Non-goals, §4.4). The
// leading "# run <id>" comment line lets the sibling archive from the same
// TrainResult be correlated with this corpus later.
func (e *Engine) EmitCorpus(w io.Writer, tr *TrainResult, pruneOpts prune.Options) error {
	if _, err := fmt.Fprintf(w, "# run %s\n", tr.RunID); err != nil {
		return fmt.Errorf("emit corpus: %w", err)
	}
	p := prune.New(tr.Trainer.Syms)
	if err := corpus.WriteCorpus(w, tr.Trainer.Lattices(), tr.Trainer.Syms, p, pruneOpts); err != nil {
		return fmt.Errorf("emit corpus: %w", err)
	}
	return nil
}

// EmitArchive writes the keyed n-best archive for a trained run, tagged
// with the same run id as EmitCorpus.
func (e *Engine) EmitArchive(w io.Writer, tr *TrainResult, pruneOpts prune.Options) error {
	if _, err := fmt.Fprintf(w, "# run %s\n", tr.RunID); err != nil {
		return fmt.Errorf("emit archive: %w", err)
	}
	p := prune.New(tr.Trainer.Syms)
	if err := corpus.WriteArchive(w, tr.Trainer.Lattices(), tr.Trainer.Syms, p, pruneOpts); err != nil {
		return fmt.Errorf("emit archive: %w", err)
	}
	return nil
}

// SaveModel persists tr's trained model in the format
// model.SaveAlignmentModel defines (spec.md §6).
func (e *Engine) SaveModel(w io.Writer, tr *TrainResult, h model.Header) error {
	if err := model.SaveAlignmentModel(w, tr.Trainer.Model, h); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Decoder loads a joint n-gram model WFST and returns a ready-to-use
// JointDecoder (spec.md §4.6, §5 "loaded once and immutably shared").
func (e *Engine) Decoder(r io.Reader) (*decode.Decoder, error) {
	jm, _, err := model.LoadJointModel(r)
	if err != nil {
		return nil, fmt.Errorf("load joint model: %w", err)
	}
	return decode.NewDecoder(jm, e.logger), nil
}
