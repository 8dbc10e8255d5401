package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ieee0824/transcript-go/align"
	"github.com/ieee0824/transcript-go/em"
	"github.com/ieee0824/transcript-go/lexicon"
	"github.com/ieee0824/transcript-go/model"
	"github.com/ieee0824/transcript-go/prune"
	"github.com/ieee0824/transcript-go"
)

func (c *CLI) newTrainCommand() *cobra.Command {
	var (
		modelPath   string
		corpusPath  string
		archivePath string
		iterations  int
		epsilon     float64
		seq1Max     int
		seq2Max     int
		noPenalize  bool
		noGrow      bool
		beam        float64
		nbest       int
	)

	cmd := &cobra.Command{
		Use:   "train <dictfile>",
		Short: "align a training dictionary and emit a trained alignment model",
		Args:  cobra.ExactArgs(1),
		Example: `  g2p train dict.txt --model model.txt --corpus corpus.txt
  g2p train dict.txt --model model.txt -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dictPath := args[0]
			dict, err := lexicon.LoadFile(dictPath)
			if err != nil {
				return errors.Wrap(err, "train: load dictionary")
			}
			pairs := dict.Pairs()
			slog.Info("train: loaded dictionary", "path", dictPath, "pairs", len(pairs))

			alignOpts := align.DefaultOptions()
			alignOpts.Seq1Max = seq1Max
			alignOpts.Seq2Max = seq2Max
			alignOpts.Grow = !noGrow

			emOpts := em.DefaultOptions()
			emOpts.Align = alignOpts
			emOpts.Iterations = iterations
			emOpts.Epsilon = epsilon
			emOpts.PenalizeEM = !noPenalize
			emOpts.Logger = c.logger()

			engine := transcript.NewEngine(transcript.WithLogger(c.logger()))

			start := time.Now()
			result := engine.Train(pairs, emOpts)
			slog.Info("train: completed", "duration", time.Since(start), "skipped", len(result.Trainer.Skipped))

			if modelPath != "" {
				f, err := os.Create(modelPath)
				if err != nil {
					return errors.Wrap(err, "train: create model file")
				}
				defer f.Close()
				if err := engine.SaveModel(f, result, model.DefaultHeader()); err != nil {
					return err
				}
				slog.Info("train: model saved", "path", modelPath)
			}

			pruneOpts := prune.Options{
				Penalize:        !noPenalize,
				ForwardBackward: true,
				Beam:            beam,
				NBest:           nbest,
			}

			if corpusPath != "" {
				f, err := os.Create(corpusPath)
				if err != nil {
					return errors.Wrap(err, "train: create corpus file")
				}
				defer f.Close()
				if err := engine.EmitCorpus(f, result, pruneOpts); err != nil {
					return err
				}
				slog.Info("train: corpus emitted", "path", corpusPath)
			}

			if archivePath != "" {
				f, err := os.Create(archivePath)
				if err != nil {
					return errors.Wrap(err, "train: create archive file")
				}
				defer f.Close()
				if err := engine.EmitArchive(f, result, pruneOpts); err != nil {
					return err
				}
				slog.Info("train: archive emitted", "path", archivePath)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "path to write the trained alignment model")
	cmd.Flags().StringVar(&corpusPath, "corpus", "", "path to write the 1-best aligned corpus")
	cmd.Flags().StringVar(&archivePath, "archive", "", "path to write the n-best aligned archive")
	cmd.Flags().IntVar(&iterations, "iterations", em.DefaultOptions().Iterations, "maximum EM iterations")
	cmd.Flags().Float64Var(&epsilon, "epsilon", em.DefaultOptions().Epsilon, "EM convergence threshold on |delta total|")
	cmd.Flags().IntVar(&seq1Max, "seq1-max", align.DefaultOptions().Seq1Max, "max letters consumed per alignment arc")
	cmd.Flags().IntVar(&seq2Max, "seq2-max", align.DefaultOptions().Seq2Max, "max phones consumed per alignment arc")
	cmd.Flags().BoolVar(&noPenalize, "no-penalize", false, "disable the penalize_em reweighting")
	cmd.Flags().BoolVar(&noGrow, "no-grow", false, "disable growing seq1-max/seq2-max on an empty lattice")
	cmd.Flags().Float64Var(&beam, "beam", 10.0, "beam-prune width applied before emitting corpus/archive (skipped when --nbest is 1)")
	cmd.Flags().IntVar(&nbest, "nbest", 1, "n-best prune width applied before emitting corpus/archive")

	return cmd
}
