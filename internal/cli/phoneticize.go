package cli

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ieee0824/transcript-go/decode"
	"github.com/ieee0824/transcript-go"
)

func (c *CLI) newPhoneticizeCommand() *cobra.Command {
	var (
		jointModelPath string
		nbest          int
		beam           float64
		threshold      float64
		pmass          float64
		accumulate     bool
		multigram      bool
	)

	cmd := &cobra.Command{
		Use:   "phoneticize <word> [word...]",
		Short: "decode words against a joint n-gram model into ranked pronunciations",
		Args:  cobra.MinimumNArgs(1),
		Example: `  g2p phoneticize --joint-model model.fst cat
  g2p phoneticize --joint-model model.fst --nbest 5 cat dog`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jointModelPath == "" {
				return errors.New("phoneticize: --joint-model is required")
			}
			f, err := os.Open(jointModelPath)
			if err != nil {
				return errors.Wrap(err, "phoneticize: open joint model")
			}
			defer f.Close()

			engine := transcript.NewEngine(transcript.WithLogger(c.logger()))
			dec, err := engine.Decoder(f)
			if err != nil {
				return err
			}

			opts := decode.DefaultOptions()
			opts.NBest = nbest
			opts.Beam = beam
			opts.Threshold = threshold
			opts.Pmass = pmass
			opts.Accumulate = accumulate
			if multigram {
				opts.Filter = decode.NewMultigramFilter(dec.Model.Syms)
			}

			for _, word := range args {
				paths, err := dec.Phoneticize(word, opts)
				if err != nil {
					return errors.Wrapf(err, "phoneticize: %s", word)
				}
				if len(paths) == 0 {
					fmt.Printf("%s\t(no path)\n", word)
					continue
				}
				for _, p := range paths {
					phones := make([]string, 0, len(p.OLabels))
					for _, id := range p.OLabels {
						phones = append(phones, dec.Model.Syms.Symbol(id))
					}
					fmt.Printf("%s\t%.4f\t%s\n", word, p.Weight, strings.Join(phones, " "))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jointModelPath, "joint-model", "", "path to the trained joint n-gram model WFST (required)")
	cmd.Flags().IntVar(&nbest, "nbest", 1, "number of filter-unique hypotheses to return per word")
	cmd.Flags().Float64Var(&beam, "beam", math.Inf(1), "stored in decode.Options.Beam; the decoder does not read it")
	cmd.Flags().Float64Var(&threshold, "threshold", math.Inf(1), "weight threshold relative to the 1-best hypothesis")
	cmd.Flags().Float64Var(&pmass, "pmass", 1.0, "greedy cumulative probability-mass cut, in (0,1]")
	cmd.Flags().BoolVar(&accumulate, "accumulate", false, "log-sum tied hypotheses' weights instead of discarding them")
	cmd.Flags().BoolVar(&multigram, "multigram", false, "collapse tied multigram segmentations via MultigramFilter")

	return cmd
}
