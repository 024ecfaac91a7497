package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/autoeval/internal/comparator"
	"github.com/kailas-cloud/autoeval/internal/domain"
)

func newWeightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Inspect and generate comparator weight files",
	}
	cmd.AddCommand(newWeightsInitCmd(), newWeightsCheckCmd())
	return cmd
}

func newWeightsInitCmd() *cobra.Command {
	var (
		out    string
		input  int
		hidden int
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write deterministic sample weights for local runs",
		Long: `Write a weights file built from fixed sample parameters. Identical texts score
about 0.98 and the score falls quickly as the texts diverge. These are not trained
weights; use them to run the service locally without a model artifact.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				if _, err := os.Stat(out); err == nil {
					return fmt.Errorf("%s exists (use --force to overwrite)", out)
				}
			}
			data, err := json.Marshal(comparator.SampleWeights(input, hidden))
			if err != nil {
				return fmt.Errorf("encode weights: %w", err)
			}
			if _, err := comparator.Parse(data); err != nil {
				return fmt.Errorf("generated weights are invalid: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("write weights: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", out, hidden, input)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "weights/siamese.json", "output path")
	model := domain.DefaultModelConfig()
	cmd.Flags().IntVar(&input, "input", model.Dimensions, "embedding dimension ("+model.EmbeddingModel+")")
	cmd.Flags().IntVar(&hidden, "hidden", model.HiddenDim, "hidden layer width")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newWeightsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>",
		Short: "Validate a weights file and print its shape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := comparator.Load(args[0])
			if err != nil {
				return err
			}
			self := make([]float32, c.InputDim())
			for i := range self {
				self[i] = 1
			}
			s, err := c.Compare(self, self)
			if err != nil {
				return fmt.Errorf("self comparison: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "input_dim=%d hidden_dim=%d self_similarity=%.4f\n",
				c.InputDim(), c.HiddenDim(), s)
			return nil
		},
	}
}
