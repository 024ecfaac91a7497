package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	autoeval "github.com/kailas-cloud/autoeval/pkg/sdk"
)

func newScoreCmd(g *globalFlags) *cobra.Command {
	var (
		file     string
		text     string
		textFile string
		marks    float64
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a document against a reference answer",
		Long: `Upload an answer document and print its similarity and scaled score.

Examples:
  autoevalctl score --file answer.png --text "Plants make food" --marks 10
  autoevalctl score --file answer.pdf --text-file reference.txt --marks 5 --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if text == "" && textFile != "" {
				data, err := os.ReadFile(filepath.Clean(textFile))
				if err != nil {
					return fmt.Errorf("read reference text: %w", err)
				}
				text = string(data)
			}

			f, err := os.Open(filepath.Clean(file))
			if err != nil {
				return fmt.Errorf("open document: %w", err)
			}
			defer func() { _ = f.Close() }()

			c, err := g.client(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			res, err := c.Calculate(cmd.Context(), autoeval.CalculateRequest{
				Filename: filepath.Base(file),
				Content:  f,
				Text:     text,
				Marks:    marks,
			})
			if err != nil {
				return err
			}

			if g.json {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "score:      %.2f / %g\n", res.ScaledScore, res.Marks)
			fmt.Fprintf(out, "similarity: %.4f\n", res.Similarity)
			fmt.Fprintf(out, "text:       %q\n", res.OCRText)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "answer document (png, jpg, pdf, docx, txt, ...)")
	cmd.Flags().StringVarP(&text, "text", "t", "", "reference answer")
	cmd.Flags().StringVar(&textFile, "text-file", "", "read the reference answer from a file")
	cmd.Flags().Float64VarP(&marks, "marks", "m", 0, "maximum mark for the question")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("marks")
	cmd.MarkFlagsMutuallyExclusive("text", "text-file")
	return cmd
}
