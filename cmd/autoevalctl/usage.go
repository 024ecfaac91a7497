package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	autoeval "github.com/kailas-cloud/autoeval/pkg/sdk"
)

func newUsageCmd(g *globalFlags) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show embedding token usage and budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			r, err := c.Usage(cmd.Context(), autoeval.UsagePeriod(period))
			if err != nil {
				return err
			}
			if g.json {
				return printJSON(cmd.OutOrStdout(), r)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "period:    %s\n", r.Period)
			if r.PeriodStart != nil && r.PeriodEnd != nil {
				fmt.Fprintf(out, "window:    %s .. %s\n", r.PeriodStart.Format("2006-01-02"), r.PeriodEnd.Format("2006-01-02"))
			}
			fmt.Fprintf(out, "used:      %d\n", r.TokensUsed)
			fmt.Fprintf(out, "limit:     %s\n", limitString(r.TokensLimit))
			fmt.Fprintf(out, "remaining: %s\n", limitString(r.TokensRemaining))
			if r.IsExhausted {
				fmt.Fprintln(out, "budget exhausted")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", "month", "day, month or total")
	return cmd
}

func limitString(v int64) string {
	if v < 0 {
		return "unlimited"
	}
	return strconv.FormatInt(v, 10)
}
