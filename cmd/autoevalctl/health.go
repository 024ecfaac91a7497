package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newHealthCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server component health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			hs, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			if g.json {
				return printJSON(cmd.OutOrStdout(), hs)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status: %s\n", hs.Status)
			names := make([]string, 0, len(hs.Checks))
			for name := range hs.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "  %-12s %s\n", name, hs.Checks[name])
			}
			if hs.Status == "error" {
				return fmt.Errorf("server unhealthy")
			}
			return nil
		},
	}
}
