package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/hearth/internal/protection"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <path>...",
		Short: "Show the protection tier for paths",
		Long:  "Prints each path's protection tier and the change ceremony it requires.",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, path := range args {
				tier := protection.Classify(path)
				fmt.Fprintf(out, "%s\t%s\t%s\n", path, tier, formatCeremony(tier))
			}
		},
	}
}

// formatCeremony renders the ceremony steps as a compact arrow chain.
func formatCeremony(tier protection.Tier) string {
	steps := protection.Ceremony(tier)
	out := ""
	for i, s := range steps {
		if i > 0 {
			out += " > "
		}
		out += s.String()
	}
	return out
}
