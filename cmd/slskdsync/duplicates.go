package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func cmdDuplicates() *cobra.Command {
	return &cobra.Command{
		Use:          "duplicates",
		Short:        "List library entries that look like the same track",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, 0)
			if err != nil {
				return err
			}

			idx, err := buildIndex(cmd.Context(), cfg, log, true)
			if err != nil {
				return err
			}

			dupes := idx.NearDuplicates()
			keys := make([]string, 0, len(dupes))
			for k := range dupes {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d keys indexed, %d potential duplicate groups\n", idx.Len(), len(keys))
			cyan := color.New(color.FgCyan)
			for _, k := range keys {
				cyan.Fprintln(out, k)
				for _, s := range dupes[k] {
					fmt.Fprintf(out, "    %s\n", s)
				}
			}
			return nil
		},
	}
}
