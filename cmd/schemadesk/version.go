package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elarabyomar/PFA-sub000/internal/store"
	"github.com/elarabyomar/PFA-sub000/internal/theme"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "schemadesk %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Fprintf(out, "\nServe drivers: %s\n", strings.Join(store.Drivers(), ", "))
			fmt.Fprintf(out, "Themes: %s\n", strings.Join(theme.Names(), ", "))
		},
	}
}
