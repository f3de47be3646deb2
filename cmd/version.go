package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/tigo/internal/buildinfo"
	"github.com/thiagokokada/tigo/internal/git/backend"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "tigo %s\n", buildinfo.Read()); err != nil {
				return err
			}
			gitVersion, err := backend.GitVersion()
			if err != nil {
				gitVersion = err.Error()
			}
			_, err = fmt.Fprintln(out, gitVersion)
			return err
		},
	}
}
