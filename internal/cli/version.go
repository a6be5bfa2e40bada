package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand(a *app, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the tool and hardware versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hw := a.driver.Version()
			out := cmd.OutOrStdout()

			if a.json {
				return writeJSON(out, map[string]any{
					"version":          version,
					"hardware_version": hw,
				})
			}

			fmt.Fprintf(out, "shamir-accel %s\n", version)
			fmt.Fprintf(out, "Hardware version: %d\n", hw)
			return nil
		},
	}
}
