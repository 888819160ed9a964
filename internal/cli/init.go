package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/brep/pkg/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize brep configuration and storage",
		Long:  "Create the configuration directory with a default config.yaml, then create\nthe data directory and its database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBackend(func(b sqlite.Backend) error {
				cfg, err := a.backendConfig()
				if err != nil {
					return userError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "brep initialized\nconfig: %s\ndata: %s\n", a.configDir, cfg.DataDir)
				return nil
			})
		},
	}
}
