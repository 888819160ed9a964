package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the brep release version.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/brep"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the brep version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "brep v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
