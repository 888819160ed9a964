package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/brep/pkg/sqlite"
	"github.com/mesh-intelligence/brep/pkg/topo"
	"github.com/mesh-intelligence/brep/pkg/types"
)

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List saved models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBackend(func(b sqlite.Backend) error {
				models, err := b.ListModels()
				if err != nil {
					return sysError(err)
				}
				return a.emit(cmd.OutOrStdout(), models, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tSLOTS\tCREATED")
					for _, m := range models {
						fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.ID, m.Name, m.Slots, m.CreatedAt.Format(time.RFC3339))
					}
					tw.Flush()
				})
			})
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <model>",
		Short: "Delete a saved model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b sqlite.Backend) error {
				m, err := b.FindModel(args[0])
				if errors.Is(err, types.ErrModelNotFound) {
					return userError(err)
				}
				if err != nil {
					return sysError(err)
				}
				if err := b.DeleteModel(m.ID); err != nil {
					return sysError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s (%s)\n", m.ID, m.Name)
				return nil
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file> [name]",
		Short: "Import a model from a JSONL file",
		Long:  "Import saves the model in a JSONL file under a new ID. The name defaults\nto the name in the file's header, then to the file name.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 1 {
				name = args[1]
			}
			return a.withBackend(func(b sqlite.Backend) error {
				id, err := b.ImportJSONL(args[0], name)
				if err != nil {
					return userError(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <model> <file>",
		Short: "Export a model to a JSONL file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b sqlite.Backend) error {
				m, err := b.FindModel(args[0])
				if errors.Is(err, types.ErrModelNotFound) {
					return userError(err)
				}
				if err != nil {
					return sysError(err)
				}
				if err := b.ExportJSONL(m.ID, args[1]); err != nil {
					return sysError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", m.ID, args[1])
				return nil
			})
		},
	}
}

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo [name]",
		Short: "Save a small sample model",
		Long: `Demo saves a model holding a triangle polygon, a polyline over the same
positions and a point, all in collection 0, plus an empty child
collection 1. It prints the new model's ID.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "demo"
			if len(args) == 1 {
				name = args[0]
			}
			s, err := buildDemo(topo.New(topo.WithLogger(a.log)))
			if err != nil {
				return sysError(fmt.Errorf("build demo: %w", err))
			}
			return a.withBackend(func(b sqlite.Backend) error {
				id, err := b.SaveModel(name, s)
				if err != nil {
					return sysError(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
}

// buildDemo fills s with the demo model.
func buildDemo(s *topo.Store) (*topo.Store, error) {
	ps := []int{s.AddPosi(), s.AddPosi(), s.AddPosi()}
	pg, err := s.BuildPgon(ps, nil, [][3]int{{0, 1, 2}})
	if err != nil {
		return nil, err
	}
	pl, err := s.BuildPline(ps, false)
	if err != nil {
		return nil, err
	}
	pt, err := s.BuildPoint(ps[0])
	if err != nil {
		return nil, err
	}
	c, err := s.AddColl(topo.None)
	if err != nil {
		return nil, err
	}
	if _, err := s.AddColl(c); err != nil {
		return nil, err
	}
	for _, m := range []struct {
		kind types.Kind
		idx  int
	}{{types.Pgon, pg}, {types.Pline, pl}, {types.Point, pt}} {
		if err := s.CollAdd(c, m.kind, m.idx); err != nil {
			return nil, err
		}
	}
	return s, nil
}
