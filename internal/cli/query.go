package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/brep/pkg/check"
	"github.com/mesh-intelligence/brep/pkg/nav"
	"github.com/mesh-intelligence/brep/pkg/sqlite"
	"github.com/mesh-intelligence/brep/pkg/types"
)

type kindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

func newStatsCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "stats <model>",
		Short: "Count the entities of each kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b sqlite.Backend) error {
				_, s, err := a.loadModel(b, args[0])
				if err != nil {
					return err
				}
				counts := make([]kindCount, 0, types.NumKinds)
				for _, k := range types.Kinds {
					counts = append(counts, kindCount{Kind: k.String(), Count: s.NumEnts(k, all)})
				}
				return a.emit(cmd.OutOrStdout(), counts, func(w io.Writer) {
					for _, c := range counts {
						fmt.Fprintf(w, "%-6s %d\n", c.Kind, c.Count)
					}
				})
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include tombstoned slots")
	return cmd
}

func newEntsCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "ents <model> <kind>",
		Short: "List the indices of one kind",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[1])
			if err != nil {
				return err
			}
			return a.withBackend(func(b sqlite.Backend) error {
				_, s, err := a.loadModel(b, args[0])
				if err != nil {
					return err
				}
				idxs := s.GetEnts(kind, all)
				return a.emit(cmd.OutOrStdout(), idxs, func(w io.Writer) {
					fmt.Fprintln(w, joinInts(idxs))
				})
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include tombstoned slots")
	return cmd
}

func newNavCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "nav <model> <from> <to> <idx>",
		Short: "List the entities of kind <to> reachable from one entity",
		Long: `Nav walks the topology hierarchy from entity <idx> of kind <from> to
every entity of kind <to> it reaches. Kinds accept names such as vert,
vertex or vertices.

Example:
  brep nav demo face vert 0
  brep nav demo posi pgon 2`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseKind(args[1])
			if err != nil {
				return err
			}
			to, err := parseKind(args[2])
			if err != nil {
				return err
			}
			idx, err := parseIndex(args[3])
			if err != nil {
				return err
			}
			return a.withBackend(func(b sqlite.Backend) error {
				_, s, err := a.loadModel(b, args[0])
				if err != nil {
					return err
				}
				if err := requireActive(s, from, idx); err != nil {
					return err
				}
				got, err := nav.New(s).AnyToAny(from, to, idx)
				if err != nil {
					return corrupted(err)
				}
				return a.emit(cmd.OutOrStdout(), got, func(w io.Writer) {
					fmt.Fprintln(w, joinInts(got))
				})
			})
		},
	}
}

func newCollsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "colls <model> <kind> <idx>",
		Short: "List the collections holding an entity",
		Long:  "Colls lists the collections that hold an entity directly or through the\npoint, polyline or polygon that owns it. For a collection it lists its parent.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[1])
			if err != nil {
				return err
			}
			idx, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			return a.withBackend(func(b sqlite.Backend) error {
				_, s, err := a.loadModel(b, args[0])
				if err != nil {
					return err
				}
				if err := requireActive(s, kind, idx); err != nil {
					return err
				}
				got, err := nav.New(s).AnyToColl(kind, idx)
				if err != nil {
					return corrupted(err)
				}
				return a.emit(cmd.OutOrStdout(), got, func(w io.Writer) {
					fmt.Fprintln(w, joinInts(got))
				})
			})
		},
	}
}

type checkOutput struct {
	ModelID     string         `json:"model_id"`
	Name        string         `json:"name"`
	OK          bool           `json:"ok"`
	Active      map[string]int `json:"active"`
	Diagnostics []string       `json:"diagnostics"`
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <model>",
		Short: "Audit a model for structural consistency",
		Long:  "Check prints one line per violation and exits with status 1 if any are\nfound.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b sqlite.Backend) error {
				m, s, err := a.loadModel(b, args[0])
				if err != nil {
					return err
				}
				rep := check.New(s, check.WithLogger(a.log)).Report()
				out := checkOutput{
					ModelID:     m.ID,
					Name:        m.Name,
					OK:          rep.OK(),
					Active:      make(map[string]int, types.NumKinds),
					Diagnostics: rep.Strings(),
				}
				total := 0
				for _, k := range types.Kinds {
					out.Active[k.String()] = rep.Active[k]
					total += rep.Active[k]
				}
				if err := a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
					for _, d := range out.Diagnostics {
						fmt.Fprintln(w, d)
					}
					if out.OK {
						fmt.Fprintf(w, "ok: %d entities checked\n", total)
					}
				}); err != nil {
					return err
				}
				if !rep.OK() {
					return errViolations
				}
				return nil
			})
		},
	}
}
