// Package cli implements the brep command-line interface: it saves, lists
// and deletes topology models and runs navigation queries and consistency
// checks against them.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/brep/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// errViolations is returned by check when the model has diagnostics. The
// diagnostics themselves are already printed.
var errViolations = errors.New("model has consistency violations")

// app holds global flag values and state shared by the subcommands of one
// root command.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string

	cfg *viper.Viper
	log *slog.Logger
}

// NewRootCmd creates the top-level "brep" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:     "brep",
		Short:   "Inspect and check topological B-rep models",
		Long:    "brep stores topology models and answers navigation and consistency\nqueries over their entity tables.",
		Version: Version,
		// Errors carry their own message; usage is noise after a failed query.
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.preRun,
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output as JSON")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default: warn)")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newDemoCmd(a),
		newModelsCmd(a),
		newRmCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newStatsCmd(a),
		newEntsCmd(a),
		newNavCmd(a),
		newCollsCmd(a),
		newCheckCmd(a),
	)
	return root
}

// preRun loads config.yaml and sets up logging before any subcommand.
func (a *app) preRun(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = configDir

	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	a.cfg = cfg

	level := a.logLevel
	if level == "" {
		level = cfg.GetString(cfgKeyLogLevel)
	}
	log, err := newLogger(level, cfg.GetString(cfgKeyLogFormat), cmd.ErrOrStderr())
	if err != nil {
		return userError(err)
	}
	a.log = log
	return nil
}

// Execute runs the root command and exits with the command's exit code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

// run executes root with args and returns the exit code, printing any error
// to errW.
func run(root *cobra.Command, args []string, errW io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	if !errors.Is(err, errViolations) {
		fmt.Fprintln(errW, "brep:", err)
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
