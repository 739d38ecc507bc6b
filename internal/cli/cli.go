package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/specialistvlad/proxygraph/internal/app"
	"github.com/specialistvlad/proxygraph/internal/graph"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Env holds the process streams and test hooks of one invocation.
type Env struct {
	Out   io.Writer
	Err   io.Writer
	Stdin io.Reader
	// GraphOptions are appended to the runtime options built by the app.
	GraphOptions []graph.Option
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
}

func (f *globalFlags) validate() error {
	if f.logFormat != "" && f.logFormat != "text" && f.logFormat != "json" {
		return usageError("invalid log-format: must be 'text' or 'json'")
	}
	switch f.logLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	return nil
}

func usageError(msg string) *ExitError {
	return &ExitError{Code: ExitUsage, Message: msg}
}

// Execute runs the command line args. Errors are always *ExitError.
func Execute(ctx context.Context, args []string, env Env) error {
	root := newRootCmd(env)
	root.SetArgs(args)
	root.SetOut(env.Out)
	root.SetErr(env.Err)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Anything cobra reports itself is a usage problem.
	return usageError(err.Error())
}

func newRootCmd(env Env) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "proxygraph",
		Short:         "proxygraph - convert, inspect, render and snapshot graph files",
		Long:          "proxygraph reads graph files (.hcl, .yaml, optionally .zst compressed), writes them in any supported format including DOT, lays them out with Graphviz and keeps snapshots in a local database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags.logLevel = strings.ToLower(flags.logLevel)
			flags.logFormat = strings.ToLower(flags.logFormat)
			return flags.validate()
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err.Error())
	})
	rootCmd.PersistentFlags().StringVar(&flags.config, "config", "", "Path to the HCL configuration file (default proxygraph.hcl when present).")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log output format. Options: 'text' or 'json'.")

	// withApp builds the app for one command and maps its failures to
	// ExitFailure.
	withApp := func(run runFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := app.NewApp(ctx, env.Out, env.Err, app.Options{
				ConfigPath: flags.config,
				LogLevel:   flags.logLevel,
				LogFormat:  flags.logFormat,
				Stdin:      env.Stdin,
			}, env.GraphOptions...)
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			defer a.Close()
			if err := run(ctx, a, cmd, args); err != nil {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			return nil
		}
	}

	rootCmd.AddCommand(
		newConvertCmd(withApp),
		newStatsCmd(withApp),
		newRenderCmd(withApp),
		newSnapshotCmd(withApp),
	)
	return rootCmd
}

type runFunc = func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error

type appWrapper = func(runFunc) func(*cobra.Command, []string) error

func newConvertCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Read a graph and write it in the format of OUT",
		Long: `Read a graph and write it in the format selected by the extension of OUT.

Use "stdin" and "stdout" for the process streams (HCL). Supported
extensions: .hcl, .yaml/.yml, .dot/.gv (write only), each optionally
followed by .zst for zstd compression.`,
		Args: cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
			return a.Convert(ctx, args[0], args[1])
		}),
	}
}

func newStatsCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "stats IN",
		Short: "Print the name, kind and entity counts of a graph",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			s, err := a.Stats(ctx, args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "name\t%s\n", s.Name)
			fmt.Fprintf(w, "kind\t%s\n", s.Kind)
			fmt.Fprintf(w, "nodes\t%d\n", s.Nodes)
			fmt.Fprintf(w, "edges\t%d\n", s.Edges)
			fmt.Fprintf(w, "subgraphs\t%d\n", s.Subgraphs)
			fmt.Fprintf(w, "declared\t%d\n", s.Declares)
			return w.Flush()
		}),
	}
}

func newRenderCmd(withApp appWrapper) *cobra.Command {
	var engine, format, output string
	cmd := &cobra.Command{
		Use:   "render IN",
		Short: "Lay out a graph with Graphviz and render it",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
			return a.Render(ctx, args[0], engine, format, output)
		}),
	}
	cmd.Flags().StringVar(&engine, "engine", "dot", "Layout engine: dot, neato, nop, nop2, twopi, fdp or circo.")
	cmd.Flags().StringVar(&format, "format", "svg", "Graphviz output format.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file; standard output when empty.")
	return cmd
}

func newSnapshotCmd(withApp appWrapper) *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Snapshot commands",
	}

	saveCmd := &cobra.Command{
		Use:   "save IN",
		Short: "Store a graph in the snapshot database and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			id, err := a.SaveSnapshot(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		}),
	}

	loadCmd := &cobra.Command{
		Use:   "load ID OUT",
		Short: "Restore a snapshot and write it to OUT",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
			return a.LoadSnapshot(ctx, args[0], args[1])
		}),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, _ []string) error {
			infos, err := a.ListSnapshots(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tKIND\tNODES\tEDGES\tCREATED")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					info.ID, info.Name, info.Kind, info.Nodes, info.Edges, info.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, _ *cobra.Command, args []string) error {
			return a.DeleteSnapshot(ctx, args[0])
		}),
	}

	snapshotCmd.AddCommand(saveCmd, loadCmd, listCmd, deleteCmd)
	return snapshotCmd
}
