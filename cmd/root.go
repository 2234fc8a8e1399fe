package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"logsmith/internal/config"
	"logsmith/internal/document"
	"logsmith/internal/engine"
	"logsmith/internal/logging"
	"logsmith/internal/mcp"
	"logsmith/internal/syntax"
	"logsmith/internal/utils"
	"logsmith/internal/watch"
)

// Build information, set from main.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// setup loads the configuration for the project directory, applies the
// override flags and builds the engine.
func setup(cmd *cobra.Command) (*engine.Engine, config.Overrides, *slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	logger, err := logging.New(cmd.ErrOrStderr(), level)
	if err != nil {
		return nil, config.Overrides{}, nil, err
	}

	dir, _ := cmd.Flags().GetString("project")
	props, err := config.Load(dir)
	if err != nil {
		return nil, config.Overrides{}, nil, fmt.Errorf("failed to load config: %w", err)
	}

	var overrides config.Overrides
	overrides.LogFunction, _ = cmd.Flags().GetString("log-function")
	overrides.LogType, _ = cmd.Flags().GetString("log-type")
	overrides.Delimiter, _ = cmd.Flags().GetString("delimiter")
	props = overrides.Apply(props)
	if err := props.Validate(); err != nil {
		return nil, config.Overrides{}, nil, err
	}

	logger.Debug("configuration loaded", "project", dir, "logFunction", props.LogFunction, "logType", props.LogType)
	return engine.New(props, logger), overrides, logger, nil
}

func newInsertCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "insert",
		Short: "Insert a debug log statement for a variable",
		Long: "Classifies the code around each position and inserts a debug log statement\n" +
			"where the variable is in scope and fully initialized. Lines and columns are 1-based.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, _, err := setup(cmd)
			if err != nil {
				return err
			}
			file, _ := cmd.Flags().GetString("file")
			lines, _ := cmd.Flags().GetIntSlice("line")
			columns, _ := cmd.Flags().GetIntSlice("column")
			vars, _ := cmd.Flags().GetStringSlice("var")
			showDiff, _ := cmd.Flags().GetBool("diff")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			if err := syntax.CheckSupported(file); err != nil {
				return err
			}
			sels, err := selections(lines, columns, vars)
			if err != nil {
				return err
			}
			doc, err := document.Load(file)
			if err != nil {
				return err
			}

			res, err := e.Insert(doc, sels)
			if err != nil {
				return err
			}
			out := newPrinter(cmd.OutOrStdout())
			if len(res.Insertions) == 0 {
				out.warn("No variable found at the given position")
				return nil
			}
			if showDiff {
				d, err := res.Diff()
				if err != nil {
					return err
				}
				out.raw(d)
			}
			if !dryRun {
				if err := doc.Save(); err != nil {
					return err
				}
			}
			for _, ins := range res.Insertions {
				out.ok("Logged %s at %s:%d (%s)", ins.Variable, out.path(file), ins.Call+1, ins.Category)
			}
			return nil
		},
	}
	c.Flags().String("file", "", "Source file to edit")
	c.Flags().IntSlice("line", nil, "Line of the variable (repeatable)")
	c.Flags().IntSlice("column", nil, "Column of the variable on the matching --line")
	c.Flags().StringSlice("var", nil, "Variable or expression to log on the matching --line")
	c.Flags().Bool("diff", false, "Print the change as a unified diff")
	c.Flags().Bool("dry-run", false, "Do not write the file")
	c.MarkFlagRequired("file")
	c.MarkFlagRequired("line")
	return c
}

// selections pairs every --line with its --column or --var.
func selections(lines, columns []int, vars []string) ([]document.Selection, error) {
	if len(columns) == 0 && len(vars) == 0 {
		return nil, fmt.Errorf("either --column or --var is required")
	}
	sels := make([]document.Selection, 0, len(lines))
	for i, line := range lines {
		if line < 1 {
			return nil, fmt.Errorf("invalid line %d", line)
		}
		sel := document.Cursor(line-1, 0)
		switch {
		case i < len(vars) && vars[i] != "":
			sel.Text = vars[i]
		case i < len(columns) && columns[i] >= 1:
			sel = document.Cursor(line-1, columns[i]-1)
		default:
			return nil, fmt.Errorf("line %d has no --column or --var", line)
		}
		sels = append(sels, sel)
	}
	return sels, nil
}

func newBulkCmd(op engine.Operation, short string) *cobra.Command {
	c := &cobra.Command{
		Use:   string(op) + " [paths...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, overrides, _, err := setup(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"."}
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			showDiff, _ := cmd.Flags().GetBool("diff")
			workers, _ := cmd.Flags().GetInt("workers")

			files, err := utils.ExpandPaths(args)
			if err != nil {
				return err
			}
			out := newPrinter(cmd.OutOrStdout())
			if len(files) == 0 {
				out.warn("No JavaScript or TypeScript files found")
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			results, err := e.ProcessFiles(ctx, files, op, engine.FileOptions{
				Overrides: overrides,
				DryRun:    dryRun || op == engine.OpDetect,
				Diff:      showDiff,
				Workers:   workers,
			})
			if err != nil {
				return err
			}
			return report(out, op, results)
		},
	}
	if op != engine.OpDetect {
		c.Flags().Bool("dry-run", false, "Compute the changes without writing files")
		c.Flags().Bool("diff", false, "Print the changes as unified diffs")
	}
	c.Flags().Int("workers", 0, "Files processed concurrently (default: number of CPUs)")
	return c
}

func report(out *printer, op engine.Operation, results []engine.FileResult) error {
	var messages, edits, files, failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			out.warn("%s: %v", out.path(r.Path), r.Err)
			continue
		}
		if len(r.Messages) == 0 {
			continue
		}
		files++
		messages += len(r.Messages)
		edits += r.Edits
		if op == engine.OpDetect {
			out.step("%s", out.path(r.Path))
			for _, m := range r.Messages {
				state := ""
				if m.IsCommented {
					state = " (commented)"
				}
				out.detail("%d: %s%s", m.Range.Start+1, strings.TrimSpace(m.CallText()), state)
			}
			continue
		}
		if r.Diff != "" {
			out.raw([]byte(r.Diff))
		}
		if r.Edits > 0 {
			out.step("%s: %d edits", out.path(r.Path), r.Edits)
		}
	}

	if op == engine.OpDetect {
		out.ok("Found %d statements in %d files", messages, files)
	} else {
		out.ok("%s: %d statements in %d files, %d edits", op, messages, files, edits)
	}
	if failed > 0 {
		return fmt.Errorf("%d files failed", failed)
	}
	return nil
}

func newWatchCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Keep file names and line numbers in debug statements up to date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, overrides, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			debounce, _ := cmd.Flags().GetDuration("debounce")

			out := newPrinter(cmd.OutOrStdout())
			w := watch.New(e, dir, watch.Options{
				Debounce:  debounce,
				Overrides: overrides,
				Logger:    logger,
				OnResult: func(r engine.FileResult) {
					switch {
					case r.Err != nil:
						out.warn("%s: %v", out.path(r.Path), r.Err)
					case r.Edits > 0:
						out.ok("Corrected %s (%d edits)", out.path(r.Path), r.Edits)
					}
				},
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			out.step("Watching %s (Ctrl+C to stop)", out.path(dir))
			return w.Run(ctx)
		},
	}
	c.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before a changed file is corrected")
	return c
}

func newMCPCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("project")
			server, err := mcp.NewServer(e, dir, Version, logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx)
		},
	}
	return c
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "logsmith %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
		},
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "logsmith",
		Short:         "Insert and manage debug log statements in JavaScript and TypeScript",
		Long:          "A CLI tool for inserting context-aware debug log statements and commenting,\nuncommenting, deleting or correcting them in bulk",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("project", ".", "Project directory used to load .logsmith.* and .env")
	pf.String("log-level", "", "Diagnostic log level: debug, info, warn, error (env LOGSMITH_LOG_LEVEL)")
	pf.String("log-function", "", "Override the configured log function")
	pf.String("log-type", "", "Override the configured console method")
	pf.String("delimiter", "", "Override the configured delimiter")

	rootCmd.AddCommand(newInsertCmd())
	rootCmd.AddCommand(newBulkCmd(engine.OpDetect, "List generated debug log statements"))
	rootCmd.AddCommand(newBulkCmd(engine.OpComment, "Comment out generated debug log statements"))
	rootCmd.AddCommand(newBulkCmd(engine.OpUncomment, "Uncomment generated debug log statements"))
	rootCmd.AddCommand(newBulkCmd(engine.OpDelete, "Delete generated debug log statements"))
	rootCmd.AddCommand(newBulkCmd(engine.OpCorrect, "Update file names and line numbers in generated debug log statements"))
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
