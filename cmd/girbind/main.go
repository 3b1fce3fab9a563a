package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/girbind"
	"github.com/jward/girbind/scripts"
)

var (
	flagDB        string
	flagFormat    string
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// logger is built from --log-level and --log-format before any command runs.
var logger = slog.New(slog.DiscardHandler)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "girbind",
	Short:         "Resolve GObject Introspection repositories and plan their bindings",
	Long:          "girbind loads GIR documents, resolves every type reference across namespaces, selects a marshaling strategy for every value crossing the native boundary, and indexes the result into a SQLite database for queries and emitters.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		l, err := newLogger(flagLogLevel, flagLogFormat)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .girbind/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "project file listing the libraries to bind")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format: text|json")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(marshalCmd)
	rootCmd.AddCommand(scriptCmd)
}

// newLogger builds the stderr logger for the CLI.
func newLogger(level, format string) (*slog.Logger, error) {
	lvl, err := parseLogLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: must be text or json", format)
	}
}

// parseLogLevel maps a --log-level value to a slog level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be debug, info, warn or error", level)
	}
}

// --- Document loading flags shared by resolve, index, marshal and script ---

var (
	flagGIRDirs   []string
	flagLibraries []string
	flagSerial    bool
)

func addDocumentFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&flagGIRDirs, "gir-dir", nil, "directory searched for included documents (repeatable)")
	cmd.Flags().StringSliceVar(&flagLibraries, "library", nil, "Name-Version root looked up in --gir-dir with its includes (repeatable)")
	cmd.Flags().BoolVar(&flagSerial, "serial", false, "build documents one at a time")
}

// newEngine loads and resolves the project's documents. The returned
// engine is sealed.
func newEngine(ctx context.Context, p *project, opts ...girbind.Option) (*girbind.Engine, error) {
	opts = append([]girbind.Option{
		girbind.WithLogger(logger),
		girbind.WithParallel(!flagSerial),
	}, opts...)
	e, err := girbind.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	if err := e.LoadFiles(ctx, p.documents); err != nil {
		e.Close()
		return nil, fmt.Errorf("loading: %w", err)
	}
	if err := e.Resolve(ctx); err != nil {
		e.Close()
		return nil, fmt.Errorf("resolving: %w", err)
	}
	return e, nil
}

// --- resolve ---

var resolveCmd = &cobra.Command{
	Use:   "resolve [path...]",
	Short: "Load and resolve GIR documents",
	Long:  "Loads every document, resolves all type references and reports per-namespace counts. Paths may be .gir files or directories searched recursively.",
	RunE:  runResolve,
}

func init() {
	addDocumentFlags(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	p, err := loadProject(args)
	if err != nil {
		return outputError("resolve", err)
	}
	e, err := newEngine(cmd.Context(), p)
	if err != nil {
		return outputError("resolve", err)
	}
	defer e.Close()

	repos, err := e.Repositories()
	if err != nil {
		return outputError("resolve", err)
	}
	summaries := make([]CLIRepository, 0, len(repos))
	for _, repo := range repos {
		summaries = append(summaries, repositoryToCLI(repo))
	}
	count := len(summaries)
	return outputResult(CLIResult{
		Command:    "resolve",
		Results:    summaries,
		TotalCount: &count,
	})
}

// --- index ---

var (
	flagForce  bool
	flagStrict bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path...]",
	Short: "Index resolved GIR documents for queries",
	Long:  "Loads and resolves every document, then writes namespaces, symbols, references, callables and marshaling decisions to the SQLite database. Unchanged documents are skipped.",
	RunE:  runIndex,
}

func init() {
	addDocumentFlags(indexCmd)
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
	indexCmd.Flags().BoolVar(&flagStrict, "strict", false, "fail when any conversion has no marshaling strategy")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	p, err := loadProject(args)
	if err != nil {
		return err
	}

	// Ensure the database directory exists.
	dbDir := filepath.Dir(p.dbPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dbDir, err)
	}

	// Handle --force: delete the DB file entirely.
	if flagForce {
		if err := os.Remove(p.dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", p.dbPath)
	}

	ctx := cmd.Context()
	e, err := newEngine(ctx, p, girbind.WithStore(p.dbPath), girbind.WithStrict(flagStrict))
	if err != nil {
		return err
	}
	defer e.Close()
	resolveDuration := time.Since(start)

	indexStart := time.Now()
	stats, err := e.Index(ctx)
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}
	indexDuration := time.Since(indexStart)

	fmt.Fprintf(os.Stderr, "Indexed %d namespace(s), skipped %d in %s (resolve: %s, index: %s)\n",
		stats.Namespaces, stats.Skipped,
		time.Since(start).Round(time.Millisecond),
		resolveDuration.Round(time.Millisecond),
		indexDuration.Round(time.Millisecond),
	)
	if stats.Placeholders > 0 || stats.Unsupported > 0 {
		fmt.Fprintf(os.Stderr, "Marshaling gaps: %d placeholder(s), %d unsupported\n", stats.Placeholders, stats.Unsupported)
	}
	fmt.Fprintf(os.Stderr, "Database: %s\n", p.dbPath)
	return nil
}

// --- script ---

var (
	flagEmitter    string
	flagScript     string
	flagScriptsDir string
	flagOutputDir  string
)

var scriptCmd = &cobra.Command{
	Use:   "script [path...]",
	Short: "Run an emitter script over the resolved model",
	Long:  "Loads and resolves every document, then runs a Risor emitter script. Scripts write generated files below --output-dir.",
	RunE:  runScript,
}

func init() {
	addDocumentFlags(scriptCmd)
	scriptCmd.Flags().StringVar(&flagEmitter, "emitter", "", "built-in emitter to run (default: csharp)")
	scriptCmd.Flags().StringVar(&flagScript, "script", "", "script path relative to the scripts directory (overrides --emitter)")
	scriptCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "load scripts from disk path instead of embedded")
	scriptCmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "directory generated files are written to (default: generated)")
}

func runScript(cmd *cobra.Command, args []string) error {
	p, err := loadProject(args)
	if err != nil {
		return err
	}
	if flagEmitter != "" {
		p.emitter = flagEmitter
	}
	if flagScriptsDir != "" {
		p.scriptsDir = flagScriptsDir
	}
	if flagOutputDir != "" {
		p.outputDir = flagOutputDir
	}

	// Script source: a scripts directory overrides the embedded FS.
	opts := []girbind.Option{girbind.WithOutputDir(p.outputDir)}
	if p.scriptsDir != "" {
		opts = append(opts, girbind.WithScriptsDir(p.scriptsDir))
	} else {
		opts = append(opts, girbind.WithScriptsFS(scripts.FS))
	}

	ctx := cmd.Context()
	e, err := newEngine(ctx, p, opts...)
	if err != nil {
		return err
	}
	defer e.Close()

	script := flagScript
	if script == "" {
		script = "emit/" + p.emitter + ".risor"
	}
	if err := e.RunScript(ctx, script, nil); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Generated %s bindings in %s\n", p.emitter, p.outputDir)
	return nil
}
