package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/evanschultz/taskboard/internal/adapters/server"
	"github.com/evanschultz/taskboard/internal/adapters/server/common"
	"github.com/evanschultz/taskboard/internal/adapters/storage/memory"
	"github.com/evanschultz/taskboard/internal/adapters/storage/sqlite"
	"github.com/evanschultz/taskboard/internal/app"
	"github.com/evanschultz/taskboard/internal/config"
	"github.com/evanschultz/taskboard/internal/domain"
	"github.com/evanschultz/taskboard/internal/ids"
	"github.com/evanschultz/taskboard/internal/platform"
	"github.com/evanschultz/taskboard/internal/seed"
	"github.com/evanschultz/taskboard/internal/tui"
)

// version is stamped at build time.
var version = "dev"

// program is the subset of tea.Program the root command drives.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program; tests replace it.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// seedFS is the filesystem seed files are read from.
var seedFS afero.Fs = afero.NewOsFs()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run executes the CLI with args.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	// A missing .env is fine.
	_ = godotenv.Load()

	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// cliOptions holds the persistent flags.
type cliOptions struct {
	configPath string
	seedPath   string
	appName    string
	devMode    bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{appName: "taskboard", devMode: version == "dev"}
	if envApp := strings.TrimSpace(os.Getenv("TASKBOARD_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}
	if envDev, ok := parseBoolEnv("TASKBOARD_DEV_MODE"); ok {
		opts.devMode = envDev
	}

	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Track client tasks from the terminal",
		Long:          "taskboard keeps a list of client tasks with status, priority and due dates, and shows them as a keyboard-driven board.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.seedPath, "seed", "", "path to seed YAML (clients and tasks)")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newServeCommand(opts, stderr),
		newListCommand(opts, stdout, stderr),
		newStatsCommand(opts, stdout, stderr),
		newExportCommand(opts, stdout, stderr),
		newPathsCommand(opts, stdout),
	)
	return root
}

func newServeCommand(opts *cliOptions, stderr io.Writer) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := openBoard(cmd.Context(), opts, stderr, true)
			if err != nil {
				return err
			}
			defer b.close()
			if strings.TrimSpace(bind) != "" {
				b.cfg.Server.HTTPBind = bind
			}

			b.logger.Info("command flow start", "command", "serve", "bind", b.cfg.Server.HTTPBind)
			err = server.Run(cmd.Context(), server.Config{
				HTTPBind:      b.cfg.Server.HTTPBind,
				APIEndpoint:   b.cfg.Server.APIEndpoint,
				MCPEndpoint:   b.cfg.Server.MCPEndpoint,
				ServerName:    opts.appName,
				ServerVersion: version,
			}, server.Dependencies{
				Board:  common.NewAppServiceAdapter(b.svc),
				Logger: b.logger.Primary(),
			})
			if err != nil {
				b.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run server: %w", err)
			}
			b.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "override server.http_bind")
	return cmd
}

func newListCommand(opts *cliOptions, stdout, stderr io.Writer) *cobra.Command {
	var text, status, priority string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the tasks that match a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := app.ParseQuery(text, status, priority)
			if err != nil {
				return err
			}
			b, err := openBoard(cmd.Context(), opts, stderr, true)
			if err != nil {
				return err
			}
			defer b.close()

			tasks, err := b.svc.VisibleTasks(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}
			if len(tasks) == 0 {
				_, _ = fmt.Fprintln(stdout, "no tasks")
				return nil
			}
			_, _ = fmt.Fprintln(stdout, renderTaskTable(tasks, b.svc.ClientName))
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "query", "q", "", "case-insensitive text in title, description or client name")
	cmd.Flags().StringVar(&status, "status", app.FilterAll, "status filter: all, todo, in-progress, done")
	cmd.Flags().StringVar(&priority, "priority", app.FilterAll, "priority filter: all, low, medium, high, urgent")
	return cmd
}

func newStatsCommand(opts *cliOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print task counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := openBoard(cmd.Context(), opts, stderr, true)
			if err != nil {
				return err
			}
			defer b.close()

			stats, err := b.svc.Statistics(cmd.Context())
			if err != nil {
				return fmt.Errorf("compute statistics: %w", err)
			}
			_, _ = fmt.Fprintf(stdout, "total: %d\n", stats.Total)
			_, _ = fmt.Fprintf(stdout, "todo: %d\n", stats.Todo)
			_, _ = fmt.Fprintf(stdout, "in_progress: %d\n", stats.InProgress)
			_, _ = fmt.Fprintf(stdout, "done: %d\n", stats.Done)
			_, _ = fmt.Fprintf(stdout, "completion: %d%%\n", stats.CompletionRate)
			return nil
		},
	}
}

func newExportCommand(opts *cliOptions, stdout, stderr io.Writer) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of clients, tasks and statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := openBoard(cmd.Context(), opts, stderr, true)
			if err != nil {
				return err
			}
			defer b.close()

			b.logger.Info("command flow start", "command", "export")
			if err := runExport(cmd.Context(), b.svc, outPath, stdout); err != nil {
				b.logger.Error("command flow failed", "command", "export", "err", err)
				return fmt.Errorf("run export command: %w", err)
			}
			b.logger.Info("command flow complete", "command", "export")
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

func newPathsCommand(opts *cliOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, seed and data paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "seed: %s\n", paths.SeedPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

// runTUI starts the interactive board.
func runTUI(ctx context.Context, opts *cliOptions, stderr io.Writer) error {
	b, err := openBoard(ctx, opts, stderr, false)
	if err != nil {
		return err
	}
	defer b.close()

	m := tui.NewModel(b.svc, tui.WithBoardFieldConfig(tui.BoardFieldConfig{
		ShowDescription: b.cfg.Board.ShowDescription,
		ShowTags:        b.cfg.Board.ShowTags,
	}))
	b.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		b.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	b.logger.Info("command flow complete", "command", "tui")
	return nil
}

// board is one opened task store with its runtime logger.
type board struct {
	svc     *app.Service
	cfg     config.Config
	logger  *runtimeLogger
	closers []func() error
}

// close releases the repository and log sinks.
func (b *board) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && b.logger != nil {
			b.logger.Warn("close failed", "err", err)
		}
	}
}

// openBoard resolves config and seed data, then builds the task store.
func openBoard(ctx context.Context, opts *cliOptions, stderr io.Writer, console bool) (*board, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
	if err != nil {
		return nil, err
	}
	configPath := resolvePath(opts.configPath, "TASKBOARD_CONFIG", paths.ConfigPath)
	cfg, err := config.Load(configPath, config.Default(paths.LogDir))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	// The TUI owns the terminal; runtime logs go to the dev file only.
	logger.SetConsoleEnabled(console)
	b := &board{cfg: cfg, logger: logger, closers: []func() error{logger.Close}}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode)
	logger.Debug("configuration loaded", "config_path", configPath, "backend", cfg.Storage.Backend, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	seedPath := resolveSeedPath(opts.seedPath, cfg.Seed.Path, paths.SeedPath)
	now := time.Now().UTC()
	data, err := seed.Load(seedFS, seedPath, now)
	if err != nil {
		b.close()
		return nil, fmt.Errorf("load seed data: %w", err)
	}
	logger.Info("seed data loaded", "path", seedPath, "clients", len(data.Clients), "tasks", len(data.Tasks))

	clients, err := domain.NewClientDirectory(data.Clients)
	if err != nil {
		b.close()
		return nil, fmt.Errorf("build client directory: %w", err)
	}
	repo, err := openRepository(cfg.Storage.Backend)
	if err != nil {
		b.close()
		return nil, err
	}
	if c, ok := repo.(io.Closer); ok {
		b.closers = append(b.closers, c.Close)
	}
	logger.Info("repository ready", "backend", cfg.Storage.Backend)

	kind, err := ids.ParseKind(cfg.IDs.Generator)
	if err != nil {
		b.close()
		return nil, err
	}
	b.svc = app.NewService(repo, clients, ids.New(kind, time.Now), time.Now, app.ServiceConfig{
		DefaultStatus:   domain.Status(cfg.Board.DefaultStatus),
		DefaultPriority: domain.Priority(cfg.Board.DefaultPriority),
	})
	if err := b.svc.Seed(ctx, data.Tasks); err != nil {
		b.close()
		return nil, fmt.Errorf("seed board: %w", err)
	}
	logger.Debug("application service initialized", "id_generator", kind)
	return b, nil
}

// openRepository selects the task store backend.
func openRepository(backend config.StorageBackend) (app.Repository, error) {
	switch backend {
	case config.StorageSQLite:
		repo, err := sqlite.OpenInMemory()
		if err != nil {
			return nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		return repo, nil
	case config.StorageMemory, "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// resolvePath prefers the flag, then the env var, then fallback.
func resolvePath(flagValue, envName, fallback string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v
	}
	return fallback
}

// resolveSeedPath picks the seed file. An empty result selects the built-in board.
func resolveSeedPath(flagValue, configValue, defaultPath string) string {
	if v := resolvePath(flagValue, "TASKBOARD_SEED", configValue); v != "" {
		return v
	}
	if ok, _ := afero.Exists(seedFS, defaultPath); ok {
		return defaultPath
	}
	return ""
}

// renderTaskTable lays tasks out as a bordered table.
func renderTaskTable(tasks []domain.Task, clientName func(string) string) string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		due := "-"
		if task.DueDate != nil {
			due = task.DueDate.Format(app.DueDateLayout)
		}
		rows = append(rows, []string{task.ID, string(task.Status), string(task.Priority), clientName(task.ClientID), due, task.Title})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STATUS", "PRIORITY", "CLIENT", "DUE", "TITLE").
		Rows(rows...).
		String()
}

// runExport writes the board snapshot to outPath or stdout.
func runExport(ctx context.Context, svc *app.Service, outPath string, stdout io.Writer) error {
	snap, err := svc.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "" || outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// parseBoolEnv reads a boolean env var; ok is false when unset or malformed.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures the log sinks for one run.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := charmLog.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})
	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode || !cfg.DevFile.Enabled {
		return logger, nil
	}

	devLogPath := devLogFilePath(cfg.DevFile.Dir, appName, now().UTC())
	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// Primary returns the sink request logs go to: the dev file when present,
// otherwise the console while it is enabled.
func (l *runtimeLogger) Primary() *charmLog.Logger {
	if l == nil {
		return nil
	}
	if len(l.sinks) > 1 {
		return l.sinks[len(l.sinks)-1]
	}
	if l.consoleEnabled {
		return l.consoleSink
	}
	return nil
}

func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	return sink != l.consoleSink || l.consoleEnabled
}

func (l *runtimeLogger) log(level charmLog.Level, msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if l.shouldLogToSink(sink) {
			sink.Log(level, msg, keyvals...)
		}
	}
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) { l.log(charmLog.DebugLevel, msg, keyvals...) }

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) { l.log(charmLog.InfoLevel, msg, keyvals...) }

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) { l.log(charmLog.WarnLevel, msg, keyvals...) }

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) { l.log(charmLog.ErrorLevel, msg, keyvals...) }

// devLogFilePath resolves the per-day dev log file. A relative dir is taken
// from the working directory.
func devLogFilePath(dir, appName string, now time.Time) string {
	baseDir := strings.TrimSpace(dir)
	if baseDir == "" {
		baseDir = filepath.Join(".taskboard", "log")
	}
	return filepath.Join(filepath.Clean(baseDir), fmt.Sprintf("%s-%s.log", sanitizeLogFileStem(appName), now.Format("20060102")))
}

// sanitizeLogFileStem normalizes app names into safe file-name segments.
func sanitizeLogFileStem(appName string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	stem := strings.Trim(replacer.Replace(strings.TrimSpace(appName)), "-")
	if stem == "" {
		return "taskboard"
	}
	return stem
}
