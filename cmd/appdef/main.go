// Package main provides the CLI entrypoint for appdef.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/appdef/internal/appdef"
	"github.com/verte-zerg/appdef/internal/config"
	"github.com/verte-zerg/appdef/internal/emit"
	"github.com/verte-zerg/appdef/internal/historyui"
	"github.com/verte-zerg/appdef/internal/model"
	"github.com/verte-zerg/appdef/internal/report"
	"github.com/verte-zerg/appdef/internal/store"
	"github.com/verte-zerg/appdef/internal/xmltree"
)

const (
	defaultDataDir = "data"
	defaultInput   = "appdef.xml"
	defaultFormat  = string(emit.FormatJS)
	defaultLast    = 20
)

var (
	convertDataDir       string
	convertInput         string
	convertOut           string
	convertFormat        string
	convertPretty        bool
	convertVerbose       bool
	convertSkipUnchanged bool
	convertNoHistory     bool

	historySource string
	historyLast   int
	historyPlain  bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "appdef",
		Short:         "Convert an application definition into a typed configuration",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runConvertCmd,
	}
	addConvertFlags(rootCmd)

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert appdef.xml (default command)",
		Args:  cobra.NoArgs,
		RunE:  runConvertCmd,
	}
	addConvertFlags(convertCmd)

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&convertDataDir, "data-dir", defaultDataDir, "project data directory")
	cmd.Flags().StringVar(&convertInput, "input", defaultInput, "definition file, relative to --data-dir")
	cmd.Flags().StringVar(&convertOut, "out", "", "output path (default depends on --format)")
	cmd.Flags().StringVar(&convertFormat, "format", defaultFormat, "output format: js, json or yaml")
	cmd.Flags().BoolVar(&convertPretty, "pretty", false, "indent JSON output")
	cmd.Flags().BoolVar(&convertVerbose, "verbose", false, "log per-section counts")
	cmd.Flags().BoolVar(&convertSkipUnchanged, "skip-unchanged", false, "skip when the source matches the last recorded run")
	cmd.Flags().BoolVar(&convertNoHistory, "no-history", false, "do not record the run")
}

func runConvertCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "data-dir", &convertDataDir, fileCfg.Convert.DataDir)
	applyStringConfig(cmd, "input", &convertInput, fileCfg.Convert.Input)
	applyStringConfig(cmd, "out", &convertOut, fileCfg.Convert.Out)
	applyStringConfig(cmd, "format", &convertFormat, fileCfg.Convert.Format)
	applyBoolConfig(cmd, "pretty", &convertPretty, fileCfg.Convert.Pretty)
	applyBoolConfig(cmd, "verbose", &convertVerbose, fileCfg.Convert.Verbose)
	applyBoolConfig(cmd, "skip-unchanged", &convertSkipUnchanged, fileCfg.Convert.SkipUnchanged)
	applyBoolConfig(cmd, "no-history", &convertNoHistory, fileCfg.Convert.NoHistory)

	opts := model.ConvertOptions{
		DataDir:       convertDataDir,
		Input:         convertInput,
		Out:           convertOut,
		Format:        strings.ToLower(strings.TrimSpace(convertFormat)),
		Pretty:        convertPretty,
		Verbose:       convertVerbose,
		SkipUnchanged: convertSkipUnchanged,
		NoHistory:     convertNoHistory,
	}
	env := convertEnv{
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		dbPath: config.DefaultDBPath(),
		now:    time.Now,
	}
	return convertProject(cmd.Context(), opts, env)
}

type convertEnv struct {
	stdout io.Writer
	stderr io.Writer
	dbPath string
	now    func() time.Time
}

// convertProject runs one conversion: read, convert, render, write, record, report.
func convertProject(ctx context.Context, opts model.ConvertOptions, env convertEnv) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := model.Validate(opts); err != nil {
		return err
	}
	format, err := emit.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	sourcePath, err := filepath.Abs(resolveInputPath(opts))
	if err != nil {
		return fmt.Errorf("failed to resolve input: %w", err)
	}
	outPath := opts.Out
	if outPath == "" {
		outPath = emit.DefaultPath(format)
	}
	color := report.ShouldUseColor(env.stdout)

	started := env.now()
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", sourcePath, err)
	}
	digest := sha256Hex(data)

	var st *store.Store
	if !opts.NoHistory {
		st, err = store.Open(env.dbPath)
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf(env.stderr, "failed to close db: %v\n", cerr)
			}
		}()
	}

	if opts.SkipUnchanged && st != nil {
		last, err := st.LatestRunForSource(ctx, sourcePath)
		if err != nil {
			return fmt.Errorf("failed to load last run: %w", err)
		}
		if unchanged(last, digest, outPath, string(format), opts.Pretty) {
			return report.WriteSkipped(env.stdout, last, env.now(), color)
		}
	}

	root, err := xmltree.ParseBytes(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", sourcePath, err)
	}
	converter := appdef.NewConverter(
		appdef.WithLogger(newLogger(env.stderr)),
		appdef.WithVerbose(opts.Verbose),
	)
	cfg, summary, err := converter.Convert(root)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", sourcePath, err)
	}
	rendered, err := emit.Render(cfg, format, opts.Pretty)
	if err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}
	if err := emit.WriteFile(outPath, rendered); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	if st != nil {
		run := model.Run{
			SourcePath: sourcePath,
			Digest:     digest,
			AppName:    summary.Name,
			OutputPath: outPath,
			Format:     string(format),
			Pretty:     opts.Pretty,
			OutputSize: int64(len(rendered)),
			Warnings:   len(summary.Warnings),
			StartedAt:  started,
			EndedAt:    env.now(),
		}
		if _, err := st.InsertRun(ctx, run, runSections(summary)); err != nil {
			logErrf(env.stderr, "failed to record run: %v\n", err)
		}
	}

	out := report.Output{Path: outPath, Format: string(format), Bytes: len(rendered), Sections: opts.Verbose}
	return report.WriteSummary(env.stdout, summary, out, color)
}

func resolveInputPath(opts model.ConvertOptions) string {
	if filepath.IsAbs(opts.Input) {
		return opts.Input
	}
	return filepath.Join(opts.DataDir, opts.Input)
}

func unchanged(last *model.Run, digest, outPath, format string, pretty bool) bool {
	if last == nil || last.Digest != digest || last.OutputPath != outPath {
		return false
	}
	if last.Format != format || last.Pretty != pretty {
		return false
	}
	_, err := os.Stat(outPath)
	return err == nil
}

func runSections(summary *appdef.Summary) []model.RunSection {
	sections := make([]model.RunSection, 0, len(summary.Sections))
	for _, sc := range summary.Sections {
		sections = append(sections, model.RunSection{Section: sc.Section, Count: sc.Count})
	}
	return sections
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded conversions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historySource, "source", "", "only runs of this definition file")
	cmd.Flags().IntVar(&historyLast, "last", defaultLast, "limit to last N runs (0 for all)")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a table instead of the interactive view")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "last", &historyLast, fileCfg.History.Last)
	applyBoolConfig(cmd, "plain", &historyPlain, fileCfg.History.Plain)

	cfg := model.HistoryConfig{Source: historySource, Last: historyLast, Plain: historyPlain}
	if cfg.Source != "" {
		abs, err := filepath.Abs(cfg.Source)
		if err != nil {
			return fmt.Errorf("invalid --source value: %w", err)
		}
		cfg.Source = abs
	}
	if err := model.Validate(cfg); err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf(cmd.ErrOrStderr(), "failed to close db: %v\n", cerr)
		}
	}()

	out := cmd.OutOrStdout()
	if cfg.Plain || !report.ShouldUseColor(out) {
		runs, err := st.ListRuns(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		return report.WriteHistory(out, runs, time.Now(), false)
	}

	ui := historyui.NewModel(st, cfg)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if _, err := config.EnsureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
