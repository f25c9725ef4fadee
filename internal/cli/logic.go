package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idelchi/refer/internal/dirstat"
	"github.com/idelchi/refer/internal/logging"
	"github.com/idelchi/refer/internal/paths"
	"github.com/idelchi/refer/internal/settings"
	"github.com/idelchi/refer/internal/snapshot"
)

// app is the per-invocation context shared by the commands.
type app struct {
	opts   globalOptions
	dirs   paths.Dirs
	log    *zap.Logger
	out    io.Writer
	errOut io.Writer
}

// withApp resolves directories and the logger, then runs fn.
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(*app) error) error {
	dirs, err := paths.Resolve(paths.Dirs{
		Config: opts.ConfigDir,
		Data:   opts.DataDir,
		Log:    opts.LogDir,
	})
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{Debug: opts.Debug, Dir: dirs.Log})
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Debug("resolved directories",
		zap.String("config", dirs.Config),
		zap.String("data", dirs.Data),
		zap.String("log", dirs.Log),
	)

	return fn(&app{
		opts:   *opts,
		dirs:   dirs,
		log:    logger,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	})
}

func (a *app) openStore() (settings.Store, error) {
	store, err := settings.Open(a.opts.Backend, a.dirs.Config, a.log)
	if err != nil {
		return nil, fmt.Errorf("opening settings store: %w", err)
	}

	return store, nil
}

func (a *app) getSettings(ctx context.Context) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	current, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	return a.print(current, func(w io.Writer) error { return PrintSettings(current, w) })
}

// setSettings loads the stored settings, applies change, validates and saves.
func (a *app) setSettings(ctx context.Context, change func(settings.Settings) settings.Settings) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	current, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	updated := change(current)
	if err := updated.Validate(); err != nil {
		return err
	}

	if err := store.Save(ctx, updated); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	a.log.Info("settings saved",
		zap.String("backend", a.opts.Backend),
		zap.String("theme", updated.Theme),
		zap.String("language", updated.Language),
	)

	return a.print(updated, func(w io.Writer) error { return PrintSettings(updated, w) })
}

func (a *app) stat(ctx context.Context) error {
	holder := snapshot.New(a.dirs.Data, a.opts.MatchExt, a.dirs.Log, a.log)

	snap, err := holder.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refreshing statistics: %w", err)
	}

	return a.print(snap, func(w io.Writer) error { return PrintSnapshot(snap, w) })
}

func (a *app) report(ctx context.Context, opts dirstat.Options) error {
	if opts.Path == "" {
		opts.Path = a.dirs.Data
	}

	opts.Logger = a.log

	enableProgress := a.opts.Output != "json" && !a.opts.Debug && isTerminal(a.errOut)

	var progressHook func(files, bytes int64)

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(a.errOut, "\033[?25l")
		defer fmt.Fprint(a.errOut, "\033[?25h")

		progressHook = func(files, bytes int64) {
			msg := fmt.Sprintf("Scanning… %d files, %s",
				files, humanize.IBytes(uint64(bytes))) //nolint:gosec // Bytes is always positive
			fmt.Fprintf(a.errOut, "\r\033[2K%s\r", msg)
		}
	}

	stats, err := dirstat.Run(ctx, opts, progressHook)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(a.errOut, "\r\033[2K\r")
	}

	if err != nil {
		return err
	}

	return a.print(stats, func(w io.Writer) error { return PrintTable(stats, w) })
}

// print writes v as JSON or renders it with table, depending on --output.
func (a *app) print(v any, table func(io.Writer) error) error {
	if a.opts.Output == "json" {
		return PrintJSON(v, a.out)
	}

	return table(a.out)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}
