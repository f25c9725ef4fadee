// Package cli wires the refer commands together.
package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/idelchi/refer/internal/dirstat"
	"github.com/idelchi/refer/internal/settings"
	"github.com/idelchi/refer/internal/snapshot"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// DefaultExcludes contains the default exclusion patterns for report.
//
//nolint:gochecknoglobals // Config constant
var DefaultExcludes = []string{`.*\.git/.*`, `.*node_modules/.*`}

// allowedOutputs lists the values accepted by --output.
//
//nolint:gochecknoglobals // Config constant
var allowedOutputs = []string{"table", "json"}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	Backend   string
	ConfigDir string
	DataDir   string
	LogDir    string
	MatchExt  string
	Output    string
	Debug     bool
}

func (o globalOptions) validate() error {
	if !slices.Contains(allowedOutputs, o.Output) {
		return fmt.Errorf("invalid output format %q: must be one of %v", o.Output, allowedOutputs)
	}

	if !slices.Contains(settings.Backends(), o.Backend) {
		return fmt.Errorf("invalid backend %q: must be one of %v", o.Backend, settings.Backends())
	}

	return nil
}

// Execute runs the CLI with the process arguments.
func (c CLI) Execute() error {
	return c.Command().Execute()
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:   "refer",
		Short: "Reference manager backend: settings and library statistics",
		Long: heredoc.Doc(`
			refer manages the settings and library statistics of the reference manager.

			Settings (theme and language) are kept in the config directory using the
			selected backend. Statistics are computed by scanning the data directory
			for reference files.

			Directories default to the per-user config, Documents and cache locations
			and may be overridden by flags or by REFER_CONFIG_DIR, REFER_DATA_DIR and
			REFER_LOG_DIR.
		`),
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return opts.validate()
		},
	}

	flags := root.PersistentFlags()
	flags.SortFlags = false
	flags.StringVar(&opts.Backend, "backend", settings.BackendJSON, "Settings backend: json or sqlite")
	flags.StringVar(&opts.ConfigDir, "config-dir", "", "Directory holding the settings store")
	flags.StringVar(&opts.DataDir, "data-dir", "", "Reference directory to scan")
	flags.StringVar(&opts.LogDir, "log-dir", "", "Directory receiving the log file")
	flags.StringVar(&opts.MatchExt, "match-ext", snapshot.DefaultExtension, "Extension of reference files")
	flags.StringVarP(&opts.Output, "output", "o", "table", "Output format: json or table")
	flags.BoolVar(&opts.Debug, "debug", false, "Enable debug output")

	root.AddCommand(
		settingsCommand(&opts),
		statCommand(&opts),
		reportCommand(&opts),
	)

	return root
}

func settingsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or change the stored settings",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the stored settings, falling back to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app) error {
				return a.getSettings(cmd.Context())
			})
		},
	}

	var (
		theme    string
		language string
	)

	set := &cobra.Command{
		Use:   "set",
		Short: "Change the theme and/or language",
		Long: heredoc.Doc(`
			Change the theme and/or language.

			Only the given flags are changed; other values are kept as stored.
		`),
		Example: heredoc.Doc(`
			refer settings set --theme dark
			refer settings set --language ru --backend sqlite
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("theme") && !cmd.Flags().Changed("language") {
				return errors.New("nothing to set: pass --theme and/or --language")
			}

			return withApp(cmd, opts, func(a *app) error {
				return a.setSettings(cmd.Context(), func(s settings.Settings) settings.Settings {
					if cmd.Flags().Changed("theme") {
						s.Theme = theme
					}

					if cmd.Flags().Changed("language") {
						s.Language = language
					}

					return s
				})
			})
		},
	}
	set.Flags().StringVar(&theme, "theme", "", "Theme: light or dark")
	set.Flags().StringVar(&language, "language", "", "Language code (e.g. en, ru)")

	toggle := &cobra.Command{
		Use:   "toggle-theme",
		Short: "Switch between the light and dark theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app) error {
				return a.setSettings(cmd.Context(), settings.Settings.Toggle)
			})
		},
	}

	cmd.AddCommand(get, set, toggle)

	return cmd
}

func statCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Scan the data directory and print library statistics",
		Long: heredoc.Doc(`
			Scan the data directory and print library statistics.

			The total size counts every file in the directory. The entry list only
			holds files with the match extension. Unreadable subtrees are skipped
			and listed in the output instead of failing the scan.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app) error {
				return a.stat(cmd.Context())
			})
		},
	}
}

func reportCommand(opts *globalOptions) *cobra.Command {
	var (
		reportOpts dirstat.Options
		minSizeStr string
	)

	cmd := &cobra.Command{
		Use:   "report [path]",
		Short: "Break down a directory by extension and list its largest files",
		Long: heredoc.Doc(`
			Break down a directory by extension and list its largest files.

			The path defaults to the data directory.
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reportOpts.Depth < 0 {
				return errors.New("depth cannot be negative")
			}

			if len(args) == 1 {
				reportOpts.Path = args[0]
			}

			size, err := humanize.ParseBytes(minSizeStr)
			if err != nil {
				return fmt.Errorf("invalid min-size: %w", err)
			}

			reportOpts.MinSize = int64(size) //nolint:gosec // Size conversion from humanize is safe

			return withApp(cmd, opts, func(a *app) error {
				return a.report(cmd.Context(), reportOpts)
			})
		},
	}

	addReportFlags(cmd.Flags(), &reportOpts, &minSizeStr)

	return cmd
}

// addReportFlags registers the report filters on flags.
func addReportFlags(flags *pflag.FlagSet, opts *dirstat.Options, minSize *string) {
	flags.SortFlags = false
	flags.StringSliceVarP(
		&opts.Extensions,
		"ext",
		"x",
		[]string{},
		"File suffixes to include (e.g., .refer,.pdf). Use '!' prefix to exclude (e.g., !.log)",
	)
	flags.StringVar(minSize, "min-size", "0KB", "Minimum file size (e.g., 1KB)")
	flags.IntVarP(&opts.TopN, "top", "t", 10, "Number of top files to display")
	flags.StringSliceVarP(&opts.Excludes, "exclude", "e", DefaultExcludes, "Regex patterns to exclude")
	flags.IntVarP(&opts.Depth, "depth", "d", 0, "Maximum traversal depth (0=unlimited)")
}
