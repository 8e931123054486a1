// Package cmd wires the CLI entrypoint: flags, config loading, and program
// startup.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"duet/internal/config"
	"duet/internal/diffload"
	"duet/internal/history"
	"duet/internal/log"
	"duet/internal/pubsub"
	"duet/internal/search"
	"duet/internal/tracing"
	"duet/internal/ui/dualpane"
)

func init() {
	// Force lipgloss/termenv to query the terminal background color BEFORE
	// the Bubble Tea program starts, so the OSC 11 response cannot race the
	// input loop and appear as garbage in text inputs.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "duet <before> <after>",
	Short: "A side-by-side diff viewer with aligned scrolling",
	Long: `duet compares two files or directory trees side by side, keeping both
panes positionally aligned while scrolling and drawing connectors between
corresponding changes. Search runs across every file of the comparison.`,
	Version: version,
	Args:    cobra.ExactArgs(2),
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/duet/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"write a debug log to ~/.config/duet/debug.log")
	rootCmd.Flags().Bool("no-watch", false,
		"disable reloading files when they change on disk")
	rootCmd.Flags().Bool("no-history", false,
		"do not persist search history")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("sync.anchor_fraction", defaults.Sync.AnchorFraction)
	viper.SetDefault("sync.update_threshold", defaults.Sync.UpdateThreshold)
	viper.SetDefault("sync.echo_tolerance", defaults.Sync.EchoTolerance)
	viper.SetDefault("sync.primary_timeout_ms", defaults.Sync.PrimaryTimeoutMs)
	viper.SetDefault("search.match_cap", defaults.Search.MatchCap)
	viper.SetDefault("search.initial_display", defaults.Search.InitialDisplay)
	viper.SetDefault("search.display_increment", defaults.Search.DisplayIncrement)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.show_scrollbars", defaults.UI.ShowScrollbars)
	viper.SetDefault("ui.show_connectors", defaults.UI.ShowConnectors)
	viper.SetDefault("ui.file_list_width", defaults.UI.FileListWidth)
	viper.SetDefault("theme.addition", defaults.Theme.Addition)
	viper.SetDefault("theme.deletion", defaults.Theme.Deletion)
	viper.SetDefault("theme.change", defaults.Theme.Change)
	viper.SetDefault("theme.highlight", defaults.Theme.Highlight)
	viper.SetDefault("theme.subtle", defaults.Theme.Subtle)
	viper.SetDefault("theme.error", defaults.Theme.Error)
	viper.SetDefault("history.enabled", defaults.History.Enabled)
	viper.SetDefault("watch.enabled", defaults.Watch.Enabled)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.AddConfigPath(filepath.Join(home, ".config", "duet"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			home, homeErr := os.UserHomeDir()
			if homeErr == nil {
				defaultPath := filepath.Join(home, ".config", "duet", "config.yaml")
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runApp(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if debug {
		home, _ := os.UserHomeDir()
		logPath := filepath.Join(home, ".config", "duet", "debug.log")
		if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err == nil {
			if cleanup, err := log.Init(logPath); err == nil {
				defer cleanup()
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src, watcher, err := buildSource(args[0], args[1])
	if err != nil {
		return err
	}

	loader := diffload.NewCachedLoader(diffload.NewLoader(src))

	var watchEvents <-chan pubsub.Event[diffload.Change]
	noWatch, _ := cmd.Flags().GetBool("no-watch")
	if watcher != nil && cfg.Watch.Enabled && !noWatch {
		w, err := diffload.NewWatcher(watcher, loader)
		if err != nil {
			log.ErrorErr(log.CatWatch, "starting watcher", err)
		} else {
			defer w.Close()
			watchEvents = w.Subscribe(ctx)
			go w.Run(ctx)
		}
	}

	tracer, err := tracing.NewProvider(tracingConfig())
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	var hist *history.Store
	noHistory, _ := cmd.Flags().GetBool("no-history")
	if cfg.History.Enabled && !noHistory {
		path := cfg.History.Path
		if path == "" {
			path = config.DefaultHistoryPath()
		}
		if path != "" {
			hist, err = history.Open(path)
			if err != nil {
				log.ErrorErr(log.CatDB, "opening search history", err, "path", path)
				hist = nil
			} else {
				defer hist.Close()
			}
		}
	}

	coord := search.NewCoordinator(
		diffload.SearchAdapter{Loader: loader},
		nil,
		search.Config{
			MatchCap:         cfg.Search.MatchCap,
			InitialDisplay:   cfg.Search.InitialDisplay,
			DisplayIncrement: cfg.Search.DisplayIncrement,
		},
		search.WithTracer(tracer.Tracer()),
	)
	defer coord.Close()

	zone.NewGlobal()
	model := dualpane.New(ctx, cfg, src, loader, coord, hist, watchEvents)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// buildSource picks a directory-pair or file-pair source from the arguments.
// Both must be the same kind. The returned DirSource is non-nil only for
// directory comparisons, where watching is supported.
func buildSource(beforePath, afterPath string) (diffload.Source, *diffload.DirSource, error) {
	beforeInfo, err := os.Stat(beforePath)
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", beforePath, err)
	}
	afterInfo, err := os.Stat(afterPath)
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", afterPath, err)
	}
	if beforeInfo.IsDir() != afterInfo.IsDir() {
		return nil, nil, fmt.Errorf("cannot compare a directory with a file")
	}

	if beforeInfo.IsDir() {
		src, err := diffload.NewDirSource(beforePath, afterPath)
		if err != nil {
			return nil, nil, err
		}
		return src, src, nil
	}
	src, err := diffload.NewFilePairSource(beforePath, afterPath)
	if err != nil {
		return nil, nil, err
	}
	return src, nil, nil
}

func tracingConfig() tracing.Config {
	tc := cfg.Tracing
	if tc.Exporter == "file" && tc.FilePath == "" {
		tc.FilePath = config.DefaultTracesFilePath()
	}
	return tc
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
