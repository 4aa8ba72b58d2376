package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/elarabyomar/PFA-sub000/internal/app"
	"github.com/elarabyomar/PFA-sub000/internal/audit"
	"github.com/elarabyomar/PFA-sub000/internal/backend"
	"github.com/elarabyomar/PFA-sub000/internal/config"
	"github.com/elarabyomar/PFA-sub000/internal/explorer"
	"github.com/elarabyomar/PFA-sub000/internal/fk"
	"github.com/elarabyomar/PFA-sub000/internal/history"
	"github.com/elarabyomar/PFA-sub000/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configFlag   string
		themeFlag    string
		pageSizeFlag int
		noHistory    bool
	)

	rootCmd := &cobra.Command{
		Use:   "schemadesk [backend-url]",
		Short: "A terminal explorer and editor for any table behind a schema API",
		Long: `schemadesk browses and edits the tables exposed by a catalog/CRUD
HTTP backend. Forms are generated from each table's structure, and
foreign keys are shown as readable labels.

Examples:
  schemadesk                                   # Use backend.url from the config
  schemadesk http://localhost:8080/api         # Explicit backend
  schemadesk serve --demo                      # Reference backend with demo data
  schemadesk export clients -o clients.csv     # Export a table`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(configFlag)
			if len(args) > 0 {
				cfg.Backend.URL = args[0]
			}
			if themeFlag != "" {
				cfg.Theme = themeFlag
			}
			if pageSizeFlag > 0 {
				cfg.Results.PageSize = pageSizeFlag
			}

			// The terminal belongs to the TUI, so diagnostics go to a file.
			logger, closeLog := tuiLogger(cfg)
			defer closeLog()

			client, err := backend.NewClient(cfg.Backend.URL, backend.Options{
				Timeout: cfg.Backend.Timeout,
				Headers: cfg.Backend.Headers,
			})
			if err != nil {
				return err
			}

			var hist *history.History
			if !noHistory {
				hist, err = history.New()
				if err != nil {
					fmt.Fprintf(os.Stderr, "Warning: could not open history: %v\n", err)
				}
			}
			if hist != nil {
				defer hist.Close()
			}

			auditLog := openAudit(cfg)
			if auditLog != nil {
				defer auditLog.Close()
			}

			session := explorer.New(client, explorer.Options{
				PageSize:   cfg.Results.PageSize,
				SampleSize: cfg.Backend.SampleSize,
				Registry:   labelRegistry(cfg.Labels),
				Logger:     logger,
				Audit:      auditLog,
				BackendURL: cfg.Backend.URL,
			})
			defer session.Close()

			logger.Info("starting", "backend", audit.SanitizeURL(cfg.Backend.URL), "version", version)

			model := app.New(cfg, session, hist, audit.SanitizeURL(cfg.Backend.URL))
			p := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running application: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file path")
	rootCmd.Flags().StringVarP(&themeFlag, "theme", "t", "", "Color theme")
	rootCmd.Flags().IntVar(&pageSizeFlag, "page-size", 0, "Rows per page")
	rootCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record recently opened tables")

	rootCmd.AddCommand(newServeCmd(&configFlag), newExportCmd(&configFlag), newVersionCmd())
	return rootCmd
}

// loadConfig reads path (or the default config file), then applies
// SCHEMADESK_* environment overrides. A broken config file is reported and
// replaced by the defaults.
func loadConfig(path string) *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid config, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
		cfg.ApplyEnv(os.Getenv)
	}
	return cfg
}

// tuiLogger installs a logger writing to the configured log file. When the
// file cannot be used, logs are discarded.
func tuiLogger(cfg *config.Config) (*slog.Logger, func()) {
	level := logging.ParseLevel(cfg.Log.Level)
	format := logging.ParseFormat(cfg.Log.Format)

	path, err := cfg.LogPath()
	if err != nil {
		return logging.Init(level, format, io.Discard), func() {}
	}
	w := logging.FileWriter(path, cfg.Audit.MaxSizeMB)
	return logging.Init(level, format, w), func() { _ = w.Close() }
}

func openAudit(cfg *config.Config) *audit.Logger {
	if !cfg.Audit.Enabled {
		return nil
	}
	path, err := cfg.AuditPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not resolve audit log path: %v\n", err)
		return nil
	}
	l, err := audit.New(path, cfg.Audit.MaxSizeMB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open audit log: %v\n", err)
		return nil
	}
	return l
}

// labelRegistry returns the built-in FK label rules overlaid with the
// configured templates.
func labelRegistry(templates map[string]string) *fk.Registry {
	reg := fk.DefaultRegistry()
	for table, tmpl := range templates {
		reg.RegisterTemplate(table, tmpl)
	}
	return reg
}
