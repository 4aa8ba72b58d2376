package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/elarabyomar/PFA-sub000/internal/audit"
	"github.com/elarabyomar/PFA-sub000/internal/logging"
	"github.com/elarabyomar/PFA-sub000/internal/server"
	"github.com/elarabyomar/PFA-sub000/internal/store"
)

func newServeCmd(configFlag *string) *cobra.Command {
	var (
		driverFlag string
		dsnFlag    string
		addrFlag   string
		corsFlag   []string
		demoFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the table API over a SQL database",
		Long: `serve exposes every table of a database through the catalog/CRUD
API the explorer consumes. Settings come from the config file, then
SCHEMADESK_* variables (a .env file is honoured), then flags.

Examples:
  schemadesk serve --demo
  schemadesk serve --driver postgres --dsn postgres://crm@localhost/crm
  schemadesk serve --driver mysql --dsn 'crm:secret@tcp(localhost:3306)/crm'`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional
			_ = godotenv.Load()

			cfg := loadConfig(*configFlag)
			if cmd.Flags().Changed("driver") {
				cfg.Server.Driver = driverFlag
			}
			if cmd.Flags().Changed("dsn") {
				cfg.Server.DSN = dsnFlag
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addrFlag
			}
			if len(corsFlag) > 0 {
				cfg.Server.CORSOrigins = corsFlag
			}

			logging.Init(logging.ParseLevel(cfg.Log.Level), logging.ParseFormat(cfg.Log.Format), os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := store.Open(ctx, cfg.Server.Driver, cfg.Server.DSN)
			if err != nil {
				return err
			}
			defer st.Close()

			if demoFlag {
				if err := st.SeedDemo(ctx); err != nil {
					return err
				}
				logging.Info("demo data loaded", "driver", st.Driver())
			}

			srv := server.New(st, server.Options{
				CORSOrigins:     cfg.Server.CORSOrigins,
				Classifications: cfg.Server.Classifications,
				Labels:          cfg.Server.Labels,
				Descriptions:    cfg.Server.Descriptions,
			})

			printBanner(st.Driver(), cfg.Server.DSN, cfg.Server.Addr)
			logging.Info("listening", "addr", cfg.Server.Addr, "driver", st.Driver(), "dsn", audit.SanitizeDSN(cfg.Server.DSN))

			if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
				return err
			}
			logging.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&driverFlag, "driver", "", "Database driver ("+strings.Join(store.Drivers(), ", ")+")")
	cmd.Flags().StringVar(&dsnFlag, "dsn", "", "Database DSN (empty sqlite DSN means in-memory)")
	cmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address")
	cmd.Flags().StringSliceVar(&corsFlag, "cors", nil, "Allowed CORS origins")
	cmd.Flags().BoolVar(&demoFlag, "demo", false, "Create and fill the demo CRM tables")
	return cmd
}

func printBanner(driver, dsn, addr string) {
	label := color.New(color.FgCyan, color.Bold)
	value := color.New(color.FgYellow)

	color.New(color.FgGreen, color.Bold).Println("schemadesk table API")
	label.Print("  driver: ")
	value.Println(driver)
	label.Print("  dsn:    ")
	if dsn == "" {
		value.Println("(in-memory)")
	} else {
		value.Println(audit.SanitizeDSN(dsn))
	}
	label.Print("  url:    ")
	value.Println(apiURL(addr))
	fmt.Println()
}

// apiURL is the URL a local explorer would use for addr.
func apiURL(addr string) string {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + server.DefaultPrefix
}
