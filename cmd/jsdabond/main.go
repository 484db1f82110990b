// jsdabond: JSDA corporate bond reference prices with English headers.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/seenimoa/jsdabond/api"
	"github.com/seenimoa/jsdabond/internal/calendar"
	"github.com/seenimoa/jsdabond/internal/config"
	"github.com/seenimoa/jsdabond/internal/logging"
	"github.com/seenimoa/jsdabond/internal/pipeline"
	"github.com/seenimoa/jsdabond/internal/provider"
	"github.com/seenimoa/jsdabond/internal/providers"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals set up by the root command.
var (
	cfg *config.Config
	log *logrus.Logger
	svc *pipeline.Service
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ue *userError
		if errors.As(err, &ue) {
			fmt.Fprintln(os.Stderr, ue.msg)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// userError carries the message shown for a pipeline failure.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

// fail converts a pipeline error for printing by main.
func fail(err error) error {
	if err == nil {
		return nil
	}
	log.WithError(err).Debug("command failed")
	return &userError{msg: svc.UserMessage(err), err: err}
}

var rootCmd = &cobra.Command{
	Use:   "jsdabond",
	Short: "JSDA corporate bond reference prices viewer",
	Long: `jsdabond downloads the daily "Reference Statistical Prices for OTC Bond
Transactions" published by the Japan Securities Dealers Association,
translates the Japanese column headers to English and charts the
Average Compound Yield by maturity.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(curveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(holidaysCmd)
	rootCmd.AddCommand(noticesCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads config and wires logger, providers and the pipeline.
func setup(cmd *cobra.Command) error {
	var err error
	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	log = logging.New(cfg.Logging)

	reg := provider.NewRegistry()
	if err := providers.RegisterAllTo(reg, cfg); err != nil {
		return fmt.Errorf("failed to register providers: %w", err)
	}

	minDate, _ := utils.ParseDateJST(cfg.JSDA.MinDate)
	svc = pipeline.New(reg, calendar.New(), log, pipeline.Options{
		Concurrency: cfg.History.ConcurrentFetches,
		MaxDays:     cfg.History.MaxDays,
		MaxLookback: cfg.History.MaxLookback,
		MinDate:     minDate,
		LoadTimeout: 2 * cfg.JSDA.Timeout(),
	})

	if cfg.Calendar.FetchHolidays {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.JSDA.Timeout())
		defer cancel()
		if _, err := svc.RefreshHolidays(ctx, false); err != nil {
			log.WithError(err).Warn("holiday list unavailable, using built-in calendar")
		}
	}
	return nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jsdabond %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and provider reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.JSDA.Timeout())
		defer cancel()

		today := svc.Today()
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  jsdabond: System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (JST):    %s\n", utils.FormatDateTimeJST(utils.NowJST()))
		if reason := svc.Calendar().Reason(today); reason != "" {
			fmt.Printf("  Today:         no publication (%s)\n", reason)
		} else {
			fmt.Println("  Today:         business day")
		}
		fmt.Println()

		fmt.Println("  Configuration:")
		source := cfg.Source
		if source == "" {
			source = "(defaults)"
		}
		fmt.Printf("    Config file:   %s\n", source)
		fmt.Printf("    JSDA base URL: %s\n", cfg.JSDA.BaseURL)
		fmt.Printf("    Timeout:       %s\n", cfg.JSDA.Timeout())
		fmt.Printf("    Cache TTL:     %s\n", time.Duration(cfg.Cache.TTL)*time.Second)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  Providers:")
		rep := svc.Status(ctx)
		for _, p := range rep.Providers {
			status := "ok"
			if p.Error != "" {
				status = "unreachable: " + p.Error
			}
			fmt.Printf("    %-10s %s\n", p.Name+":", status)
			if len(p.DefaultFor) > 0 {
				fmt.Printf("    %-10s default for %v\n", "", p.DefaultFor)
			}
		}
		for _, m := range rep.Unserved {
			fmt.Printf("    %-10s no provider for %s\n", "-", m)
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and viewer page",
	RunE: func(cmd *cobra.Command, args []string) error {
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.API.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.API.Port = port
		}
		api.Version = version
		srv := api.NewServer(cfg, svc, log)
		return srv.ListenAndServe(cmd.Context(), fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))
	},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (overrides api.host)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides api.port)")
}
