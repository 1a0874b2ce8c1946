package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"notecal/internal/cache"
	"notecal/internal/config"
	"notecal/internal/datemath"
	appLog "notecal/internal/log"
	"notecal/internal/query"
	"notecal/internal/store"
	"notecal/internal/web"
)

// flagConfig holds CLI flag values; non-empty values override the file.
type flagConfig struct {
	configPath string
	vault      string
	listen     string
	once       bool
	debug      bool
}

func main() {
	appLog.Info("notecal starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.vault != "" {
		conf.Vault = flags.vault
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"vault", conf.Vault,
		"listen", conf.Listen,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"tag_filter", conf.Settings.TagFilter,
		"week_starts_on", conf.Settings.WeekStartsOn,
		"once", flags.once,
	)

	vault, err := store.Open(conf.Vault)
	if err != nil {
		appLog.Error("failed to open vault", err, "vault", conf.Vault)
		os.Exit(1)
	}
	events := cache.New(vault, conf.Settings)

	if flags.once {
		if err := runOnce(conf, events); err != nil {
			appLog.Error("single-shot run failed", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(conf, events); err != nil {
		appLog.Error("server exited", err)
		os.Exit(1)
	}
	appLog.Info("notecal exiting")
}

// runOnce builds the index once and prints upcoming occurrences inside the
// configured horizon.
func runOnce(conf *config.Config, events *cache.Cache) error {
	today := datemath.Midnight(time.Now())
	window := &cache.Window{
		Start: datemath.ToDateString(today),
		End:   datemath.ToDateString(today.AddDate(0, 0, conf.HorizonDays)),
	}

	index := events.Get(window)
	loc := datemath.LocaleFor(conf.Settings.Locale)

	for _, dateStr := range query.SortedDates(index) {
		day, err := datemath.FromDateString(dateStr)
		if err != nil {
			continue
		}
		fmt.Printf("%s\n", datemath.FormatDate(day, conf.Settings.DateFormat+" (dddd)", loc))
		for _, occ := range query.DayOccurrences(dateStr, index) {
			line := "  - " + occ.Title
			if occ.TimeStr != "" {
				line = "  - " + occ.TimeStr + " " + occ.Title
			}
			if occ.IsRecurring {
				line += " (recurring)"
			}
			fmt.Println(line)
		}
	}
	appLog.Info("single-shot listing complete", "dates", len(index), "occurrences", index.Len())
	return nil
}

// serve runs the HTTP API plus the cron refresh loop until SIGINT/SIGTERM.
func serve(conf *config.Config, events *cache.Cache) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	srv := web.NewServer(conf, events)

	// Periodic refresh keeps the cache warm so interactive queries rarely
	// pay the full-corpus scan.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(conf.RefreshCron, srv.Refresh); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", conf.RefreshCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", defaultConfigPath(), "Path to config file")
	flag.StringVar(&cfg.vault, "vault", "", "Vault directory (overrides config if set)")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Build the index once, print upcoming events, and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

func defaultConfigPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.config/notecal/config.yaml"
	}
	return "./notecal.yaml"
}
