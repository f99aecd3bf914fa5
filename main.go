package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := LoadConfig(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	// The terminal owns stdout in tui mode.
	var logOut io.Writer = os.Stdout
	if cfg.UI == UITUI {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	log := NewLoggerTo(logOut, cfg.LogLevel)

	session := uuid.NewString()
	metrics := NewMetrics(time.Now(), session, version, commit, buildDate)
	log.Infof("admindash %s (%s) session=%s backend=%s", version, commit, session, cfg.BaseURL)

	fetcher, err := NewFetcher(FetcherConfig{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		log.Errorf("fetcher: %v", err)
		os.Exit(1)
	}

	dash := NewDashboard(DashboardConfig{
		Stream:       cfg.Stream,
		StreamPath:   cfg.StreamPath,
		PollInterval: cfg.PollInterval,
		Reconnect:    cfg.ReconnectDelay,
		FetchMode:    cfg.FetchMode,
		Sequence:     cfg.SequenceRefreshes,
		Time:         cfg.TimeFormatter(),
	}, fetcher, metrics, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dash.Start(ctx)

	switch cfg.UI {
	case UIWeb:
		reload := cfg.PollInterval
		if dash.Mode() == ModeStream {
			reload = cfg.ReconnectDelay
		}
		httpSrv := NewHTTPServer(HTTPConfig{
			Addr:      cfg.Listen,
			Log:       log,
			Dashboard: dash,
			M:         metrics,
			Reload:    reload,
		})
		go func() {
			log.Infof("http listening on %s", cfg.Listen)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
				stop()
			}
		}()
		<-ctx.Done()

		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shCtx)

	case UITUI:
		view := newTUIView(dash, metrics, log)
		if err := view.run(ctx, stop); err != nil {
			log.Errorf("tui: %v", err)
		}
		stop()

	default:
		<-ctx.Done()
	}

	log.Infof("shutting down...")
	dash.Stop()
	log.Infof("bye")
}
