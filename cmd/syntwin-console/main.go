package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	"github.com/syntwin/console/internal/app"
	"github.com/syntwin/console/internal/charts"
	"github.com/syntwin/console/internal/client"
	"github.com/syntwin/console/internal/config"
	"github.com/syntwin/console/internal/poll"
	"github.com/syntwin/console/internal/session"
	"github.com/syntwin/console/internal/stream"
	"github.com/syntwin/console/internal/views/debug"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	baseURL := flag.String("url", "", "Base URL of the SynTwin backend (overrides config)")
	logPath := flag.String("log", "", "Log file path (overrides config)")
	chartDir := flag.String("charts", "", "Directory to write chart PNGs and the latest frame to (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.Backend.URL = *baseURL
	}
	if *logPath != "" {
		cfg.Log.File = *logPath
	}
	if *chartDir != "" {
		cfg.Charts.Dir = *chartDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid config: %v\n", err)
		os.Exit(1)
	}

	f, err := tea.LogToFile(cfg.Log.File, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	events := debug.NewHandler(slog.LevelDebug, 256)
	logger := slog.New(slogmulti.Fanout(
		tint.NewHandler(f, &tint.Options{Level: cfg.SlogLevel(), NoColor: true}),
		events,
	))
	slog.SetDefault(logger)

	canvas, frames, err := chartCanvas(cfg.Charts.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	httpClient := client.NewHTTPClient(cfg.Backend.URL, cfg.Backend.Timeout)
	sm := stream.NewManager(httpClient.StreamURL(),
		stream.WithReconnectDelay(cfg.Stream.ReconnectDelay),
		stream.WithLogger(logger),
	)
	po := poll.New(
		poll.WithPeriods(poll.Periods{
			Health:       cfg.Poll.Health,
			Suggestions:  cfg.Poll.Suggestions,
			State:        cfg.Poll.State,
			ChartsActive: cfg.Poll.ChartsActive,
			ChartsIdle:   cfg.Poll.ChartsIdle,
			FinalDelay:   cfg.Poll.FinalDelay,
		}),
		poll.WithLogger(logger),
	)
	cm := charts.NewManager(canvas,
		charts.WithSize(cfg.Charts.Width, cfg.Charts.Height),
		charts.WithLogger(logger),
	)
	opts := []session.Option{
		session.WithQuery(session.Query{
			Minutes:       cfg.Query.Minutes,
			TimelineHours: cfg.Query.TimelineHours,
			TrendHours:    cfg.Query.TrendHours,
			RecentLimit:   cfg.Query.RecentLimit,
		}),
		session.WithClearDelay(cfg.Poll.ClearDelay),
		session.WithExportDir(cfg.Export.Dir),
		session.WithLogger(logger),
	}
	if frames != nil {
		opts = append(opts, session.WithFrameSink(frames))
	}
	sc := session.New(httpClient, sm, po, cm, opts...)

	logger.Info("console: starting", "backend", cfg.Backend.URL, "stream", httpClient.StreamURL())

	m := app.New(sc, app.Options{Events: events.Entries()})
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// chartCanvas returns the in-memory canvas, teed to a PNG directory when
// dir is set. The directory also receives the latest camera frame.
func chartCanvas(dir string) (charts.Canvas, *charts.DirCanvas, error) {
	mem := charts.NewMemCanvas()
	if dir == "" {
		return mem, nil, nil
	}
	d, err := charts.NewDirCanvas(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("chart dir: %w", err)
	}
	return charts.Tee(mem, d), d, nil
}
