package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/terminus-adherence/internal/common/config"
	"github.com/terminus-adherence/internal/common/db"
	"github.com/terminus-adherence/internal/common/discord"
	"github.com/terminus-adherence/internal/common/logger"
	"github.com/terminus-adherence/internal/terminus/filter"
	"github.com/terminus-adherence/internal/terminus/pipeline"
	"github.com/terminus-adherence/internal/terminus/presenter"
	"github.com/terminus-adherence/internal/terminus/store"
	"github.com/terminus-adherence/pkg/terminus/models"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to $TERMINUS_CONFIG_FILE)")
	category := flag.String("category", "", `category to keep, or "All"`)
	from := flag.String("from", "", "first service date, YYYY-MM-DD (inclusive)")
	to := flag.String("to", "", "last service date, YYYY-MM-DD (inclusive)")
	threshold := flag.String("threshold", "", "late_threshold_minutes: delays strictly above this are late")
	chartPath := flag.String("chart", "", "base path for the three PNG charts; empty disables them")
	listCategories := flag.Bool("categories", false, "print the selectable categories and exit")
	watch := flag.Bool("watch", false, "recompute whenever an input file changes")
	flag.Parse()

	// .env is optional for a CLI
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("Failed to load .env file: " + err.Error())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "category":
			cfg.Analysis.Category = *category
		case "from":
			cfg.Analysis.From = *from
		case "to":
			cfg.Analysis.To = *to
		case "chart":
			cfg.Output.ChartPath = *chartPath
		case "threshold":
			v, err := strconv.ParseFloat(*threshold, 64)
			if err != nil {
				panic("Invalid -threshold: " + err.Error())
			}
			cfg.Analysis.LateThresholdMinutes = v
		}
	})

	if err := cfg.Validate(); err != nil {
		panic("Invalid configuration: " + err.Error())
	}

	log := logger.InitLogger(logger.LoggerConfig{
		Level:           logger.ParseLogLevel(cfg.Logging.Level),
		Console:         true,
		File:            cfg.Logging.FilePath != "",
		FilePath:        cfg.Logging.FilePath,
		MaxSizeMB:       10,
		MaxBackups:      5,
		MaxAgeDays:      30,
		Compress:        true,
		TimeFieldFormat: time.RFC3339,
		DiscordURL:      cfg.Output.DiscordURL,
	})

	log.Info("Terminus turnaround analysis starting",
		"source", cfg.Source.Kind,
		"late_threshold_minutes", cfg.Analysis.LateThresholdMinutes,
		"category", cfg.Analysis.Category,
		"watch", *watch)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, _ := cfg.Location() // checked by Validate

	var source store.Source
	switch cfg.Source.Kind {
	case config.SourcePostgres:
		database, err := db.New(ctx, cfg.Database.ConnectionString(), log)
		if err != nil {
			log.Fatal("Failed to connect to database", "error", err)
		}
		defer database.Close()
		source = store.NewPostgresSource(database, cfg.Database.Schema)
	default:
		source = store.NewCSVSource(store.CSVConfig{
			ArrivalsPath:   cfg.Source.ArrivalsPath,
			DeparturesPath: cfg.Source.DeparturesPath,
			DownloadDir:    cfg.Source.DownloadDir,
			Location:       loc,
		}, log)
	}

	a := &app{
		cfg:      cfg,
		location: loc,
		cache:    store.NewCache(source, log),
		pipeline: pipeline.New(cfg.Analysis.LateThresholdMinutes, log),
		discord:  discord.NewClient(cfg.Output.DiscordURL),
		out:      os.Stdout,
		logger:   log,
	}

	if *listCategories {
		cats, err := a.categories(ctx)
		if err != nil {
			log.Fatal("Failed to load terminus data", "error", err)
		}
		fmt.Fprintln(a.out, strings.Join(cats, "\n"))
		return
	}

	if err := a.run(ctx); err != nil {
		log.Fatal("Analysis failed", "error", err)
	}

	if !*watch {
		return
	}

	fileSource, ok := source.(store.FileSource)
	if !ok || len(fileSource.Paths()) == 0 {
		log.Fatal("Watch mode needs local CSV inputs", "source", cfg.Source.Kind)
	}
	err = store.Watch(ctx, a.cache, fileSource.Paths(), store.DefaultSettleDelay, log, func() {
		if err := a.run(ctx); err != nil {
			// keep watching: the next save may fix the file
			log.Error("Recomputation failed", "error", err)
		}
	})
	if err != nil {
		log.Fatal("Watcher stopped", "error", err)
	}
	log.Info("Terminus turnaround analysis stopped")
}

type app struct {
	cfg      *config.Config
	location *time.Location
	cache    *store.Cache
	pipeline *pipeline.Pipeline
	discord  *discord.Client
	out      io.Writer
	logger   logger.Logger
}

func (a *app) categories(ctx context.Context) ([]string, error) {
	data, err := a.cache.Load(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Categories(data.Departures), nil
}

// run performs one full recomputation from the (possibly cached) dataset
func (a *app) run(ctx context.Context) error {
	data, err := a.cache.Load(ctx)
	if err != nil {
		var shapeErr *models.DataShapeError
		if errors.As(err, &shapeErr) {
			a.logger.Error("Input data has the wrong shape",
				"source", shapeErr.Source,
				"row", shapeErr.Row,
				"column", shapeErr.Column)
		}
		return fmt.Errorf("loading terminus data: %w", err)
	}

	f, err := filter.Parse(a.cfg.Analysis.Category, a.cfg.Analysis.From, a.cfg.Analysis.To, data.Departures, a.location)
	if err != nil {
		return err
	}

	report, err := a.pipeline.Run(data, f)
	if err != nil {
		return err
	}

	if err := presenter.WriteText(a.out, report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if a.cfg.Output.ChartPath != "" && !report.NoData {
		paths, err := presenter.RenderCharts(report, a.cfg.Output.ChartPath)
		if err != nil {
			return fmt.Errorf("rendering charts: %w", err)
		}
		a.logger.Info("Charts written", "files", paths)
	}

	if a.discord.Enabled() {
		if err := a.discord.SendReport(ctx, report); err != nil {
			a.logger.Warn("Failed to post report to Discord", "error", err)
		}
	}

	return nil
}
