package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminus-adherence/internal/common/config"
	"github.com/terminus-adherence/internal/common/discord"
	"github.com/terminus-adherence/internal/common/logger"
	"github.com/terminus-adherence/internal/terminus/pipeline"
	"github.com/terminus-adherence/internal/terminus/store"
	"github.com/terminus-adherence/pkg/terminus/models"
)

const (
	endExport = `parcveh,DateCourse,stop,Category,Ligne,end_deptheo,end_real
V1,2024-01-01,S1,Urbain,12,2024-01-01 10:00:00,2024-01-01 10:05:00
V1,2024-01-01,S1,Urbain,12,2024-01-01 10:30:00,2024-01-01 10:35:00
`
	startExport = `parcveh,DateCourse,stop,Category,Ligne,start_deptheo,start_real
V1,2024-01-01,S1,Urbain,12,2024-01-01 09:50:00,2024-01-01 09:55:00
V1,2024-01-01,S1,Urbain,12,2024-01-01 10:10:00,2024-01-01 10:20:00
`
)

func newTestApp(t *testing.T, mutate func(*config.Config)) (*app, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Source.ArrivalsPath = filepath.Join(dir, "end.csv")
	cfg.Source.DeparturesPath = filepath.Join(dir, "start.csv")
	cfg.Output.ChartPath = filepath.Join(dir, "charts", "lateness.png")
	require.NoError(t, os.WriteFile(cfg.Source.ArrivalsPath, []byte(endExport), 0o644))
	require.NoError(t, os.WriteFile(cfg.Source.DeparturesPath, []byte(startExport), 0o644))
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	var out bytes.Buffer
	source := store.NewCSVSource(store.CSVConfig{
		ArrivalsPath:   cfg.Source.ArrivalsPath,
		DeparturesPath: cfg.Source.DeparturesPath,
		Location:       time.UTC,
	}, logger.Nop())

	return &app{
		cfg:      cfg,
		location: time.UTC,
		cache:    store.NewCache(source, logger.Nop()),
		pipeline: pipeline.New(cfg.Analysis.LateThresholdMinutes, logger.Nop()),
		discord:  discord.NewClient(""),
		out:      &out,
		logger:   logger.Nop(),
	}, &out
}

func TestRunWritesTableAndCharts(t *testing.T) {
	a, out := newTestApp(t, nil)

	require.NoError(t, a.run(context.Background()))
	assert.Contains(t, out.String(), "Shared axis max: 100%")

	for _, m := range []string{"arrival", "departure", "both"} {
		_, err := os.Stat(filepath.Join(filepath.Dir(a.cfg.Output.ChartPath), "lateness_"+m+".png"))
		assert.NoError(t, err, m)
	}
}

func TestRunEmptySelection(t *testing.T) {
	a, out := newTestApp(t, func(c *config.Config) { c.Analysis.Category = "Scolaire" })

	require.NoError(t, a.run(context.Background()))
	assert.Contains(t, out.String(), "No matching terminus pairs found for selected filters.")

	_, err := os.Stat(filepath.Dir(a.cfg.Output.ChartPath))
	assert.True(t, os.IsNotExist(err), "no charts for an empty report")
}

func TestRunReusesCachedDataset(t *testing.T) {
	a, _ := newTestApp(t, nil)

	require.NoError(t, a.run(context.Background()))
	a.cfg.Analysis.From = "2024-01-01"
	require.NoError(t, a.run(context.Background()))
	assert.Equal(t, 1, a.cache.Loads())
}

func TestRunSurfacesDataShapeError(t *testing.T) {
	a, _ := newTestApp(t, nil)
	require.NoError(t, os.WriteFile(a.cfg.Source.DeparturesPath, []byte("parcveh,stop\nV1,S1\n"), 0o644))

	err := a.run(context.Background())
	var shapeErr *models.DataShapeError
	assert.True(t, errors.As(err, &shapeErr))
}

func TestCategories(t *testing.T) {
	a, _ := newTestApp(t, nil)
	cats, err := a.categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "Urbain"}, cats)
}
