// Package pipeline runs one full recomputation: filter, pair, classify, aggregate.
package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/terminus-adherence/internal/common/logger"
	"github.com/terminus-adherence/internal/terminus/delay"
	"github.com/terminus-adherence/internal/terminus/filter"
	"github.com/terminus-adherence/internal/terminus/pairing"
	"github.com/terminus-adherence/internal/terminus/stats"
	"github.com/terminus-adherence/pkg/terminus/models"
)

type Pipeline struct {
	classifier delay.Classifier
	logger     logger.Logger
	now        func() time.Time
}

func New(lateThresholdMinutes float64, logger logger.Logger) *Pipeline {
	return &Pipeline{
		classifier: delay.NewClassifier(lateThresholdMinutes),
		logger:     logger,
		now:        time.Now,
	}
}

// Run computes the report for one filter selection. It does not modify data. When the
// selection yields no turnaround pair the report carries NoData and the aggregator is
// not called.
func (p *Pipeline) Run(data *models.Dataset, f filter.Filter) (*models.Report, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	if f.Category == "" {
		f.Category = filter.All
	}

	report := &models.Report{
		RunID:                uuid.NewString(),
		GeneratedAt:          p.now(),
		Category:             f.Category,
		From:                 f.From,
		To:                   f.To,
		LateThresholdMinutes: p.classifier.ThresholdMinutes(),
	}

	arrivals := f.Apply(data.Arrivals)
	departures := f.Apply(data.Departures)

	p.logger.Debug("Filter applied",
		"run_id", report.RunID,
		"category", f.Category,
		"arrivals", len(arrivals),
		"departures", len(departures))

	pairs := p.classifier.ClassifyAll(pairing.Pairs(arrivals, departures))
	if len(pairs) == 0 {
		p.logger.Info("No matching terminus pairs", "run_id", report.RunID, "category", f.Category)
		report.NoData = true
		return report, nil
	}

	result, err := stats.Aggregate(pairs)
	if err != nil {
		return nil, fmt.Errorf("aggregating pairs: %w", err)
	}
	report.Lines = result.Lines
	report.SharedAxisMax = result.SharedAxisMax

	p.logger.Info("Turnaround lateness computed",
		"run_id", report.RunID,
		"pairs", len(pairs),
		"lines", len(result.Lines),
		"shared_axis_max", result.SharedAxisMax)

	return report, nil
}
