package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/terminus-adherence/internal/common/logger"
	"github.com/terminus-adherence/pkg/terminus/models"
)

// Canonical column names
const (
	ColVehicleID     = "vehicle_id"
	ColServiceDate   = "service_date"
	ColStopID        = "stop_id"
	ColCategory      = "category"
	ColLineID        = "line_id"
	ColScheduledTime = "scheduled_time"
	ColActualTime    = "actual_time"
)

var requiredColumns = []string{
	ColVehicleID,
	ColServiceDate,
	ColStopID,
	ColCategory,
	ColLineID,
	ColScheduledTime,
	ColActualTime,
}

// Header aliases used by the operator's terminus exports. Arrival files come from the
// end-of-route extract, departure files from the start-of-route extract.
var aliases = map[models.Role]map[string][]string{
	models.Arrival: {
		ColVehicleID:     {"parcveh"},
		ColServiceDate:   {"DateCourse"},
		ColStopID:        {"stop"},
		ColCategory:      {"Category"},
		ColLineID:        {"Ligne"},
		ColScheduledTime: {"end_deptheo"},
		ColActualTime:    {"end_real"},
	},
	models.Departure: {
		ColVehicleID:     {"parcveh"},
		ColServiceDate:   {"DateCourse"},
		ColStopID:        {"stop"},
		ColCategory:      {"Category"},
		ColLineID:        {"Ligne"},
		ColScheduledTime: {"start_deptheo"},
		ColActualTime:    {"start_real"},
	},
}

type Parser struct {
	logger   logger.Logger
	location *time.Location
}

func New(logger logger.Logger, location *time.Location) *Parser {
	if location == nil {
		location = time.UTC
	}
	return &Parser{logger: logger, location: location}
}

// ParseFile reads one terminus CSV file
func (p *Parser) ParseFile(ctx context.Context, path string, role models.Role) ([]models.TerminusEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return p.Parse(ctx, f, path, role)
}

// Parse reads terminus events of the given role. Any missing column, empty required
// field or unparsable date aborts with a *models.DataShapeError.
func (p *Parser) Parse(ctx context.Context, r io.Reader, source string, role models.Role) ([]models.TerminusEvent, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &models.DataShapeError{Source: source, Column: ColVehicleID, Err: fmt.Errorf("empty file, no header")}
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	headerMap, err := p.resolveHeader(header, source, role)
	if err != nil {
		return nil, err
	}

	var events []models.TerminusEvent
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
		row++

		if row%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p.logger.Debug("Progress", "file", source, "records", row)
		}

		if isBlank(record) {
			continue
		}

		event, err := p.parseEvent(record, headerMap, source, row, role)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	p.logger.Info("File parsed", "name", source, "role", role, "records", len(events))
	return events, nil
}

func (p *Parser) resolveHeader(header []string, source string, role models.Role) (map[string]int, error) {
	raw := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := raw[h]; !dup {
			raw[h] = i
		}
	}

	headerMap := make(map[string]int, len(requiredColumns))
	for _, col := range requiredColumns {
		if idx, ok := raw[col]; ok {
			headerMap[col] = idx
			continue
		}
		found := false
		for _, alias := range aliases[role][col] {
			if idx, ok := raw[alias]; ok {
				headerMap[col] = idx
				found = true
				break
			}
		}
		if !found {
			return nil, &models.DataShapeError{Source: source, Column: col, Err: fmt.Errorf("missing required column")}
		}
	}
	return headerMap, nil
}

func (p *Parser) parseEvent(record []string, headerMap map[string]int, source string, row int, role models.Role) (models.TerminusEvent, error) {
	shapeErr := func(col string, err error) error {
		return &models.DataShapeError{Source: source, Row: row, Column: col, Value: p.getString(record, headerMap, col), Err: err}
	}

	for _, col := range []string{ColVehicleID, ColStopID, ColLineID} {
		if p.getString(record, headerMap, col) == "" {
			return models.TerminusEvent{}, shapeErr(col, fmt.Errorf("required value is empty"))
		}
	}

	serviceDate, err := models.ParseServiceDate(p.getString(record, headerMap, ColServiceDate), p.location)
	if err != nil {
		return models.TerminusEvent{}, shapeErr(ColServiceDate, err)
	}
	scheduled, err := models.ParseTimestamp(p.getString(record, headerMap, ColScheduledTime), serviceDate, p.location)
	if err != nil {
		return models.TerminusEvent{}, shapeErr(ColScheduledTime, err)
	}
	actual, err := models.ParseTimestamp(p.getString(record, headerMap, ColActualTime), serviceDate, p.location)
	if err != nil {
		return models.TerminusEvent{}, shapeErr(ColActualTime, err)
	}

	return models.TerminusEvent{
		VehicleID:     p.getString(record, headerMap, ColVehicleID),
		ServiceDate:   serviceDate,
		StopID:        p.getString(record, headerMap, ColStopID),
		Category:      p.getString(record, headerMap, ColCategory),
		LineID:        p.getString(record, headerMap, ColLineID),
		ScheduledTime: scheduled,
		ActualTime:    actual,
		Role:          role,
		Row:           row,
	}, nil
}

// Helper to safely get values from CSV records
func (p *Parser) getString(record []string, headerMap map[string]int, field string) string {
	if idx, ok := headerMap[field]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
