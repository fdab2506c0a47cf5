package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/terminus-adherence/internal/common/db"
	"github.com/terminus-adherence/pkg/terminus/models"
)

// PostgresSource reads <schema>.arrivals and <schema>.departures. Both tables carry an
// event_id column recording load order, which is the stable tie-break the pairer relies on.
type PostgresSource struct {
	db     *db.DB
	schema string
}

func NewPostgresSource(database *db.DB, schema string) *PostgresSource {
	if schema == "" {
		schema = "terminus"
	}
	return &PostgresSource{db: database, schema: schema}
}

func (s *PostgresSource) Load(ctx context.Context) (*models.Dataset, error) {
	arrivals, err := s.loadTable(ctx, "arrivals", models.Arrival)
	if err != nil {
		return nil, fmt.Errorf("loading arrivals: %w", err)
	}
	departures, err := s.loadTable(ctx, "departures", models.Departure)
	if err != nil {
		return nil, fmt.Errorf("loading departures: %w", err)
	}

	return &models.Dataset{
		Arrivals:   arrivals,
		Departures: departures,
		LoadedAt:   time.Now(),
	}, nil
}

func (s *PostgresSource) selectQuery(table string) string {
	return fmt.Sprintf(`
		SELECT vehicle_id, service_date, stop_id, COALESCE(category, ''), line_id, scheduled_time, actual_time
		FROM %s.%s
		ORDER BY event_id
	`, pq.QuoteIdentifier(s.schema), pq.QuoteIdentifier(table))
}

func (s *PostgresSource) loadTable(ctx context.Context, table string, role models.Role) ([]models.TerminusEvent, error) {
	source := s.schema + "." + table

	rows, err := s.db.DB().QueryContext(ctx, s.selectQuery(table))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", source, err)
	}
	defer rows.Close()

	var events []models.TerminusEvent
	row := 0
	for rows.Next() {
		row++
		var (
			e                 models.TerminusEvent
			scheduled, actual sql.NullTime
		)
		if err := rows.Scan(&e.VehicleID, &e.ServiceDate, &e.StopID, &e.Category, &e.LineID, &scheduled, &actual); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", source, err)
		}
		if !scheduled.Valid {
			return nil, &models.DataShapeError{Source: source, Row: row, Column: "scheduled_time", Err: fmt.Errorf("null timestamp")}
		}
		if !actual.Valid {
			return nil, &models.DataShapeError{Source: source, Row: row, Column: "actual_time", Err: fmt.Errorf("null timestamp")}
		}
		e.ScheduledTime = scheduled.Time
		e.ActualTime = actual.Time
		e.Role = role
		e.Row = row
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", source, err)
	}

	s.db.Logger().Info("Table loaded", "table", source, "role", role, "records", len(events))
	return events, nil
}
