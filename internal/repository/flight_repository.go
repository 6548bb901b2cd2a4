package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jengzang/flight-delay-backend-go/internal/database"
	"github.com/jengzang/flight-delay-backend-go/internal/models"
)

// FlightRepository handles database operations for historical flights
type FlightRepository struct {
	db *sql.DB
}

// NewFlightRepository creates a new flight repository
func NewFlightRepository(db *sql.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// InsertFlights stores flights in one transaction and returns the number inserted
func (r *FlightRepository) InsertFlights(ctx context.Context, flights []models.Flight) (int, error) {
	if len(flights) == 0 {
		return 0, nil
	}

	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO flight_history
			(airline, flight_type, month, scheduled_at, actual_at)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, f := range flights {
			if _, err := stmt.ExecContext(ctx, f.Airline, f.FlightType, f.Month, f.ScheduledAt, f.ActualAt); err != nil {
				return fmt.Errorf("failed to insert flight %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(flights), nil
}

// ListFlights retrieves flights matching the filter in insertion order
func (r *FlightRepository) ListFlights(ctx context.Context, filter models.FlightFilter) ([]models.Flight, error) {
	query := `SELECT id, airline, flight_type, month, scheduled_at, actual_at FROM flight_history`

	var conditions []string
	var args []interface{}

	if filter.Airline != "" {
		conditions = append(conditions, "airline = ?")
		args = append(args, filter.Airline)
	}
	if filter.FlightType != "" {
		conditions = append(conditions, "flight_type = ?")
		args = append(args, filter.FlightType)
	}
	if filter.Month > 0 {
		conditions = append(conditions, "month = ?")
		args = append(args, filter.Month)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	var flights []models.Flight
	for rows.Next() {
		var f models.Flight
		if err := rows.Scan(&f.ID, &f.Airline, &f.FlightType, &f.Month, &f.ScheduledAt, &f.ActualAt); err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flights: %w", err)
	}

	return flights, nil
}

// CountFlights returns the number of stored flights
func (r *FlightRepository) CountFlights(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM flight_history").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count flights: %w", err)
	}
	return total, nil
}
