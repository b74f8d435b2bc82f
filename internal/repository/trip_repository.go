package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/transit-services/internal/domain"
)

// TripRepository encapsulates trip persistence.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	Update(ctx context.Context, trip *domain.Trip) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
	List(ctx context.Context) ([]domain.Trip, error)
	Search(ctx context.Context, routeID int64, departureDate time.Time) ([]domain.Trip, error)
}

type tripRepository struct {
	pool *pgxpool.Pool
}

// NewTripRepository instantiates repository.
func NewTripRepository(pool *pgxpool.Pool) TripRepository {
	return &tripRepository{pool: pool}
}

const tripColumns = `id, route_id, bus_id, driver_id, departure_time, arrival_time, departure_date, price, booked_seats`

func (r *tripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	const query = `
        INSERT INTO trips (route_id, bus_id, driver_id, departure_time, arrival_time, departure_date, price, booked_seats)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		trip.RouteID,
		trip.BusID,
		trip.DriverID,
		trip.DepartureTime,
		trip.ArrivalTime,
		trip.DepartureDate,
		trip.Price,
		trip.BookedSeats,
	).Scan(&trip.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *tripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	const query = `
        UPDATE trips SET route_id=$1, bus_id=$2, driver_id=$3, departure_time=$4, arrival_time=$5,
            departure_date=$6, price=$7
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		trip.RouteID,
		trip.BusID,
		trip.DriverID,
		trip.DepartureTime,
		trip.ArrivalTime,
		trip.DepartureDate,
		trip.Price,
		trip.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tripRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM trips WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=$1`, id)
	return scanTrip(row)
}

func (r *tripRepository) List(ctx context.Context) ([]domain.Trip, error) {
	return r.query(ctx, `SELECT `+tripColumns+` FROM trips ORDER BY departure_time`)
}

func (r *tripRepository) Search(ctx context.Context, routeID int64, departureDate time.Time) ([]domain.Trip, error) {
	return r.query(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE route_id=$1 AND departure_date=$2 ORDER BY departure_time`,
		routeID, departureDate,
	)
}

func (r *tripRepository) query(ctx context.Context, query string, args ...any) ([]domain.Trip, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0)
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *trip)
	}
	return trips, rows.Err()
}

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var t domain.Trip
	if err := row.Scan(
		&t.ID,
		&t.RouteID,
		&t.BusID,
		&t.DriverID,
		&t.DepartureTime,
		&t.ArrivalTime,
		&t.DepartureDate,
		&t.Price,
		&t.BookedSeats,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
