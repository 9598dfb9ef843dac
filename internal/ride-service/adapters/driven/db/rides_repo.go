package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const rideColumns = `id, rider_id, driver_id, pickup, dropoff, fare, status, cancelled_by, cancel_reason,
	otp, otp_attempts, payment_status, payment_order_id, version, created_at, updated_at`

type RidesRepo struct {
	db *DB
}

func NewRidesRepo(db *DB) *RidesRepo {
	return &RidesRepo{
		db: db,
	}
}

func (rr *RidesRepo) CreateRide(ctx context.Context, m model.Rides) (model.Rides, error) {
	pickup, err := json.Marshal(m.Pickup)
	if err != nil {
		return model.Rides{}, err
	}
	dropoff, err := json.Marshal(m.Dropoff)
	if err != nil {
		return model.Rides{}, err
	}

	q := `INSERT INTO rides (id, rider_id, pickup, dropoff, status, payment_status, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)`
	_, err = rr.db.pool.Exec(ctx, q, m.ID, m.RiderId, pickup, dropoff, string(m.Status), string(m.PaymentStatus), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return model.Rides{}, mapErr(err)
	}
	m.Version = 1
	if m.Quotes == nil {
		m.Quotes = []model.Quote{}
	}
	return m, nil
}

func (rr *RidesRepo) FindById(ctx context.Context, rideId string) (model.Rides, error) {
	return loadRide(ctx, rr.db.pool, rideId)
}

func (rr *RidesRepo) Find(ctx context.Context, filter model.RideFilter) ([]model.Rides, error) {
	var (
		where []string
		args  []any
	)
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if len(filter.DriverIds) > 0 {
		args = append(args, filter.DriverIds)
		where = append(where, fmt.Sprintf("driver_id = ANY($%d)", len(args)))
	}
	if filter.RiderId != "" {
		args = append(args, filter.RiderId)
		where = append(where, fmt.Sprintf("rider_id = $%d", len(args)))
	}

	q := `SELECT ` + rideColumns + ` FROM rides`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`

	rows, err := rr.db.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.Rides{}
	ids := []string{}
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, ride)
		ids = append(ids, ride.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return res, nil
	}

	quotes, err := loadQuotes(ctx, rr.db.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range res {
		if qs, ok := quotes[res[i].ID]; ok {
			res[i].Quotes = qs
		}
	}
	return res, nil
}

// AppendQuote locks the ride row so a concurrent booking cannot slip a
// quote in after the ride left pending.
func (rr *RidesRepo) AppendQuote(ctx context.Context, rideId string, quote model.Quote) (model.Rides, error) {
	loc, err := json.Marshal(quote.DriverLocation)
	if err != nil {
		return model.Rides{}, err
	}

	var ride model.Rides
	err = rr.db.inTx(ctx, func(tx pgx.Tx) error {
		var status string
		if err := tx.QueryRow(ctx, `SELECT status FROM rides WHERE id = $1 FOR UPDATE`, rideId).Scan(&status); err != nil {
			return mapErr(err)
		}
		if model.RideStatus(status) != model.RidePending {
			return myerrors.ErrInvalidState
		}

		q := `INSERT INTO ride_quotes (ride_id, driver_id, price, driver_location, distance_to_pickup_km, eta_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := tx.Exec(ctx, q, rideId, quote.DriverId, quote.Price, loc, quote.DistanceToPickupKm, quote.EtaMinutes, quote.CreatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE rides SET version = version + 1, updated_at = now() WHERE id = $1`, rideId); err != nil {
			return err
		}

		ride, err = loadRide(ctx, tx, rideId)
		return err
	})
	if err != nil {
		return model.Rides{}, err
	}
	return ride, nil
}

// Transition is a compare-and-set on the status column.
func (rr *RidesRepo) Transition(ctx context.Context, rideId string, from []model.RideStatus, upd model.RideUpdate) (model.Rides, error) {
	fromStatuses := make([]string, len(from))
	for i, s := range from {
		fromStatuses[i] = string(s)
	}

	var (
		cancelledBy, cancelReason *string
		paymentStatus             *string
	)
	if upd.CancelDetails != nil {
		by := string(upd.CancelDetails.By)
		cancelledBy = &by
		cancelReason = &upd.CancelDetails.Reason
	}
	if upd.PaymentStatus != nil {
		ps := string(*upd.PaymentStatus)
		paymentStatus = &ps
	}

	q := `UPDATE rides SET
		status = $2,
		driver_id = COALESCE($3, driver_id),
		fare = COALESCE($4, fare),
		otp = CASE WHEN $5::boolean THEN NULL ELSE COALESCE($6, otp) END,
		otp_attempts = CASE WHEN $6::int IS NULL THEN otp_attempts ELSE 0 END,
		cancelled_by = COALESCE($7, cancelled_by),
		cancel_reason = COALESCE($8, cancel_reason),
		payment_status = COALESCE($9, payment_status),
		payment_order_id = COALESCE($10, payment_order_id),
		version = version + 1,
		updated_at = now()
	WHERE id = $1 AND status = ANY($11)`

	var ride model.Rides
	err := rr.db.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, q, rideId, string(upd.Status), upd.DriverId, upd.Fare, upd.ClearOtp, upd.Otp,
			cancelledBy, cancelReason, paymentStatus, upd.PaymentOrderId, fromStatuses)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, rideId).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return myerrors.ErrNotFound
			}
			return myerrors.ErrInvalidState
		}
		ride, err = loadRide(ctx, tx, rideId)
		return err
	})
	if err != nil {
		return model.Rides{}, err
	}
	return ride, nil
}

// RecordOtpFailure leaves version alone: a wrong code is not a ride change.
func (rr *RidesRepo) RecordOtpFailure(ctx context.Context, rideId string) (int, error) {
	var attempts int
	err := rr.db.pool.QueryRow(ctx, `UPDATE rides SET otp_attempts = otp_attempts + 1
	WHERE id = $1 AND otp IS NOT NULL RETURNING otp_attempts`, rideId).Scan(&attempts)
	if err == nil {
		return attempts, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	var exists bool
	if err := rr.db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, rideId).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, myerrors.ErrNotFound
	}
	return 0, myerrors.ErrInvalidState
}

func (rr *RidesRepo) CountByStatus(ctx context.Context) (map[model.RideStatus]int, error) {
	rows, err := rr.db.pool.Query(ctx, `SELECT status, COUNT(*) FROM rides GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[model.RideStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[model.RideStatus(status)] = count
	}
	return res, rows.Err()
}

func loadRide(ctx context.Context, q querier, rideId string) (model.Rides, error) {
	ride, err := scanRide(q.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, rideId))
	if err != nil {
		return model.Rides{}, mapErr(err)
	}
	quotes, err := loadQuotes(ctx, q, []string{rideId})
	if err != nil {
		return model.Rides{}, err
	}
	if qs, ok := quotes[rideId]; ok {
		ride.Quotes = qs
	}
	return ride, nil
}

func loadQuotes(ctx context.Context, q querier, rideIds []string) (map[string][]model.Quote, error) {
	rows, err := q.Query(ctx, `SELECT ride_id, driver_id, price, driver_location, distance_to_pickup_km, eta_minutes, created_at
	FROM ride_quotes WHERE ride_id = ANY($1) ORDER BY ride_id, seq`, rideIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[string][]model.Quote)
	for rows.Next() {
		var (
			rideId string
			loc    []byte
			quote  model.Quote
		)
		if err := rows.Scan(&rideId, &quote.DriverId, &quote.Price, &loc, &quote.DistanceToPickupKm, &quote.EtaMinutes, &quote.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(loc, &quote.DriverLocation); err != nil {
			return nil, fmt.Errorf("decode quote location: %w", err)
		}
		res[rideId] = append(res[rideId], quote)
	}
	return res, rows.Err()
}

func scanRide(row pgx.Row) (model.Rides, error) {
	var (
		ride                      model.Rides
		pickup, dropoff           []byte
		status, paymentStatus     string
		cancelledBy, cancelReason *string
		otp                       *int32
	)
	err := row.Scan(&ride.ID, &ride.RiderId, &ride.DriverId, &pickup, &dropoff, &ride.Fare, &status,
		&cancelledBy, &cancelReason, &otp, &ride.OtpAttempts, &paymentStatus, &ride.PaymentOrderId, &ride.Version,
		&ride.CreatedAt, &ride.UpdatedAt)
	if err != nil {
		return model.Rides{}, err
	}
	if err := json.Unmarshal(pickup, &ride.Pickup); err != nil {
		return model.Rides{}, fmt.Errorf("decode pickup: %w", err)
	}
	if err := json.Unmarshal(dropoff, &ride.Dropoff); err != nil {
		return model.Rides{}, fmt.Errorf("decode dropoff: %w", err)
	}
	ride.Status = model.RideStatus(status)
	ride.PaymentStatus = model.PaymentStatus(paymentStatus)
	if cancelledBy != nil {
		ride.CancelDetails = &model.CancelDetails{By: model.CancelActor(*cancelledBy), Reason: deref(cancelReason)}
	}
	if otp != nil {
		v := int(*otp)
		ride.Otp = &v
	}
	ride.Quotes = []model.Quote{}
	return ride, nil
}
