package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"

	"github.com/jackc/pgx/v5"
)

const driverColumns = `id, mobile_number, email, password_hash, name, license_number, aadhaar_number, vehicle_details,
	is_verified, is_available, status, owner_id, car_id, current_location, fcm_token, created_at, updated_at`

type DriversRepo struct {
	db *DB
}

func NewDriversRepo(db *DB) *DriversRepo {
	return &DriversRepo{db: db}
}

func (dr *DriversRepo) Create(ctx context.Context, d model.Driver) (model.Driver, error) {
	vehicle, loc, err := encodeDriverJSON(d)
	if err != nil {
		return model.Driver{}, err
	}
	q := `INSERT INTO drivers (` + driverColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err = dr.db.pool.Exec(ctx, q, d.ID, nullable(d.MobileNumber), nullable(d.Email), d.PasswordHash, d.Name,
		d.LicenseNumber, d.AadhaarNumber, vehicle, d.IsVerified, d.IsAvailable, string(d.Status), d.OwnerId, d.CarId,
		loc, d.FcmToken, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return model.Driver{}, mapErr(err)
	}
	return d, nil
}

func (dr *DriversRepo) FindById(ctx context.Context, driverId string) (model.Driver, error) {
	return findDriver(ctx, dr.db.pool, `id = $1`, driverId)
}

func (dr *DriversRepo) FindByEmail(ctx context.Context, email string) (model.Driver, error) {
	return findDriver(ctx, dr.db.pool, `lower(email) = lower($1)`, email)
}

func (dr *DriversRepo) FindByMobile(ctx context.Context, mobile string) (model.Driver, error) {
	return findDriver(ctx, dr.db.pool, `mobile_number = $1`, mobile)
}

func (dr *DriversRepo) Find(ctx context.Context, filter model.DriverFilter) ([]model.Driver, error) {
	var (
		where []string
		args  []any
	)
	if filter.Available != nil {
		args = append(args, *filter.Available)
		where = append(where, fmt.Sprintf("is_available = $%d", len(args)))
	}
	if filter.OwnerId != "" {
		args = append(args, filter.OwnerId)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	q := `SELECT ` + driverColumns + ` FROM drivers`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at`

	rows, err := dr.db.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.Driver{}
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// Update leaves car_id alone; the cars repo owns that link.
func (dr *DriversRepo) Update(ctx context.Context, d model.Driver) (model.Driver, error) {
	vehicle, loc, err := encodeDriverJSON(d)
	if err != nil {
		return model.Driver{}, err
	}
	q := `UPDATE drivers SET mobile_number = $2, email = $3, password_hash = $4, name = $5, license_number = $6,
		aadhaar_number = $7, vehicle_details = $8, is_verified = $9, is_available = $10, status = $11,
		owner_id = $12, current_location = $13, fcm_token = $14, updated_at = $15
	WHERE id = $1
	RETURNING ` + driverColumns
	res, err := scanDriver(dr.db.pool.QueryRow(ctx, q, d.ID, nullable(d.MobileNumber), nullable(d.Email), d.PasswordHash,
		d.Name, d.LicenseNumber, d.AadhaarNumber, vehicle, d.IsVerified, d.IsAvailable, string(d.Status), d.OwnerId,
		loc, d.FcmToken, d.UpdatedAt))
	if err != nil {
		return model.Driver{}, mapErr(err)
	}
	return res, nil
}

func (dr *DriversRepo) UpdateLocation(ctx context.Context, driverId string, loc model.Location) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	tag, err := dr.db.pool.Exec(ctx, `UPDATE drivers SET current_location = $2, updated_at = now() WHERE id = $1`, driverId, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return myerrors.ErrNotFound
	}
	return nil
}

func (dr *DriversRepo) Delete(ctx context.Context, driverId string) error {
	return dr.db.inTx(ctx, func(tx pgx.Tx) error {
		q := `UPDATE cars SET status = 'available', updated_at = now()
		WHERE id = (SELECT car_id FROM drivers WHERE id = $1)`
		if _, err := tx.Exec(ctx, q, driverId); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM drivers WHERE id = $1`, driverId)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return myerrors.ErrNotFound
		}
		return nil
	})
}

func findDriver(ctx context.Context, q querier, cond string, arg any) (model.Driver, error) {
	d, err := scanDriver(q.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE `+cond, arg))
	if err != nil {
		return model.Driver{}, mapErr(err)
	}
	return d, nil
}

func encodeDriverJSON(d model.Driver) (vehicle, loc []byte, err error) {
	vehicle, err = json.Marshal(d.VehicleDetails)
	if err != nil {
		return nil, nil, err
	}
	if d.CurrentLocation != nil {
		loc, err = json.Marshal(d.CurrentLocation)
		if err != nil {
			return nil, nil, err
		}
	}
	return vehicle, loc, nil
}

func scanDriver(row pgx.Row) (model.Driver, error) {
	var (
		d             model.Driver
		mobile, email *string
		vehicle, loc  []byte
		status        string
	)
	err := row.Scan(&d.ID, &mobile, &email, &d.PasswordHash, &d.Name, &d.LicenseNumber, &d.AadhaarNumber, &vehicle,
		&d.IsVerified, &d.IsAvailable, &status, &d.OwnerId, &d.CarId, &loc, &d.FcmToken, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return model.Driver{}, err
	}
	d.MobileNumber = deref(mobile)
	d.Email = deref(email)
	d.Status = model.DriverStatus(status)
	if len(vehicle) > 0 {
		if err := json.Unmarshal(vehicle, &d.VehicleDetails); err != nil {
			return model.Driver{}, fmt.Errorf("decode vehicle details: %w", err)
		}
	}
	if len(loc) > 0 {
		d.CurrentLocation = &model.Location{}
		if err := json.Unmarshal(loc, d.CurrentLocation); err != nil {
			return model.Driver{}, fmt.Errorf("decode driver location: %w", err)
		}
	}
	return d, nil
}
