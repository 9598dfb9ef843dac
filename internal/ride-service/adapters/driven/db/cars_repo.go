package db

import (
	"context"

	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"

	"github.com/jackc/pgx/v5"
)

const carColumns = `id, owner_id, type, brand, model, seats, number, description, year, status, created_at, updated_at`

type CarsRepo struct {
	db *DB
}

func NewCarsRepo(db *DB) *CarsRepo {
	return &CarsRepo{db: db}
}

func (cr *CarsRepo) Create(ctx context.Context, c model.Car) (model.Car, error) {
	q := `INSERT INTO cars (` + carColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := cr.db.pool.Exec(ctx, q, c.ID, c.OwnerId, string(c.Type), c.Brand, c.Model, c.Seats, c.Number,
		c.Description, c.Year, string(c.Status), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return model.Car{}, mapErr(err)
	}
	return c, nil
}

func (cr *CarsRepo) FindById(ctx context.Context, carId string) (model.Car, error) {
	c, err := scanCar(cr.db.pool.QueryRow(ctx, `SELECT `+carColumns+` FROM cars WHERE id = $1`, carId))
	return c, mapErr(err)
}

func (cr *CarsRepo) FindByOwner(ctx context.Context, ownerId string) ([]model.Car, error) {
	rows, err := cr.db.pool.Query(ctx, `SELECT `+carColumns+` FROM cars WHERE owner_id = $1 ORDER BY created_at`, ownerId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.Car{}
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// Update never touches status; Assign and Release own it.
func (cr *CarsRepo) Update(ctx context.Context, c model.Car) (model.Car, error) {
	q := `UPDATE cars SET type = $2, brand = $3, model = $4, seats = $5, number = $6, description = $7, year = $8,
		updated_at = $9
	WHERE id = $1
	RETURNING ` + carColumns
	res, err := scanCar(cr.db.pool.QueryRow(ctx, q, c.ID, string(c.Type), c.Brand, c.Model, c.Seats, c.Number,
		c.Description, c.Year, c.UpdatedAt))
	if err != nil {
		return model.Car{}, mapErr(err)
	}
	return res, nil
}

func (cr *CarsRepo) Delete(ctx context.Context, carId string) error {
	tag, err := cr.db.pool.Exec(ctx, `DELETE FROM cars WHERE id = $1`, carId)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return myerrors.ErrNotFound
	}
	return nil
}

func (cr *CarsRepo) Assign(ctx context.Context, carId, driverId string) (model.Driver, error) {
	var driver model.Driver
	err := cr.db.inTx(ctx, func(tx pgx.Tx) error {
		var status string
		if err := tx.QueryRow(ctx, `SELECT status FROM cars WHERE id = $1 FOR UPDATE`, carId).Scan(&status); err != nil {
			return mapErr(err)
		}
		current, err := findDriver(ctx, tx, `id = $1 FOR UPDATE`, driverId)
		if err != nil {
			return err
		}
		if model.CarStatus(status) == model.CarEngaged {
			return myerrors.ErrConflict
		}
		if current.CarId != nil {
			if _, err := tx.Exec(ctx, `UPDATE cars SET status = 'available', updated_at = now() WHERE id = $1`, *current.CarId); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE cars SET status = 'engaged', updated_at = now() WHERE id = $1`, carId); err != nil {
			return err
		}
		q := `UPDATE drivers SET car_id = $2, updated_at = now() WHERE id = $1 RETURNING ` + driverColumns
		d, err := scanDriver(tx.QueryRow(ctx, q, driverId, carId))
		if err != nil {
			return mapErr(err)
		}
		driver = d
		return nil
	})
	if err != nil {
		return model.Driver{}, err
	}
	return driver, nil
}

func (cr *CarsRepo) Release(ctx context.Context, driverId string) (model.Driver, error) {
	var driver model.Driver
	err := cr.db.inTx(ctx, func(tx pgx.Tx) error {
		d, err := findDriver(ctx, tx, `id = $1 FOR UPDATE`, driverId)
		if err != nil {
			return err
		}
		if d.CarId == nil {
			driver = d
			return nil
		}
		if _, err := tx.Exec(ctx, `UPDATE cars SET status = 'available', updated_at = now() WHERE id = $1`, *d.CarId); err != nil {
			return err
		}
		q := `UPDATE drivers SET car_id = NULL, updated_at = now() WHERE id = $1 RETURNING ` + driverColumns
		driver, err = scanDriver(tx.QueryRow(ctx, q, driverId))
		return mapErr(err)
	})
	if err != nil {
		return model.Driver{}, err
	}
	return driver, nil
}

func scanCar(row pgx.Row) (model.Car, error) {
	var (
		c           model.Car
		typ, status string
	)
	err := row.Scan(&c.ID, &c.OwnerId, &typ, &c.Brand, &c.Model, &c.Seats, &c.Number, &c.Description, &c.Year,
		&status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Car{}, err
	}
	c.Type = model.CarType(typ)
	c.Status = model.CarStatus(status)
	return c, nil
}
