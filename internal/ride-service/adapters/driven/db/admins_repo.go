package db

import (
	"context"

	"travelo/internal/ride-service/core/domain/model"

	"github.com/jackc/pgx/v5"
)

const adminColumns = `id, kind, name, email, mobile_number, password_hash, created_at`

type AdminsRepo struct {
	db *DB
}

func NewAdminsRepo(db *DB) *AdminsRepo {
	return &AdminsRepo{db: db}
}

func (ar *AdminsRepo) Create(ctx context.Context, a model.Admin) (model.Admin, error) {
	q := `INSERT INTO admins (` + adminColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := ar.db.pool.Exec(ctx, q, a.ID, string(a.Kind), a.Name, a.Email, a.MobileNumber, a.PasswordHash, a.CreatedAt)
	if err != nil {
		return model.Admin{}, mapErr(err)
	}
	return a, nil
}

func (ar *AdminsRepo) FindById(ctx context.Context, adminId string) (model.Admin, error) {
	a, err := scanAdmin(ar.db.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, adminId))
	return a, mapErr(err)
}

func (ar *AdminsRepo) FindByEmail(ctx context.Context, email string) (model.Admin, error) {
	a, err := scanAdmin(ar.db.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE lower(email) = lower($1)`, email))
	return a, mapErr(err)
}

func (ar *AdminsRepo) List(ctx context.Context) ([]model.Admin, error) {
	rows, err := ar.db.pool.Query(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func scanAdmin(row pgx.Row) (model.Admin, error) {
	var (
		a    model.Admin
		kind string
	)
	if err := row.Scan(&a.ID, &kind, &a.Name, &a.Email, &a.MobileNumber, &a.PasswordHash, &a.CreatedAt); err != nil {
		return model.Admin{}, err
	}
	a.Kind = model.AdminKind(kind)
	return a, nil
}
