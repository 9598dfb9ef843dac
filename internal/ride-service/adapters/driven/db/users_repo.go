package db

import (
	"context"

	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, mobile_number, email, password_hash, name, gender, aadhaar_card, is_verified, fcm_token, created_at, updated_at`

type UsersRepo struct {
	db *DB
}

func NewUsersRepo(db *DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (ur *UsersRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	q := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := ur.db.pool.Exec(ctx, q, u.ID, nullable(u.MobileNumber), nullable(u.Email), u.PasswordHash, u.Name,
		u.Gender, u.AadhaarCard, u.IsVerified, u.FcmToken, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return model.User{}, mapErr(err)
	}
	return u, nil
}

func (ur *UsersRepo) FindById(ctx context.Context, userId string) (model.User, error) {
	return ur.findOne(ctx, `id = $1`, userId)
}

func (ur *UsersRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return ur.findOne(ctx, `lower(email) = lower($1)`, email)
}

func (ur *UsersRepo) FindByMobile(ctx context.Context, mobile string) (model.User, error) {
	return ur.findOne(ctx, `mobile_number = $1`, mobile)
}

func (ur *UsersRepo) findOne(ctx context.Context, cond string, arg any) (model.User, error) {
	u, err := scanUser(ur.db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg))
	if err != nil {
		return model.User{}, mapErr(err)
	}
	return u, nil
}

func (ur *UsersRepo) Update(ctx context.Context, u model.User) (model.User, error) {
	q := `UPDATE users SET mobile_number = $2, email = $3, password_hash = $4, name = $5, gender = $6,
		aadhaar_card = $7, is_verified = $8, fcm_token = $9, updated_at = $10
	WHERE id = $1`
	tag, err := ur.db.pool.Exec(ctx, q, u.ID, nullable(u.MobileNumber), nullable(u.Email), u.PasswordHash, u.Name,
		u.Gender, u.AadhaarCard, u.IsVerified, u.FcmToken, u.UpdatedAt)
	if err != nil {
		return model.User{}, mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.User{}, myerrors.ErrNotFound
	}
	return u, nil
}

func (ur *UsersRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := ur.db.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		u             model.User
		mobile, email *string
	)
	err := row.Scan(&u.ID, &mobile, &email, &u.PasswordHash, &u.Name, &u.Gender, &u.AadhaarCard,
		&u.IsVerified, &u.FcmToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.MobileNumber = deref(mobile)
	u.Email = deref(email)
	return u, nil
}
