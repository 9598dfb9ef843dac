package db

import (
	"context"

	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"

	"github.com/jackc/pgx/v5"
)

const ownerColumns = `id, name, address, email, password_hash, contact_number, aadhaar_card, fcm_token, created_at, updated_at`

type OwnersRepo struct {
	db *DB
}

func NewOwnersRepo(db *DB) *OwnersRepo {
	return &OwnersRepo{db: db}
}

func (or *OwnersRepo) Create(ctx context.Context, o model.Owner) (model.Owner, error) {
	q := `INSERT INTO owners (` + ownerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := or.db.pool.Exec(ctx, q, o.ID, o.Name, o.Address, o.Email, o.PasswordHash, o.ContactNumber,
		o.AadhaarCard, o.FcmToken, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return model.Owner{}, mapErr(err)
	}
	return o, nil
}

func (or *OwnersRepo) FindById(ctx context.Context, ownerId string) (model.Owner, error) {
	o, err := scanOwner(or.db.pool.QueryRow(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = $1`, ownerId))
	return o, mapErr(err)
}

func (or *OwnersRepo) FindByEmail(ctx context.Context, email string) (model.Owner, error) {
	o, err := scanOwner(or.db.pool.QueryRow(ctx, `SELECT `+ownerColumns+` FROM owners WHERE lower(email) = lower($1)`, email))
	return o, mapErr(err)
}

func (or *OwnersRepo) List(ctx context.Context) ([]model.Owner, error) {
	rows, err := or.db.pool.Query(ctx, `SELECT `+ownerColumns+` FROM owners ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.Owner{}
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

// Delete relies on ON DELETE CASCADE for the owner's drivers and cars.
func (or *OwnersRepo) Delete(ctx context.Context, ownerId string) error {
	tag, err := or.db.pool.Exec(ctx, `DELETE FROM owners WHERE id = $1`, ownerId)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return myerrors.ErrNotFound
	}
	return nil
}

func scanOwner(row pgx.Row) (model.Owner, error) {
	var o model.Owner
	err := row.Scan(&o.ID, &o.Name, &o.Address, &o.Email, &o.PasswordHash, &o.ContactNumber, &o.AadhaarCard,
		&o.FcmToken, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return model.Owner{}, err
	}
	return o, nil
}
