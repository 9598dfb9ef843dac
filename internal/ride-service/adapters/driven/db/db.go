package db

import (
	"context"
	"errors"
	"fmt"

	"travelo/internal/config"
	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/myerrors"
	"travelo/internal/ride-service/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

var (
	_ ports.IRidesRepo   = (*RidesRepo)(nil)
	_ ports.IUsersRepo   = (*UsersRepo)(nil)
	_ ports.IDriversRepo = (*DriversRepo)(nil)
	_ ports.IOwnersRepo  = (*OwnersRepo)(nil)
	_ ports.ICarsRepo    = (*CarsRepo)(nil)
	_ ports.IAdminsRepo  = (*AdminsRepo)(nil)
)

type DB struct {
	cfg   *config.DBconfig
	mylog mylogger.Logger
	pool  *pgxpool.Pool
}

// New opens a connection pool and checks it with a ping.
func New(ctx context.Context, dbCfg *config.DBconfig, mylog mylogger.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if dbCfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(dbCfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	mylog.Info("database pool ready", "host", dbCfg.Host, "database", dbCfg.Database, "max_conns", poolCfg.MaxConns)
	return &DB{
		cfg:   dbCfg,
		mylog: mylog,
		pool:  pool,
	}, nil
}

func (d *DB) Close() {
	d.pool.Close()
}

// IsAlive pings the DB to verify it's responsive
func (d *DB) IsAlive(ctx context.Context) error {
	if d.pool == nil {
		return myerrors.ErrDBConnClosed
	}
	if err := d.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// inTx runs fn inside a transaction and commits when fn succeeds.
func (d *DB) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// mapErr translates driver errors into repository errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return myerrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return myerrors.ErrConflict
	}
	return err
}

// nullable maps "" to NULL so optional unique columns do not collide.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
