package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/valeevte/PriceOptimizer/internal/logger"
)

const connectTimeout = 5 * time.Second

// Connect opens a pool against cfg and pings it.
func Connect(ctx context.Context, cfg DBConfig, log *logger.Entry) (*pgxpool.Pool, error) {
	if !cfg.Complete() {
		return nil, errors.New("db config incomplete: user, host, port and name must be set")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.TargetDSN())
	if err != nil {
		return nil, errors.Wrap(err, "create pgx pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	log.WithFields(logger.Fields{"host": cfg.Host, "database": cfg.DBName}).Info("connected to postgres")
	return pool, nil
}

// EnsureDatabase creates cfg.DBName through the admin DSN when it is missing.
// It does nothing when no superuser is configured.
func EnsureDatabase(ctx context.Context, cfg DBConfig, log *logger.Entry) error {
	dsn := cfg.AdminDSN()
	if dsn == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return errors.Wrap(err, "connect as superuser")
	}
	defer conn.Close(ctx)

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, cfg.DBName).Scan(&exists); err != nil {
		return errors.Wrap(err, "look up database")
	}
	if exists {
		return nil
	}

	owner := pgx.Identifier{cfg.User}.Sanitize()
	if _, err := conn.Exec(ctx, `CREATE DATABASE `+pgx.Identifier{cfg.DBName}.Sanitize()+` OWNER `+owner); err != nil {
		return errors.Wrapf(err, "create database %s", cfg.DBName)
	}
	log.WithField("database", cfg.DBName).Info("database created")
	return nil
}
