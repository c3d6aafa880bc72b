package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for goose
	"github.com/pressly/goose/v3"
)

type DB struct {
	Host     string `yaml:"host" envconfig:"PG_HOST" default:"localhost"`
	Port     string `yaml:"port" envconfig:"PG_PORT" default:"5432"`
	User     string `yaml:"user" envconfig:"PG_USER" default:"postgres"`
	Password string `yaml:"password" envconfig:"PG_PASSWORD"`
	Name     string `yaml:"name" envconfig:"PG_DATABASE" default:"postgres"`
	SSLMode  string `yaml:"sslMode" envconfig:"PG_SSLMODE" default:"disable"`
}

func (d *DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// NewPostgresDB opens a pgx pool and applies goose migrations
// from the embedded fs before returning the pool.
func NewPostgresDB(ctx context.Context, cfg *DB, migrations embed.FS) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if err := migrate(cfg, migrations); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func migrate(cfg *DB, migrations embed.FS) error {
	db, err := goose.OpenDBWithDriver("pgx", cfg.DSN())
	if err != nil {
		return fmt.Errorf("goose.OpenDBWithDriver: %w", err)
	}
	defer db.Close() //nolint:errcheck

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("goose.Up: %w", err)
	}
	return nil
}
