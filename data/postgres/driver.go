// Package postgres registers the PostgreSQL driver with the data package.
//
//	import _ "github.com/ncobase/collab/data/postgres"
//
// Connections go through pgx's database/sql adapter.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/ncobase/collab/config"
	"github.com/ncobase/collab/data"
)

// applicationName tags sessions in pg_stat_activity.
const applicationName = "collab"

type driver struct{}

func (d *driver) Name() string { return "postgres" }

// Connect opens and pings a pool configured from a *config.Database.
func (d *driver) Connect(ctx context.Context, cfg any) (any, error) {
	c, ok := cfg.(*config.Database)
	if !ok {
		return nil, fmt.Errorf("postgres: expected *config.Database, got %T", cfg)
	}
	if c.Source == "" {
		return nil, errors.New("postgres: data.database.source is empty")
	}

	pc, err := pgx.ParseConfig(c.Source)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid source: %w", err)
	}
	if _, set := pc.RuntimeParams["application_name"]; !set {
		pc.RuntimeParams["application_name"] = applicationName
	}

	db := stdlib.OpenDB(*pc)
	if c.MaxIdleConn > 0 {
		db.SetMaxIdleConns(c.MaxIdleConn)
	}
	if c.MaxOpenConn > 0 {
		db.SetMaxOpenConns(c.MaxOpenConn)
	}
	if c.ConnMaxLifeTime > 0 {
		db.SetConnMaxLifetime(c.ConnMaxLifeTime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping %s: %w", pc.Host, err)
	}
	return db, nil
}

func (d *driver) Close(conn any) error {
	db, err := asDB(conn)
	if err != nil {
		return err
	}
	return db.Close()
}

func (d *driver) Ping(ctx context.Context, conn any) error {
	db, err := asDB(conn)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func asDB(conn any) (*sql.DB, error) {
	db, ok := conn.(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("postgres: expected *sql.DB, got %T", conn)
	}
	return db, nil
}

func init() {
	data.RegisterDatabaseDriver(&driver{})
}
