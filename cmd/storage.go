package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/session"
	sessionPostgres "github.com/frahmantamala/expense-console/internal/session/postgres"
	sessionRedis "github.com/frahmantamala/expense-console/internal/session/redis"
	"github.com/frahmantamala/expense-console/internal/transport/rest"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sessionStore is the persistence behind the session manager together with
// what readiness probes and what shutdown closes.
type sessionStore struct {
	repo    session.RepositoryAPI
	pinger  rest.Pinger
	closers []func() error
}

func (s *sessionStore) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func openSessionStore(cfg *internal.Config) (*sessionStore, error) {
	if cfg.Session.Store == internal.SessionStoreRedis {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return &sessionStore{
			repo: sessionRedis.NewSessionRepository(client),
			pinger: rest.PingFunc(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}),
			closers: []func() error{client.Close},
		}, nil
	}

	gdb, closers, err := openGorm(cfg.Database)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	return &sessionStore{
		repo:    sessionPostgres.NewSessionRepository(gdb),
		pinger:  sqlDB,
		closers: closers,
	}, nil
}

// openGorm opens the SQL session store. Postgres goes through a pgx pool
// owned by sqlx; sqlite is for local development.
func openGorm(cfg internal.DatabaseConfig) (*gorm.DB, []func() error, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	if cfg.Driver == internal.DriverSQLite {
		gdb, err := gorm.Open(sqlite.Open(cfg.Source), gormCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return gdb, []func() error{sqlDB.Close}, nil
	}

	db, err := initDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), gormCfg)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, []func() error{db.Close}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
