package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"emosante/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Init opens the configured store, retrying while it comes up, and applies
// the schema migrations.
func Init(ctx context.Context, dbCfg *config.DBConfig) (*sqlx.DB, error) {
	driverName, dsn, err := dataSource(dbCfg)
	if err != nil {
		return nil, err
	}

	var db *sqlx.DB

	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Open(driverName, dsn)
		if err != nil {
			logrus.WithError(err).Warnf("Failed to open database connection (attempt %d/%d)", i+1, maxRetries)
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		if err = db.PingContext(ctx); err != nil {
			logrus.WithError(err).Warnf("Failed to ping database (attempt %d/%d)", i+1, maxRetries)
			if err := db.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close database connection")
			}
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		break
	}

	if err != nil {
		return nil, fmt.Errorf("connect to database after %d attempts: %w", maxRetries, err)
	}

	configurePool(db, dbCfg.Driver)

	if err := Migrate(ctx, db, dbCfg.Driver); err != nil {
		_ = db.Close()
		return nil, err
	}

	logrus.WithField("driver", dbCfg.Driver).Info("Database connection established successfully")
	return db, nil
}

// OpenSQLite opens a SQLite database at dsn with foreign keys enforced and
// migrates it. Tests use it with in-memory DSNs.
func OpenSQLite(ctx context.Context, dsn string) (*sqlx.DB, error) {
	if !strings.Contains(dsn, "foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	configurePool(db, DriverSQLite)

	if err := Migrate(ctx, db, DriverSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func dataSource(dbCfg *config.DBConfig) (string, string, error) {
	switch dbCfg.Driver {
	case DriverSQLite:
		return "sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbCfg.Path), nil
	case DriverPostgres:
		return "pgx", fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			dbCfg.Host, dbCfg.Port, dbCfg.User, dbCfg.Password, dbCfg.Name, dbCfg.SSLMode,
		), nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", dbCfg.Driver)
	}
}

func configurePool(db *sqlx.DB, driver string) {
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
}
