package database

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/noah-isme/scas-api/pkg/config"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not map to a bind style.
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// Open returns a configured record store client for the configured driver.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driver, dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == config.DriverSQLite {
		// a single writer avoids SQLITE_BUSY on the file database
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		db.SetConnMaxLifetime(1 * time.Hour)
		db.SetConnMaxIdleTime(30 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return db, nil
}

// DSN resolves the driver name and data source for cfg.
func DSN(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return config.DriverPostgres, fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.SSLMode,
		), nil
	case config.DriverPgx:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
			Path:     "/" + cfg.Name,
			RawQuery: url.Values{"sslmode": []string{cfg.SSLMode}}.Encode(),
		}
		return config.DriverPgx, u.String(), nil
	case config.DriverSQLite, "":
		path := cfg.Path
		if path == "" {
			path = "datascas.db"
		}
		return config.DriverSQLite, "file:" + path + "?_pragma=busy_timeout(5000)", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
