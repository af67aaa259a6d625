package database

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scas-api/pkg/config"
)

func TestDSN(t *testing.T) {
	base := config.DatabaseConfig{Host: "db", Port: 5432, User: "scas", Password: "p@ss", Name: "campus", SSLMode: "disable", Path: "x.db"}

	tests := []struct {
		driver     string
		wantDriver string
		wantDSN    string
	}{
		{config.DriverPostgres, "postgres", "host=db port=5432 user=scas password=p@ss dbname=campus sslmode=disable"},
		{config.DriverPgx, "pgx", "postgres://scas:p%40ss@db:5432/campus?sslmode=disable"},
		{config.DriverSQLite, "sqlite", "file:x.db?_pragma=busy_timeout(5000)"},
	}
	for _, tc := range tests {
		t.Run(tc.driver, func(t *testing.T) {
			cfg := base
			cfg.Driver = tc.driver
			driver, dsn, err := DSN(cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.wantDriver, driver)
			assert.Equal(t, tc.wantDSN, dsn)
		})
	}

	_, _, err := DSN(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestOpenSQLite(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "scas.db")})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, sqlx.QUESTION, sqlx.BindType(db.DriverName()))

	_, err = db.Exec(`CREATE TABLE "Students" ("StudentID" TEXT PRIMARY KEY, "CGPA" DOUBLE PRECISION)`)
	require.NoError(t, err)
	_, err = db.Exec(db.Rebind(`INSERT INTO "Students" ("StudentID", "CGPA") VALUES (?, ?)`), "STU1", 8.5)
	require.NoError(t, err)

	var cgpa float64
	require.NoError(t, db.Get(&cgpa, `SELECT "CGPA" FROM "Students" WHERE "StudentID" = ?`, "STU1"))
	assert.Equal(t, 8.5, cgpa)
}
