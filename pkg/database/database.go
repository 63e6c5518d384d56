package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"community-service/configs"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const _connectTimeout = 5 * time.Second

// DSN builds the lib/pq connection string for the given database name.
func DSN(cfg configs.Config, dbName string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, dbName, cfg.DBSSLMode)
}

// URL is the postgres:// form golang-migrate expects.
func URL(cfg configs.Config, dbName string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:     fmt.Sprintf("%s:%d", cfg.DBHost, cfg.DBPort),
		Path:     "/" + dbName,
		RawQuery: url.Values{"sslmode": {cfg.DBSSLMode}}.Encode(),
	}
	return u.String()
}

func ConnectDB(cfg configs.Config) (*sqlx.DB, error) {
	return Open(DSN(cfg, cfg.DBName))
}

// Open connects with the postgres driver and verifies the connection.
func Open(dsn string) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), _connectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}
