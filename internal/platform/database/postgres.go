package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"creativerse/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

var DB *sql.DB

//go:embed schema.sql
var schema string

func Connect() {
	var err error
	DB, err = sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = DB.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Str("host", config.AppConfig.DBHost).Msg("Error connecting to database")
	}

	log.Info().Str("host", config.AppConfig.DBHost).Str("db", config.AppConfig.DBName).Msg("Successfully connected to PostgreSQL database")
}

// Migrate applies the schema. Every statement is idempotent, so it runs on each start.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	log.Info().Msg("Database schema is up to date")
	return nil
}

func Close() {
	if DB != nil {
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
			return
		}
		log.Info().Msg("Database connection closed")
	}
}
