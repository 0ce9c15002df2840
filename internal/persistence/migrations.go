package persistence

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "migrations"

// RunMigrations applies pending goose migrations embedded in the binary and
// returns the resulting schema version.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) (int64, error) {
	if pool == nil {
		return 0, errors.New("no postgres pool available: set POSTGRES_DSN")
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{logger.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return 0, fmt.Errorf("goose up: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	logger.Info("migrations applied", zap.Int64("version", version))
	return version, nil
}

// gooseLogger routes goose output through zap at debug level.
type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.sugar.Debugf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.sugar.Fatalf(format, v...)
}
