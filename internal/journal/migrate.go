package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"

	"fjacquet/receipt-ledger/internal/logging"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// gooseLogger routes goose output through the application logger.
type gooseLogger struct {
	logger logging.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatalf(format, v...)
}

// Migrate runs a goose command ("up", "down", "status", "version", ...)
// against the journal schema at dsn.
func Migrate(ctx context.Context, dsn, command string, logger logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.WithError(cerr).Warn("Failed to close migration connection")
		}
	}()

	return MigrateDB(ctx, db, command, logger)
}

// MigrateDB runs a goose command on an open database.
func MigrateDB(ctx context.Context, db *sql.DB, command string, logger logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger: logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, migrationsDir); err != nil {
		return fmt.Errorf("migration %q failed: %w", command, err)
	}
	logger.Info("Migration finished", logging.F(logging.FieldOperation, command))
	return nil
}

// MigrationFiles lists the embedded migration files.
func MigrationFiles() ([]string, error) {
	entries, err := migrations.ReadDir(migrationsDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
