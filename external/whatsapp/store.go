package whatsapp

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
	_ "modernc.org/sqlite"
)

// storeDriver picks the database/sql driver and whatsmeow dialect for dsn.
// postgres:// and postgresql:// URLs use pgx, anything else is a SQLite
// file DSN.
func storeDriver(dsn string) (driver, dialect string) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "pgx", "postgres"
	}
	return "sqlite", "sqlite3"
}

// OpenDeviceStore opens the whatsmeow device store and upgrades its schema.
func OpenDeviceStore(ctx context.Context, dsn string, log waLog.Logger) (*sqlstore.Container, error) {
	driver, dialect := storeDriver(dsn)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}
	if driver == "sqlite" {
		// SQLite allows one writer.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping device store: %w", err)
	}

	container := sqlstore.NewWithDB(db, dialect, log)
	if err := container.Upgrade(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("upgrade device store: %w", err)
	}
	return container, nil
}
