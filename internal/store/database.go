package store

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
)

// Driver names as registered with database/sql.
const (
	mysqlDriver  = "mysql"
	sqliteDriver = "sqlite3"
)

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS contacts (
	id        BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
	firstname VARCHAR(255) NULL,
	lastname  VARCHAR(255) COLLATE utf8mb4_bin NULL,
	avatar    VARCHAR(2048) NULL,
	twitter   VARCHAR(255) NULL,
	notes     TEXT NULL,
	favorite  BOOLEAN NOT NULL DEFAULT FALSE,
	createdat BIGINT NOT NULL,
	INDEX contacts_lastname (lastname)
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS contacts (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	firstname TEXT,
	lastname  TEXT,
	avatar    TEXT,
	twitter   TEXT,
	notes     TEXT,
	favorite  BOOLEAN NOT NULL DEFAULT 0,
	createdat INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS contacts_lastname ON contacts (lastname);
`

// Open initializes and returns a database connection for the configured driver.
func Open(cfg config.Config) (*sqlx.DB, error) {
	switch cfg.DBDriver {
	case config.DriverMySQL:
		// clientFoundRows makes an UPDATE that changes nothing still report the matched row.
		dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&clientFoundRows=true",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBName)
		db, err := sqlx.Open(mysqlDriver, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, nil
	case config.DriverSQLite:
		return OpenSQLite(cfg.DBFile)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// OpenSQLite opens the SQLite database at path. Use ":memory:" for an in-memory database.
func OpenSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open(sqliteDriver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time; an in-memory database only lives as long as
	// its single connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	pragmas := []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return db, nil
}

// Migrate creates the contacts table if it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == mysqlDriver {
		schema = mysqlSchema
	}
	if _, err := ExecScript(ctx, db, strings.NewReader(schema)); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ExecScript executes the SQL statements read from r one after the other. A statement ends on
// the line containing a ';'. Lines starting with "--" are skipped. It returns the number of
// executed statements.
func ExecScript(ctx context.Context, db *sqlx.DB, r io.Reader) (int, error) {
	fileScanner := bufio.NewScanner(r)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	executed := 0
	exec := func() error {
		stmt := strings.TrimSpace(builder.String())
		builder.Reset()
		if stmt == "" || stmt == ";" {
			return nil
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", executed+1, err)
		}
		executed++
		return nil
	}
	for fileScanner.Scan() {
		line := fileScanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			if err := exec(); err != nil {
				return executed, err
			}
		}
	}
	if err := fileScanner.Err(); err != nil {
		return executed, err
	}
	// A trailing statement without ';' is executed as well.
	return executed, exec()
}
