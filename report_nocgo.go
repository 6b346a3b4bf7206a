//go:build !cgo

package ldclump

// If cgo is not enabled, we will use the modernc.org/sqlite non-cgo sqlite
// driver. It is slower than the sqlite3 cgo driver.

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

const whichSQLiteDriver = "sqlite"

func openReportDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(whichSQLiteDriver, reportURI(path))
	if err != nil {
		return nil, err
	}

	// Reports are written once, in a single transaction
	_, err = db.DB.Exec(`
	PRAGMA journal_mode = OFF;
	PRAGMA synchronous = OFF;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to set pragmas: %w", err)
	}

	return db, nil
}
