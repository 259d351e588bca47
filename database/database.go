package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/formmind/formmind/config"
)

// Open connects to the SQLite database, enables foreign keys and runs any
// pending migrations.
func Open(cfg config.Config) (db *sql.DB, err error) {
	// foreign_keys is a per-connection pragma: it must ride the DSN so the
	// pool enables it on every connection it opens, or cascade deletes stop
	// working as soon as a second connection is used
	db, err = sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=on")
	if err != nil {
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return
	}

	return
}
