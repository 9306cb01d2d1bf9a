package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const AccountTableSchema = `
	CREATE TABLE IF NOT EXISTS user_accounts (
		id VARCHAR NOT NULL PRIMARY KEY,
		login VARCHAR NOT NULL UNIQUE,
		plan_id VARCHAR
	);
`

const UsageTableSchema = `
	CREATE TABLE IF NOT EXISTS usage_records (
		id VARCHAR NOT NULL PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		usage_type VARCHAR NOT NULL,
		gear_size VARCHAR,
		addtl_fs_gb INTEGER,
		cart_name VARCHAR,
		gear_id VARCHAR,
		app_name VARCHAR,
		begin_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NULL
	);
`

var bootQueries = []string{
	AccountTableSchema,
	UsageTableSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	db, err := sql.Open("sqlite", settings.DbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// sqlite is single-writer, and an in-memory database exists per
	// connection, so the pool must not grow past one.
	db.SetMaxOpenConns(1)

	for _, query := range bootQueries {
		if _, err := db.Exec(query); err != nil {
			db.Close()
			return nil, fmt.Errorf("bootstrap schema: %w", err)
		}
	}

	return db, nil
}
