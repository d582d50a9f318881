package database

import (
	"database/sql"
)

type PgDirectMessageRepository struct {
	conn *sql.DB
}

func NewPgDirectMessageRepository(dsn string) (*PgDirectMessageRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgDirectMessageRepository{conn: db}, nil
}

func (db *PgDirectMessageRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgDirectMessageRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
