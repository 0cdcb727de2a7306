package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const pgSchema = `create table if not exists client_tokens (
	key        text primary key,
	token      text not null,
	updated_at timestamptz not null default now()
)`

// OpenPG opens a postgres pool through the pgx stdlib driver.
func OpenPG(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// EnsurePGSchema creates the client_tokens table when missing.
func EnsurePGSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, pgSchema)
	return err
}

// PGStore keeps one token in one row of client_tokens.
type PGStore struct {
	db  *sql.DB
	key string
}

func NewPGStore(db *sql.DB, key string) *PGStore { return &PGStore{db: db, key: key} }

func (p *PGStore) Load(ctx context.Context) (string, error) {
	var tok string
	err := p.db.QueryRowContext(ctx, `select token from client_tokens where key = $1`, p.key).Scan(&tok)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return tok, err
}

func (p *PGStore) Save(ctx context.Context, token string) error {
	_, err := p.db.ExecContext(ctx, `
		insert into client_tokens(key, token, updated_at)
		values ($1, $2, now())
		on conflict (key) do update
		set token = excluded.token, updated_at = excluded.updated_at
	`, p.key, token)
	return err
}

func (p *PGStore) Delete(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `delete from client_tokens where key = $1`, p.key)
	return err
}
