package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS account (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	wins          INTEGER NOT NULL DEFAULT 0,
	losses        INTEGER NOT NULL DEFAULT 0,
	draws         INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS game (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	code       TEXT NOT NULL,
	moves      TEXT NOT NULL,
	winner     TEXT NOT NULL,
	end_reason TEXT NOT NULL,
	white_id   INTEGER REFERENCES account(id),
	white_name TEXT NOT NULL,
	black_id   INTEGER REFERENCES account(id),
	black_name TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	ended_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_game_white ON game(white_id);
CREATE INDEX IF NOT EXISTS idx_game_black ON game(black_id);
`

// Store implements the storage interface over a single SQLite file.
// It mirrors the relational shape the platform's original store used:
// an account table with counter columns and a game table keeping
// account ids for registered sides and frozen names for guests.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite store at the given path
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements the interface
var _ storage.Store = (*Store)(nil)

// Account operations

func (s *Store) CreateAccount(ctx context.Context, acct *model.Account) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO account (name, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		acct.Name, normalizeEmail(acct.Email), acct.PasswordHash,
		toMillis(acct.CreatedAt), toMillis(acct.UpdatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrEmailTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	acct.ID = model.AccountID(id)
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, wins, losses, draws, created_at, updated_at
		 FROM account WHERE id = ?`, id)
	return scanAccount(row)
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, wins, losses, draws, created_at, updated_at
		 FROM account WHERE email = ?`, normalizeEmail(email))
	return scanAccount(row)
}

// Completed game operations

func (s *Store) SaveCompletedGame(ctx context.Context, rec *model.GameRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO game (code, moves, winner, end_reason, white_id, white_name, black_id, black_name, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Code, rec.Moves, rec.Winner, rec.Reason,
		nullableID(rec.WhiteAccount), rec.WhiteName,
		nullableID(rec.BlackAccount), rec.BlackName,
		toMillis(rec.StartedAt), toMillis(rec.EndedAt))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id

	if err := applyCounters(ctx, tx, rec); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) GetCompletedGame(ctx context.Context, id int64) (*model.GameRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, code, moves, winner, end_reason, white_id, white_name, black_id, black_name, started_at, ended_at
		 FROM game WHERE id = ?`, id)
	return scanGame(row)
}

func (s *Store) ListGamesByAccount(ctx context.Context, id model.AccountID, limit int) ([]*model.GameRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, moves, winner, end_reason, white_id, white_name, black_id, black_name, started_at, ended_at
		 FROM game WHERE white_id = ? OR black_id = ? ORDER BY id DESC LIMIT ?`,
		id, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.GameRecord
	for rows.Next() {
		rec, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// applyCounters updates win/loss/draw columns for registered sides inside
// the same transaction as the game insert
func applyCounters(ctx context.Context, tx *sql.Tx, rec *model.GameRecord) error {
	bump := func(id model.AccountID, column string) error {
		if id == 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE account SET `+column+` = `+column+` + 1 WHERE id = ?`, id)
		return err
	}

	switch rec.Winner {
	case model.WinnerDraw:
		if err := bump(rec.WhiteAccount, "draws"); err != nil {
			return err
		}
		return bump(rec.BlackAccount, "draws")
	case model.WinnerWhite:
		if err := bump(rec.WhiteAccount, "wins"); err != nil {
			return err
		}
		return bump(rec.BlackAccount, "losses")
	case model.WinnerBlack:
		if err := bump(rec.BlackAccount, "wins"); err != nil {
			return err
		}
		return bump(rec.WhiteAccount, "losses")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*model.Account, error) {
	var acct model.Account
	var createdAt, updatedAt int64
	err := row.Scan(&acct.ID, &acct.Name, &acct.Email, &acct.PasswordHash,
		&acct.Wins, &acct.Losses, &acct.Draws, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	acct.CreatedAt = fromMillis(createdAt)
	acct.UpdatedAt = fromMillis(updatedAt)
	return &acct, nil
}

func scanGame(row scanner) (*model.GameRecord, error) {
	var rec model.GameRecord
	var whiteID, blackID sql.NullInt64
	var startedAt, endedAt int64
	err := row.Scan(&rec.ID, &rec.Code, &rec.Moves, &rec.Winner, &rec.Reason,
		&whiteID, &rec.WhiteName, &blackID, &rec.BlackName, &startedAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrGameRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.WhiteAccount = model.AccountID(whiteID.Int64)
	rec.BlackAccount = model.AccountID(blackID.Int64)
	rec.StartedAt = fromMillis(startedAt)
	rec.EndedAt = fromMillis(endedAt)
	return &rec, nil
}

func nullableID(id model.AccountID) any {
	if id == 0 {
		return nil
	}
	return int64(id)
}

// toMillis normalizes timestamps into millisecond precision for storage
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
