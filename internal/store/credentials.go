package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pwshub/weathercloud-hub/internal/weathercloud"
)

// ErrNoCredentials is returned when the store holds no remembered pair.
var ErrNoCredentials = errors.New("no stored credentials")

// The remote wants the password verbatim at sign-in, so it is stored as
// given. The database file should stay private to the user running the
// hub.
const credentialsSchema = `
CREATE TABLE IF NOT EXISTS credentials (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	mail       TEXT NOT NULL,
	password   TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// CredentialStore persists one remembered sign-in pair in a local sqlite
// file.
type CredentialStore struct {
	db *sql.DB
}

func buildDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
}

// OpenCredentialStore opens (creating if needed) the sqlite file at path
// and ensures the schema exists. Use ":memory:" for an ephemeral store.
func OpenCredentialStore(path string) (*CredentialStore, error) {
	db, err := sql.Open("sqlite3", buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open credentials db: %w", err)
	}
	// A single connection keeps the serialized write path simple.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping credentials db: %w", err)
	}
	if _, err := db.Exec(credentialsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create credentials schema: %w", err)
	}

	return &CredentialStore{db: db}, nil
}

// Save upserts the single remembered pair.
func (s *CredentialStore) Save(creds weathercloud.Credentials) error {
	_, err := s.db.Exec(`
		INSERT INTO credentials (id, mail, password, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			mail = excluded.mail,
			password = excluded.password,
			updated_at = CURRENT_TIMESTAMP`,
		creds.Mail, creds.Password)
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Load returns the remembered pair, or ErrNoCredentials when none is
// stored.
func (s *CredentialStore) Load() (weathercloud.Credentials, error) {
	var creds weathercloud.Credentials
	err := s.db.QueryRow(`SELECT mail, password FROM credentials WHERE id = 1`).
		Scan(&creds.Mail, &creds.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return weathercloud.Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return weathercloud.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}
	return creds, nil
}

// Clear drops the remembered pair.
func (s *CredentialStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *CredentialStore) Close() error {
	return s.db.Close()
}
