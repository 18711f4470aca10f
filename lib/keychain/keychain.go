// Package keychain persists portal credentials keyed by namespace
// (which portal) and id (which student).
package keychain

import (
	"context"
	"database/sql"
	"errors"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Key struct {
	Username string
	Password string
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Get looks up the credentials stored under a namespace and id. A
// missing key is not an error, it reports ok=false.
func (s Store) Get(ctx context.Context, namespace, id string) (Key, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`select username, password from username_password
		 where namespace = ? and id = ?`,
		namespace, id,
	)

	var key Key
	err := row.Scan(&key.Username, &key.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return Key{}, false, nil
	}
	if err != nil {
		return Key{}, false, err
	}
	return key, true, nil
}

// Set stores credentials, replacing any previous key under the same
// namespace and id.
func (s Store) Set(ctx context.Context, namespace, id string, key Key) error {
	_, err := s.db.ExecContext(
		ctx,
		`insert into username_password (namespace, id, username, password)
		 values (?, ?, ?, ?)
		 on conflict (namespace, id) do update
		 set username = excluded.username, password = excluded.password`,
		namespace, id, key.Username, key.Password,
	)
	return err
}

func (s Store) Delete(ctx context.Context, namespace, id string) error {
	_, err := s.db.ExecContext(
		ctx,
		`delete from username_password where namespace = ? and id = ?`,
		namespace, id,
	)
	return err
}
