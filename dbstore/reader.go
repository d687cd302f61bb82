// Package dbstore provides asset storage in a single SQLite database file.
//
// Note: User must properly initialize the sqlite3 library generic driver
// (e.g. import _ "github.com/mattn/go-sqlite3") before using this package.
package dbstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/eak1mov/go-libatlas/store"
)

// Reader implements store.Reader and store.Visitor for a database file.
type Reader struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewReader opens the database file read-only.
//
// The returned Reader must be closed after use to release database resources.
func NewReader(filePath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("SELECT data FROM assets WHERE path = ?")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Reader{db: db, stmt: stmt}, nil
}

func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

func (r *Reader) ReadMetadata() (map[string]string, error) {
	metadata := make(map[string]string)

	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metadata, nil
}

func (r *Reader) ReadAsset(assetPath string) ([]byte, error) {
	p, err := store.CleanPath(assetPath)
	if err != nil {
		return nil, err
	}

	var data []byte
	if err := r.stmt.QueryRow(p).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound(assetPath)
		}
		return nil, err
	}
	if data == nil {
		data = make([]byte, 0)
	}
	return data, nil
}

func (r *Reader) VisitAssets(visitor func(string, []byte) error) error {
	rows, err := r.db.Query("SELECT path, data FROM assets ORDER BY path")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var assetPath string
		var data []byte

		if err := rows.Scan(&assetPath, &data); err != nil {
			return err
		}
		if data == nil {
			data = make([]byte, 0)
		}

		if err := visitor(assetPath, data); err != nil {
			return err
		}
	}

	return rows.Err()
}
