package dbstore

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/eak1mov/go-libatlas/store"
)

// Writer implements store.Writer for a database file. Existing assets with
// the same path are replaced.
type Writer struct {
	db     *sql.DB
	stmt   *sql.Stmt
	logger *slog.Logger
}

type writerConfig struct {
	Metadata map[string]string
	Logger   *slog.Logger
}

type WriterOption func(*writerConfig)

func WithMetadata(metadata map[string]string) WriterOption {
	return func(c *writerConfig) { c.Metadata = metadata }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter opens (or creates) a database file for writing assets.
// Metadata entries replace those already stored under the same names.
func NewWriter(filePath string, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	var err error
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (name TEXT PRIMARY KEY, value TEXT);
		CREATE TABLE IF NOT EXISTS assets (path TEXT PRIMARY KEY, data BLOB);
	`)
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	for k, v := range config.Metadata {
		_, err = tx.Exec("INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)", k, v)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("INSERT INTO assets (path, data) VALUES (?, ?) ON CONFLICT(path) DO UPDATE SET data = excluded.data")
	if err != nil {
		return nil, err
	}

	return &Writer{db, stmt, config.Logger}, nil
}

func (w *Writer) Close() error {
	return errors.Join(w.stmt.Close(), w.db.Close())
}

// WriteAsset stores data in a single statement, so readers never observe a
// partially written asset.
func (w *Writer) WriteAsset(assetPath string, data []byte) error {
	p, err := store.CleanPath(assetPath)
	if err != nil {
		return err
	}
	_, err = w.stmt.Exec(p, nonNil(data))
	return err
}

// WriteAssets stores all items in one transaction.
func (w *Writer) WriteAssets(items ...store.Item) error {
	paths := make([]string, len(items))
	for i, item := range items {
		p, err := store.CleanPath(item.Path)
		if err != nil {
			return err
		}
		paths[i] = p
	}

	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	stmt := tx.Stmt(w.stmt)
	for i, item := range items {
		if _, err := stmt.Exec(paths[i], nonNil(item.Data)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func nonNil(data []byte) []byte {
	if data == nil {
		return make([]byte, 0)
	}
	return data
}

func (w *Writer) Finalize() error {
	w.logger.Debug("libatlas: compacting database")
	_, err := w.db.Exec("VACUUM")
	w.logger.Debug("libatlas: done!")
	return err
}
