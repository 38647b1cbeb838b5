package client

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage локальное состояние клиента: сессия и история скачиваний.
type Storage interface {
	SaveSession(s Session) error
	LoadSession() (Session, error)
	ClearSession() error
	AddDownload(rec DownloadRecord) (int64, error)
	ListDownloads(limit int) ([]DownloadRecord, error)
	Close() error
}

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}

	storage := &SQLiteStorage{db: db}

	if err := storage.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка инициализации таблиц: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			token TEXT NOT NULL,
			role TEXT NOT NULL,
			server TEXT NOT NULL,
			saved_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS downloads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_name TEXT NOT NULL,
			uploaded_date TEXT NOT NULL DEFAULT '',
			local_path TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			sha256 TEXT NOT NULL,
			downloaded_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_downloads_at ON downloads(downloaded_at);
	`)

	return err
}

// SaveSession заменяет единственную строку сессии.
func (s *SQLiteStorage) SaveSession(sess Session) error {
	if sess.SavedAt.IsZero() {
		sess.SavedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO session (id, token, role, server, saved_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			role = excluded.role,
			server = excluded.server,
			saved_at = excluded.saved_at
	`, sess.Token, sess.Role, sess.Server, sess.SavedAt.UTC())
	if err != nil {
		return fmt.Errorf("ошибка сохранения сессии: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadSession() (Session, error) {
	var sess Session
	err := s.db.QueryRow(`SELECT token, role, server, saved_at FROM session WHERE id = 1`).
		Scan(&sess.Token, &sess.Role, &sess.Server, &sess.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("ошибка чтения сессии: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStorage) ClearSession() error {
	if _, err := s.db.Exec(`DELETE FROM session`); err != nil {
		return fmt.Errorf("ошибка удаления сессии: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) AddDownload(rec DownloadRecord) (int64, error) {
	if rec.DownloadedAt.IsZero() {
		rec.DownloadedAt = time.Now()
	}

	res, err := s.db.Exec(`
		INSERT INTO downloads (file_name, uploaded_date, local_path, size_bytes, sha256, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.FileName, rec.UploadedDate, rec.LocalPath, rec.SizeBytes, rec.SHA256, rec.DownloadedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("ошибка сохранения истории: %w", err)
	}
	return res.LastInsertId()
}

// ListDownloads возвращает историю от новых к старым. limit <= 0 без ограничения.
func (s *SQLiteStorage) ListDownloads(limit int) ([]DownloadRecord, error) {
	query := `SELECT id, file_name, uploaded_date, local_path, size_bytes, sha256, downloaded_at
		FROM downloads ORDER BY downloaded_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	var out []DownloadRecord
	for rows.Next() {
		var rec DownloadRecord
		if err := rows.Scan(&rec.ID, &rec.FileName, &rec.UploadedDate, &rec.LocalPath,
			&rec.SizeBytes, &rec.SHA256, &rec.DownloadedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
