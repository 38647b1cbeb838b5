package postgres

import (
	"context"
	"errors"

	"excelkeeper/internal/domain/excel"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"
)

const upsertFileSQL = `
INSERT INTO single_excel_file (id, file_name, file_data)
VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET
    file_name   = EXCLUDED.file_name,
    file_data   = EXCLUDED.file_data,
    uploaded_at = CURRENT_TIMESTAMP`

type FileRepository struct {
	storage *Storage
	log     *slog.Logger
}

func NewFileRepository(storage *Storage, log *slog.Logger) *FileRepository {
	return &FileRepository{
		storage: storage,
		log:     log.With(slog.String("component", "file_repository")),
	}
}

func (r *FileRepository) Upsert(ctx context.Context, name string, data []byte) error {
	if _, err := r.storage.Exec(ctx, "file_upsert", upsertFileSQL, name, data); err != nil {
		r.log.Error("failed to store file", slog.String("file_name", name), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (r *FileRepository) Get(ctx context.Context) (excel.File, error) {
	var f excel.File
	err := r.storage.QueryRow(ctx, "file_get",
		`SELECT id, file_name, file_data, uploaded_at FROM single_excel_file WHERE id = 1`, nil,
		&f.ID, &f.Name, &f.Data, &f.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return excel.File{}, excel.ErrNotFound
		}
		r.log.Error("failed to load file", slog.String("error", err.Error()))
		return excel.File{}, err
	}
	return f, nil
}

func (r *FileRepository) Info(ctx context.Context) (excel.Info, error) {
	var info excel.Info
	err := r.storage.QueryRow(ctx, "file_info",
		`SELECT id, file_name, uploaded_at FROM single_excel_file WHERE id = 1`, nil,
		&info.ID, &info.Name, &info.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return excel.Info{}, excel.ErrNotFound
		}
		r.log.Error("failed to load file info", slog.String("error", err.Error()))
		return excel.Info{}, err
	}
	return info, nil
}

func (r *FileRepository) Delete(ctx context.Context) (bool, error) {
	tag, err := r.storage.Exec(ctx, "file_delete", `DELETE FROM single_excel_file WHERE id = 1`)
	if err != nil {
		r.log.Error("failed to delete file", slog.String("error", err.Error()))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
