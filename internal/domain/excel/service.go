package excel

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"
)

type Servicer interface {
	Store(ctx context.Context, name string, data []byte) error
	Retrieve(ctx context.Context) (File, error)
	Describe(ctx context.Context) (Info, error)
	Remove(ctx context.Context) error
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(slog.String("component", "excel_service")),
	}
}

// Store заменяет хранимый файл целиком.
func (s *Service) Store(ctx context.Context, name string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyFile
	}
	if len(data) > MaxFileSize {
		return ErrFileTooLarge
	}

	clean, err := SanitizeName(name)
	if err != nil {
		return err
	}

	if err := s.repo.Upsert(ctx, clean, data); err != nil {
		return fmt.Errorf("store file: %w", err)
	}

	s.log.Info("file stored", slog.String("file_name", clean), slog.Int("size", len(data)))
	return nil
}

func (s *Service) Retrieve(ctx context.Context) (File, error) {
	f, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("retrieve file: %w", err)
	}
	return f, nil
}

func (s *Service) Describe(ctx context.Context) (Info, error) {
	info, err := s.repo.Info(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Info{}, ErrNotFound
		}
		return Info{}, fmt.Errorf("describe file: %w", err)
	}
	return info, nil
}

// Remove идемпотентен: отсутствие файла не ошибка.
func (s *Service) Remove(ctx context.Context) error {
	deleted, err := s.repo.Delete(ctx)
	if err != nil {
		return fmt.Errorf("remove file: %w", err)
	}
	s.log.Info("file removed", slog.Bool("existed", deleted))
	return nil
}
