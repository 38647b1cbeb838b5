package credential

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// HashCost стоимость bcrypt для всех хешей паролей.
const HashCost = 10

type Servicer interface {
	Login(ctx context.Context, password string) (Role, error)
	ChangeGuestPassword(ctx context.Context, newPassword string) error
	Seed(ctx context.Context) error
}

type Service struct {
	repo      Repository
	validator Validator
	log       *slog.Logger
}

func NewService(repo Repository, validator Validator, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		log:       log.With(slog.String("component", "credential_service")),
	}
}

// Login сравнивает пароль со всеми хешами, первая совпавшая строка определяет роль.
func (s *Service) Login(ctx context.Context, password string) (Role, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}

	creds, err := s.repo.List(ctx)
	if err != nil {
		return "", fmt.Errorf("load credentials: %w", err)
	}

	pw := []byte(password)
	var matched Role
	// Сравниваем все строки, даже после совпадения: время ответа не зависит от роли.
	for i := range creds {
		ok := bcrypt.CompareHashAndPassword([]byte(creds[i].PasswordHash), pw) == nil
		if ok && matched == "" {
			matched = creds[i].Role
		}
	}

	clear(pw)
	for i := range creds {
		creds[i] = Credential{}
	}

	if matched == "" || !matched.Valid() {
		s.log.Debug("login rejected", slog.Int("rows", len(creds)))
		return "", ErrInvalidPassword
	}

	s.log.Debug("login accepted", slog.String("role", matched.String()))
	return matched, nil
}

// ChangeGuestPassword всегда меняет только пароль гостя.
func (s *Service) ChangeGuestPassword(ctx context.Context, newPassword string) error {
	if err := s.validator.ValidateNewPassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), HashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdateHash(ctx, RoleGuest, string(hash)); err != nil {
		return fmt.Errorf("update guest password: %w", err)
	}

	s.log.Info("guest password changed")
	return nil
}

// Seed создает строки для отсутствующих ролей с паролями по умолчанию.
func (s *Service) Seed(ctx context.Context) error {
	for _, role := range []Role{RoleAdmin, RoleGuest} {
		hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPasswords[role]), HashCost)
		if err != nil {
			return fmt.Errorf("hash default password for %s: %w", role, err)
		}

		created, err := s.repo.InsertIfMissing(ctx, role, string(hash))
		if err != nil {
			return fmt.Errorf("seed %s: %w", role, err)
		}
		if created {
			s.log.Warn("default credential created, change it", slog.String("role", role.String()))
		}
	}
	return nil
}
