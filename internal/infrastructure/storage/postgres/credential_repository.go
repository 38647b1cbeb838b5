package postgres

import (
	"context"
	"fmt"

	"excelkeeper/internal/domain/credential"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

type CredentialRepository struct {
	storage *Storage
	log     *slog.Logger
}

func NewCredentialRepository(storage *Storage, log *slog.Logger) *CredentialRepository {
	return &CredentialRepository{
		storage: storage,
		log:     log.With(slog.String("component", "credential_repository")),
	}
}

func (r *CredentialRepository) List(ctx context.Context) ([]credential.Credential, error) {
	var creds []credential.Credential
	err := r.storage.Query(ctx, "credential_list", func(ctx context.Context, conn *pgxpool.Conn) error {
		creds = creds[:0]
		rows, err := conn.Query(ctx, `SELECT id, role, password_hash FROM password_rol ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c credential.Credential
			if err := rows.Scan(&c.ID, &c.Role, &c.PasswordHash); err != nil {
				return err
			}
			creds = append(creds, c)
		}
		return rows.Err()
	})
	if err != nil {
		r.log.Error("failed to list credentials", slog.String("error", err.Error()))
		return nil, err
	}
	return creds, nil
}

func (r *CredentialRepository) UpdateHash(ctx context.Context, role credential.Role, passwordHash string) error {
	tag, err := r.storage.Exec(ctx, "credential_update",
		`UPDATE password_rol SET password_hash = $1 WHERE role = $2`,
		passwordHash, string(role))
	if err != nil {
		r.log.Error("failed to update password hash", slog.String("role", role.String()), slog.String("error", err.Error()))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", credential.ErrRoleNotFound, role)
	}
	return nil
}

func (r *CredentialRepository) InsertIfMissing(ctx context.Context, role credential.Role, passwordHash string) (bool, error) {
	tag, err := r.storage.Exec(ctx, "credential_seed",
		`INSERT INTO password_rol (role, password_hash) VALUES ($1, $2) ON CONFLICT (role) DO NOTHING`,
		string(role), passwordHash)
	if err != nil {
		r.log.Error("failed to seed credential", slog.String("role", role.String()), slog.String("error", err.Error()))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
