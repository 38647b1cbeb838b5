package credential

import "context"

type Repository interface {
	List(ctx context.Context) ([]Credential, error)
	UpdateHash(ctx context.Context, role Role, passwordHash string) error
	// InsertIfMissing возвращает true, если строка была создана.
	InsertIfMissing(ctx context.Context, role Role, passwordHash string) (bool, error)
}
