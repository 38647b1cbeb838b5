package excel

import "context"

type Repository interface {
	// Upsert перезаписывает имя, содержимое и дату одной командой.
	Upsert(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context) (File, error)
	Info(ctx context.Context) (Info, error)
	// Delete возвращает false, если удалять было нечего.
	Delete(ctx context.Context) (bool, error)
}
