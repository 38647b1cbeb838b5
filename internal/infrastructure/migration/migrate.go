package migration

import (
	"errors"
	"fmt"
	"io/fs"

	"excelkeeper/internal/app/server/config"

	"github.com/golang-migrate/migrate/v4"
	// Blank import required for PostgreSQL driver registration for migrations
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"golang.org/x/exp/slog"
)

// Migrator - интерфейс для самой библиотеки migrate.Migrate
type Migrator interface {
	Up() error
	Close() (error, error)
}

// Source описывает, откуда брать миграции: каталог на диске (URL) или встроенную ФС.
type Source struct {
	URL string
	FS  fs.FS
}

// MigrationEngine - фабрика мигратора
type MigrationEngine func(src Source, databaseURL string) (Migrator, error)

type Migration struct {
	cfg      *config.Config
	embedded fs.FS
	engine   MigrationEngine
	log      *slog.Logger
}

// NewMigration embedded используется, когда MIGRATIONS_PATH не задан.
func NewMigration(conf *config.Config, embedded fs.FS, engine MigrationEngine, log *slog.Logger) *Migration {
	return &Migration{
		cfg:      conf,
		embedded: embedded,
		engine:   engine,
		log:      log.With(slog.String("component", "migration")),
	}
}

// DefaultEngine - реальная реализация для продакшена
func DefaultEngine(src Source, databaseURL string) (Migrator, error) {
	if src.FS == nil {
		return migrate.New(src.URL, databaseURL)
	}

	driver, err := iofs.New(src.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", driver, databaseURL)
}

func (mg *Migration) source() Source {
	if mg.cfg.DB.Migrations != "" {
		return Source{URL: "file://" + mg.cfg.DB.Migrations}
	}
	return Source{FS: mg.embedded}
}

func (mg *Migration) Up() (err error) {
	src := mg.source()
	m, err := mg.engine(src, mg.cfg.DB.DatabaseURI)
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration source error: %v", err, serr)
			} else {
				err = serr
			}
		}
		if dberr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration database error: %v", err, dberr)
			} else {
				err = dberr
			}
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Debug("schema is up to date")
			return nil
		}
		return fmt.Errorf("migration up: %w", err)
	}

	mg.log.Info("migrations applied", slog.Bool("embedded", src.FS != nil))
	return nil
}
