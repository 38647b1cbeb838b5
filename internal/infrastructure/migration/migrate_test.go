package migration

import (
	"errors"
	"testing"
	"testing/fstest"

	"excelkeeper/internal/app/server/config"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"
)

// MockMigrator - мок для интерфейса Migrator
type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Up() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMigrator) Close() (error, error) {
	args := m.Called()
	return args.Error(0), args.Error(1)
}

func testConfig(path string) *config.Config {
	return &config.Config{
		DB: config.DB{DatabaseURI: "postgres://localhost/test", Migrations: path},
	}
}

func TestMigration_Up_Success(t *testing.T) {
	mockM := new(MockMigrator)

	// Настраиваем поведение
	mockM.On("Up").Return(nil)
	mockM.On("Close").Return(nil, nil)

	// Инжектим мок через фабрику
	engine := func(src Source, db string) (Migrator, error) {
		assert.Equal(t, "file:///srv/migrations", src.URL)
		assert.Nil(t, src.FS)
		assert.Equal(t, "postgres://localhost/test", db)
		return mockM, nil
	}

	mg := NewMigration(testConfig("/srv/migrations"), nil, engine, slog.Default())
	err := mg.Up()

	assert.NoError(t, err)
	mockM.AssertExpectations(t)
}

func TestMigration_Up_Embedded(t *testing.T) {
	mockM := new(MockMigrator)
	mockM.On("Up").Return(nil)
	mockM.On("Close").Return(nil, nil)

	embedded := fstest.MapFS{
		"000001_init.up.sql": &fstest.MapFile{Data: []byte("SELECT 1;")},
	}

	engine := func(src Source, db string) (Migrator, error) {
		assert.Empty(t, src.URL)
		assert.NotNil(t, src.FS)
		return mockM, nil
	}

	mg := NewMigration(testConfig(""), embedded, engine, slog.Default())
	assert.NoError(t, mg.Up())
	mockM.AssertExpectations(t)
}

func TestMigration_Up_NoChange(t *testing.T) {
	mockM := new(MockMigrator)

	// ErrNoChange не должна считаться ошибкой в методе Up()
	mockM.On("Up").Return(migrate.ErrNoChange)
	mockM.On("Close").Return(nil, nil)

	engine := func(src Source, db string) (Migrator, error) {
		return mockM, nil
	}

	mg := NewMigration(testConfig(""), nil, engine, slog.Default())
	err := mg.Up()

	assert.NoError(t, err)
}

func TestMigration_Up_Failure(t *testing.T) {
	mockM := new(MockMigrator)
	mockM.On("Up").Return(errors.New("dirty database"))
	mockM.On("Close").Return(nil, errors.New("close db"))

	engine := func(src Source, db string) (Migrator, error) {
		return mockM, nil
	}

	mg := NewMigration(testConfig(""), nil, engine, slog.Default())
	err := mg.Up()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dirty database")
	assert.Contains(t, err.Error(), "close db")
}

func TestMigration_Up_EngineError(t *testing.T) {
	// Ошибка на этапе создания мигратора (например, неверный драйвер)
	engine := func(src Source, db string) (Migrator, error) {
		return nil, errors.New("engine crash")
	}

	mg := NewMigration(testConfig(""), nil, engine, slog.Default())
	err := mg.Up()

	assert.Error(t, err)
	assert.Equal(t, "engine crash", err.Error())
}
