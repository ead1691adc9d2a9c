// Package testutil holds database fixtures shared by the package tests:
// sqlmock-backed GORM handles for SQL-shape assertions, migrated SQLite
// databases for behavioral tests, and write-failure injection.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Z3RO333/formularios/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a new mock database speaking the PostgreSQL dialect.
// The caller is responsible for calling Close() when done.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{
		DB:    gormDB,
		Mock:  mock,
		SqlDB: mockDB,
	}
}

// Close closes the mock database connection.
func (m *MockDB) Close() error {
	return m.SqlDB.Close()
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	err := m.Mock.ExpectationsWereMet()
	require.NoError(t, err, "Unmet database expectations")
}

// NewSQLiteDB opens a file-backed SQLite database in a temp dir with the full
// schema migrated. It is configured like the sqlite driver of the server: a
// single connection, foreign keys on, translated errors.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "forms.db")
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "Failed to open SQLite database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate schema")

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// FailOnCreate makes every INSERT into table fail with err. It returns a
// function removing the hook.
func FailOnCreate(t testing.TB, db *gorm.DB, table string, err error) func() {
	t.Helper()
	name := "testutil:fail_create_" + table
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(err)
		}
	}))
	return func() {
		_ = db.Callback().Create().Remove(name)
	}
}

// FailOnUpdate makes every UPDATE of table fail with err. It returns a
// function removing the hook.
func FailOnUpdate(t testing.TB, db *gorm.DB, table string, err error) func() {
	t.Helper()
	name := "testutil:fail_update_" + table
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(err)
		}
	}))
	return func() {
		_ = db.Callback().Update().Remove(name)
	}
}

// CancelOnCreate cancels the caller's context just before the next insert
// into table, so the statement runs on a cancelled transaction. The returned
// func removes the callback.
func CancelOnCreate(t testing.TB, db *gorm.DB, table string, cancel context.CancelFunc) func() {
	t.Helper()
	name := "testutil:cancel_create_" + table
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			cancel()
		}
	}))
	return func() {
		_ = db.Callback().Create().Remove(name)
	}
}

// CancelOnUpdate is CancelOnCreate for updates
func CancelOnUpdate(t testing.TB, db *gorm.DB, table string, cancel context.CancelFunc) func() {
	t.Helper()
	name := "testutil:cancel_update_" + table
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			cancel()
		}
	}))
	return func() {
		_ = db.Callback().Update().Remove(name)
	}
}

// ActorID returns a stable user id derived from seed, so fixtures and
// assertions can refer to the same actor without passing ids around.
func ActorID(seed string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("formularios:actor:"+seed))
}

// Context returns a context cancelled when the test ends or after timeout.
func Context(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
