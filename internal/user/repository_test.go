package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"emosante/internal/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a migrated in-memory SQLite database private to t.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	database, err := db.OpenSQLite(context.Background(), fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func createUser(t *testing.T, database *sqlx.DB, repo UserRepositoryInterface, username string) int {
	t.Helper()
	ctx := context.Background()

	tx, err := database.BeginTxx(ctx, nil)
	require.NoError(t, err)
	id, err := repo.Create(ctx, tx, &User{Username: username, Password: "hash", CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return id
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	database := newTestDB(t)
	repo := NewUserRepository()
	ctx := context.Background()

	id := createUser(t, database, repo, "alice")
	assert.Positive(t, id)

	byName, err := repo.GetByUsername(ctx, database, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
	assert.Equal(t, "hash", byName.Password)
	assert.False(t, byName.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, database, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	database := newTestDB(t)
	repo := NewUserRepository()
	ctx := context.Background()

	createUser(t, database, repo, "bob")

	tx, err := database.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = repo.Create(ctx, tx, &User{Username: "bob", Password: "other", CreatedAt: time.Now().UTC()})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserRepository_NotFound(t *testing.T) {
	database := newTestDB(t)
	repo := NewUserRepository()
	ctx := context.Background()

	u, err := repo.GetByUsername(ctx, database, "ghost")
	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrUserNotFound)

	u, err = repo.GetByID(ctx, database, 404)
	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_DBError(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mockDB.Close()
	database := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectQuery(`(?s)SELECT\s+id,\s*username,\s*password,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\?`).
		WithArgs("alice").
		WillReturnError(errors.New("db down"))

	u, err := NewUserRepository().GetByUsername(context.Background(), database, "alice")

	assert.Nil(t, u)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
	assert.Contains(t, err.Error(), "db down")
	assert.NoError(t, mock.ExpectationsWereMet())
}
