package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"momento/internal/api"
	"momento/internal/model"
)

func newTestDB(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	db, err := NewDB(path, WithSilentLog())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db, path
}

func TestAccountSessionStore(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	user, err := repo.GetUser(ctx, "tg:1")
	require.NoError(t, err)
	assert.Nil(t, user)

	require.NoError(t, repo.SetUser(ctx, "tg:1", 1, api.User{ID: "u-1", Username: "olga"}))
	require.NoError(t, repo.SetSession(ctx, "tg:1", "tok"))
	require.NoError(t, repo.SetUser(ctx, "tg:1", 1, api.User{ID: "u-2", Username: "anna"}))

	user, err = repo.GetUser(ctx, "tg:1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, api.User{ID: "u-2", Username: "anna"}, *user)

	session, err := repo.GetSession(ctx, "tg:1")
	require.NoError(t, err)
	assert.Equal(t, "tok", session)

	accounts, err := repo.ListLoggedIn(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.EqualValues(t, 1, accounts[0].ChatID)

	require.NoError(t, repo.ClearUser(ctx, "tg:1"))
	user, err = repo.GetUser(ctx, "tg:1")
	require.NoError(t, err)
	assert.Nil(t, user)
	session, err = repo.GetSession(ctx, "tg:1")
	require.NoError(t, err)
	assert.Empty(t, session)

	accounts, err = repo.ListLoggedIn(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestCorruptUserReadsAsAbsent(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Account{Principal: "cli:default", UserData: "{not json"}).Error)

	user, err := repo.GetUser(ctx, "cli:default")
	require.NoError(t, err)
	assert.Nil(t, user)

	require.NoError(t, db.Model(&model.Account{}).Where("principal = ?", "cli:default").
		Update("user_data", `{"username":"no-id"}`).Error)
	user, err = repo.GetUser(ctx, "cli:default")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestPinsOrderSurvivesReopen(t *testing.T) {
	db, path := newTestDB(t)
	repo := NewPinRepository(db)
	ctx := context.Background()

	for _, id := range []string{"r-1", "r-2", "r-3", "r-2"} {
		require.NoError(t, repo.Pin(ctx, "u-1", id))
	}
	require.NoError(t, repo.Pin(ctx, "u-2", "r-9"))
	require.NoError(t, repo.Replace(ctx, "u-1", []string{"r-3", "r-1", "r-2"}))

	before, err := repo.List(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r-3", "r-1", "r-2"}, before)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	reopened, err := NewDB(path, WithSilentLog())
	require.NoError(t, err)
	after, err := NewPinRepository(reopened).List(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	require.NoError(t, NewPinRepository(reopened).Unpin(ctx, "u-1", "r-1"))
	after, err = NewPinRepository(reopened).List(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r-3", "r-2"}, after)

	other, err := NewPinRepository(reopened).List(ctx, "u-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"r-9"}, other)
}

func TestPriorityUpsertAndScope(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewPriorityRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "o1", "u-owner", "t-1", model.PriorityLow))
	require.NoError(t, repo.Set(ctx, "o1", "u-owner", "t-1", model.PriorityHigh))
	require.NoError(t, repo.Set(ctx, "o1", "u-owner", "t-2", model.PriorityMedium))
	require.NoError(t, repo.Set(ctx, "o2", "u-owner", "t-1", model.PriorityLow))

	got, err := repo.Map(ctx, "o1", "u-owner")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"t-1": model.PriorityHigh, "t-2": model.PriorityMedium}, got)

	require.NoError(t, repo.Delete(ctx, "o1", "u-owner", "t-1"))
	got, err = repo.Map(ctx, "o1", "u-owner")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"t-2": model.PriorityMedium}, got)
}

func TestNoteSelection(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewNoteSelectionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Select(ctx, "o1", "u-owner", "n-1"))
	require.NoError(t, repo.Select(ctx, "o1", "u-owner", "n-1"))
	require.NoError(t, repo.Select(ctx, "o1", "u-owner", "n-2"))

	ids, err := repo.List(ctx, "o1", "u-owner")
	require.NoError(t, err)
	assert.Equal(t, []string{"n-1", "n-2"}, ids)

	require.NoError(t, repo.Unselect(ctx, "o1", "u-owner", "n-1"))
	ids, err = repo.List(ctx, "o1", "u-owner")
	require.NoError(t, err)
	assert.Equal(t, []string{"n-2"}, ids)
}

func TestWithBusyTimeout(t *testing.T) {
	assert.Equal(t, "a.db?_busy_timeout=5000", withBusyTimeout("a.db"))
	assert.Equal(t, "file:a.db?cache=shared&_busy_timeout=5000", withBusyTimeout("file:a.db?cache=shared"))
	assert.Equal(t, ":memory:", withBusyTimeout(":memory:"))
}
