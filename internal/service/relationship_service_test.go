package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"momento/internal/api"
	"momento/internal/repository"
)

func openCache(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := repository.NewDB(path, repository.WithSilentLog())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestPeopleOrdersPinnedFirst(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.names[viewer.ID] = "Anna K."
	backend.rels[viewer.ID] = []api.Relationship{
		{ID: "r1", Name: "Mom"},
		{ID: "r2", Name: "Boris"},
		{ID: "r3", Name: "Clara"},
	}
	svc := NewRelationshipService(repository.NewPinRepository(openCache(t, filepath.Join(t.TempDir(), "c.db"))))

	require.NoError(t, svc.Pin(ctx, viewer, "r3"))
	require.NoError(t, svc.Pin(ctx, viewer, "gone"))
	require.NoError(t, svc.Pin(ctx, viewer, "r2"))

	people, err := svc.People(ctx, backend, viewer)
	require.NoError(t, err)
	assert.Equal(t, "Anna K.", people.DisplayName)
	require.Len(t, people.Items, 3)
	assert.Equal(t, "r3", people.Items[0].ID)
	assert.True(t, people.Items[0].Pinned)
	assert.Equal(t, "r2", people.Items[1].ID)
	assert.Equal(t, "r1", people.Items[2].ID)
	assert.False(t, people.Items[2].Pinned)
}

func TestPinsSurviveReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "c.db")

	backend := newFakeBackend()
	backend.rels[viewer.ID] = []api.Relationship{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}}
	svc := NewRelationshipService(repository.NewPinRepository(openCache(t, path)))
	require.NoError(t, svc.Pin(ctx, viewer, "r1"))
	require.NoError(t, svc.Pin(ctx, viewer, "r2"))
	require.NoError(t, svc.Pin(ctx, viewer, "r3"))
	moved, err := svc.MovePin(ctx, backend, viewer, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"r3", "r1", "r2"}, moved)

	reopened := NewRelationshipService(repository.NewPinRepository(openCache(t, path)))
	first, err := reopened.Pins(ctx, viewer)
	require.NoError(t, err)
	second, err := reopened.Pins(ctx, viewer)
	require.NoError(t, err)
	assert.Equal(t, moved, first)
	assert.Equal(t, first, second)
}

func TestMovePin(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}

	out, err := movePin(ids, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d", "a"}, out)

	out, err = movePin(ids, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d", "b", "c"}, out)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)

	_, err = movePin(ids, 4, 0)
	assert.ErrorIs(t, err, ErrPinOutOfRange)
}

func TestMovePinIgnoresStalePins(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.rels[viewer.ID] = []api.Relationship{{ID: "r1", Name: "Mom"}, {ID: "r2", Name: "Boris"}}
	svc := NewRelationshipService(repository.NewPinRepository(openCache(t, filepath.Join(t.TempDir(), "c.db"))))

	require.NoError(t, svc.Pin(ctx, viewer, "gone"))
	require.NoError(t, svc.Pin(ctx, viewer, "r1"))
	require.NoError(t, svc.Pin(ctx, viewer, "r2"))

	moved, err := svc.MovePin(ctx, backend, viewer, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r1"}, moved)

	people, err := svc.People(ctx, backend, viewer)
	require.NoError(t, err)
	require.Len(t, people.Items, 2)
	assert.Equal(t, "r2", people.Items[0].ID)
	assert.Equal(t, "r1", people.Items[1].ID)

	_, err = svc.MovePin(ctx, backend, viewer, 2, 0)
	assert.ErrorIs(t, err, ErrPinOutOfRange)
}

func TestFindByIDOrName(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.rels[viewer.ID] = []api.Relationship{{ID: "r1", Name: "Mom"}}
	svc := NewRelationshipService(nil)

	rel, err := svc.Find(ctx, backend, viewer, "mom")
	require.NoError(t, err)
	assert.Equal(t, "r1", rel.ID)

	rel, err = svc.Find(ctx, backend, viewer, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Mom", rel.Name)

	_, err = svc.Find(ctx, backend, viewer, "nobody")
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestCreateRelationshipDefaultsType(t *testing.T) {
	backend := newFakeBackend()
	id, err := NewRelationshipService(nil).Create(context.Background(), backend, viewer, " Boris ", "")
	require.NoError(t, err)
	assert.Equal(t, []api.Relationship{{ID: id, Name: "Boris", RelationshipType: "friend"}}, backend.rels[viewer.ID])
}
