package activity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(entityType, entityID, category, weight, summary string, minutesAgo int) Entry {
	return Entry{
		EventID:           "test-" + summary,
		EventType:         "test_event",
		OccurredAt:        time.Now().Add(-time.Duration(minutesAgo) * time.Minute),
		IndexedEntityType: entityType,
		IndexedEntityID:   entityID,
		EntityRole:        "subject",
		SourceRefs:        []SourceRef{{EntityType: entityType, EntityID: entityID, Role: "subject"}},
		Summary:           summary,
		Category:          category,
		Weight:            weight,
	}
}

// stores runs fn against every Store implementation.
func stores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "activity.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func TestStore_WriteAndQuery(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.WriteEntries(ctx, []Entry{
			testEntry("tab", "villains", "tab", "major", "Tab villains created", 10),
			testEntry("tab", "villains", "instance", "minor", "Instance bound", 5),
			testEntry("tab", "heroes", "tab", "major", "Tab heroes created", 10),
		}))

		results, _, total, err := s.QueryByEntity(ctx, "tab", "villains", DefaultQueryOptions())
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, results, 2)
		assert.Equal(t, "Instance bound", results[0].Summary, "newest first")
		assert.Equal(t, []SourceRef{{EntityType: "tab", EntityID: "villains", Role: "subject"}}, results[1].SourceRefs)
	})
}

func TestStore_QueryByEntity_Filters(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.WriteEntries(ctx, []Entry{
			testEntry("tab", "a", "tab", "info", "Touched", 5),
			testEntry("tab", "a", "tab", "major", "Cloned", 6),
			testEntry("tab", "a", "instance", "minor", "Old instance", 600),
		}))

		opts := DefaultQueryOptions()
		opts.Categories = []string{"instance"}
		results, _, total, err := s.QueryByEntity(ctx, "tab", "a", opts)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, results, 1)
		assert.Equal(t, "Old instance", results[0].Summary)

		opts = DefaultQueryOptions()
		opts.MinWeight = "minor"
		_, _, total, err = s.QueryByEntity(ctx, "tab", "a", opts)
		require.NoError(t, err)
		assert.Equal(t, 2, total)

		since := time.Now().Add(-time.Hour)
		opts = DefaultQueryOptions()
		opts.Since = &since
		_, _, total, err = s.QueryByEntity(ctx, "tab", "a", opts)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})
}

func TestStore_QueryByEntity_Pagination(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.WriteEntries(ctx, []Entry{
			testEntry("tab", "a", "tab", "info", "first", 3),
			testEntry("tab", "a", "tab", "info", "second", 2),
			testEntry("tab", "a", "tab", "info", "third", 1),
		}))

		opts := DefaultQueryOptions()
		opts.Limit = 2
		page, cursor, total, err := s.QueryByEntity(ctx, "tab", "a", opts)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 2)
		require.NotEmpty(t, cursor)
		assert.Equal(t, "third", page[0].Summary)

		opts.Cursor = cursor
		page, cursor, total, err = s.QueryByEntity(ctx, "tab", "a", opts)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 1)
		assert.Empty(t, cursor)
		assert.Equal(t, "first", page[0].Summary)
	})
}

func TestStore_Search(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.WriteEntries(ctx, []Entry{
			testEntry("tab", "villains", "tab", "major", "Cloned Villains from characters", 5),
			testEntry("template", "villains", "template", "minor", "Template villains registered", 10),
			testEntry("tab", "heroes", "tab", "major", "Tab heroes created", 3),
		}))

		results, total, err := s.Search(ctx, "VILLAINS", DefaultSearchOptions())
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, results, 2)

		opts := DefaultSearchOptions()
		opts.EntityType = "template"
		results, total, err = s.Search(ctx, "villains", opts)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, results, 1)
		assert.Equal(t, "template", results[0].IndexedEntityType)

		results, total, err = s.Search(ctx, "zzzznotfound", DefaultSearchOptions())
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, results)
	})
}

func TestStore_EmptyStore(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		results, _, total, err := s.QueryByEntity(context.Background(), "tab", "nobody", DefaultQueryOptions())
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, results)
	})
}

func TestStore_DuplicateWriteIgnored(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		e := testEntry("tab", "a", "tab", "info", "once", 1)
		require.NoError(t, s.WriteEntries(ctx, []Entry{e}))
		require.NoError(t, s.WriteEntries(ctx, []Entry{e}))

		_, _, total, err := s.QueryByEntity(ctx, "tab", "a", DefaultQueryOptions())
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})
}

func TestIsAtLeastWeight(t *testing.T) {
	assert.True(t, IsAtLeastWeight("critical", "major"))
	assert.True(t, IsAtLeastWeight("major", "major"))
	assert.False(t, IsAtLeastWeight("info", "minor"))
	assert.False(t, IsAtLeastWeight("bogus", "info"))
}
