package factory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceMutations(t *testing.T) {
	f := newTestFactory(t)
	c, _ := f.GetTab(DefaultCharacterTabID)
	inst := f.CreateTabInstance(c, "p1")

	touched, err := f.TouchInstance(inst.ID)
	require.NoError(t, err)
	assert.True(t, touched.LastAccessed.After(inst.LastAccessed))
	assert.Equal(t, inst.CacheKey, touched.CacheKey)

	counted, err := f.RecordEntityCount(inst.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, counted.EntityCount)
	require.NotNil(t, counted.LastEntityUpdate)

	inactive, err := f.SetInstanceActive(inst.ID, false)
	require.NoError(t, err)
	assert.False(t, inactive.IsActive)
	assert.Equal(t, 12, inactive.EntityCount)

	got, ok := f.GetTabInstance(inst.ID)
	require.True(t, ok)
	assert.False(t, got.IsActive)
	assert.Equal(t, 12, got.EntityCount)
}

func TestInstanceMutations_NotFound(t *testing.T) {
	f := newTestFactory(t)

	_, err := f.TouchInstance("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = f.RecordEntityCount("missing", 1)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = f.SetInstanceActive("missing", true)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = f.RefreshInstance("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 0, f.Count("instances"))
}

func TestRefreshInstance_UnregisteredConfig(t *testing.T) {
	f := newTestFactory(t)
	c := f.CreateTab(CreateOptions{Name: "Temp", DisplayName: "Temp"})
	c.ID = "detached"
	inst := f.CreateTabInstance(c, "p1")
	assert.Equal(t, "detached-p1", inst.ID)

	_, err := f.RefreshInstance(inst.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "detached")
}

func TestInstanceListings(t *testing.T) {
	f := newTestFactory(t)
	chars, _ := f.GetTab(DefaultCharacterTabID)
	villains := f.CreateTab(CreateOptions{Name: "Villains", DisplayName: "Villains"})

	f.CreateTabInstance(chars, "p1")
	f.CreateTabInstance(villains, "p1")
	f.CreateTabInstance(chars, "p2")

	var ids []string
	for _, inst := range f.InstancesForProject("p1") {
		ids = append(ids, inst.ID)
	}
	assert.Equal(t, []string{"characters-p1", "villains-p1"}, ids)

	ids = nil
	for _, inst := range f.InstancesForTab(chars.ID) {
		ids = append(ids, inst.ID)
	}
	assert.Equal(t, []string{"characters-p1", "characters-p2"}, ids)

	assert.NotNil(t, f.InstancesForProject("nobody"))
	assert.Empty(t, f.InstancesForProject("nobody"))
}

func TestInstance_ConfigIsACopy(t *testing.T) {
	f := newTestFactory(t)
	c, _ := f.GetTab(DefaultCharacterTabID)
	inst := f.CreateTabInstance(c, "p1")

	c.DataConfig.Fields[0].Label = "Changed after binding"
	got, _ := f.GetTabInstance(inst.ID)
	assert.NotEqual(t, "Changed after binding", got.Config.DataConfig.Fields[0].Label)

	got.PreloadData = false
	again, _ := f.GetTabInstance(inst.ID)
	assert.True(t, again.PreloadData)
}
