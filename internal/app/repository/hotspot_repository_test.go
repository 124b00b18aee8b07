package repository

import (
	"testing"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestHotspotRepository(t *testing.T) {
	testDB, mediaRepo := setupMediaTest(t)
	repo := NewHotspotRepository(testDB)

	m := createMedia(t, mediaRepo, testShop, "https://cdn.example.com/clip.mp4", model.MediaStatusApproved)

	late := &model.ProductHotspot{MediaID: m.ID, ProductID: "gid://shopify/Product/2", Timestamp: 12, Duration: 5, Position: model.PositionTopLeft}
	early := &model.ProductHotspot{MediaID: m.ID, ProductID: "gid://shopify/Product/1", Timestamp: 2.5, Duration: 3, Position: model.PositionCenter}
	require.NoError(t, repo.Create(late))
	require.NoError(t, repo.Create(early))

	list, err := repo.FindByMedia(m.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID, "ordered by timestamp")

	found, err := repo.FindByID(testShop, late.ID)
	require.NoError(t, err)
	assert.Equal(t, late.ID, found.ID)
	assert.Equal(t, "gid://shopify/Product/2", found.ProductID)

	_, err = repo.FindByID(otherShop, late.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found.Timestamp = 1
	found.Position = model.PositionBottomLeft
	require.NoError(t, repo.Update(found))

	list, err = repo.FindByMedia(m.ID)
	require.NoError(t, err)
	assert.Equal(t, late.ID, list[0].ID)
	assert.Equal(t, model.PositionBottomLeft, list[0].Position)

	require.NoError(t, repo.Delete(late.ID))
	list, err = repo.FindByMedia(m.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestHotspotRepository_Defaults(t *testing.T) {
	testDB, mediaRepo := setupMediaTest(t)
	repo := NewHotspotRepository(testDB)

	m := createMedia(t, mediaRepo, testShop, "https://cdn.example.com/clip.mp4", model.MediaStatusApproved)

	h := &model.ProductHotspot{MediaID: m.ID, ProductID: "gid://shopify/Product/1", Timestamp: 0}
	require.NoError(t, repo.Create(h))

	list, err := repo.FindByMedia(m.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 5.0, list[0].Duration)
	assert.Equal(t, model.PositionBottomRight, list[0].Position)
}
