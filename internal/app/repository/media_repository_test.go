package repository

import (
	"testing"
	"time"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testShop  = "demo.myshopify.com"
	otherShop = "other.myshopify.com"
)

func setupMediaTest(t *testing.T) (*gorm.DB, MediaRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return testDB, NewMediaRepository(testDB)
}

func createMedia(t *testing.T, repo MediaRepository, shop, url string, status model.MediaStatus) *model.Media {
	m := &model.Media{
		ShopDomain: shop,
		URL:        url,
		Caption:    "caption for " + url,
		Status:     status,
		SourceType: model.SourceURL,
	}
	require.NoError(t, repo.Create(m))
	return m
}

func createTag(t *testing.T, testDB *gorm.DB, shop, name, slug string) *model.Tag {
	tag := &model.Tag{ShopDomain: shop, Name: name, Slug: slug}
	require.NoError(t, testDB.Create(tag).Error)
	return tag
}

func TestMediaRepository_Create(t *testing.T) {
	_, repo := setupMediaTest(t)

	m := &model.Media{
		ShopDomain: testShop,
		URL:        "https://cdn.example.com/a.jpg",
		SourceType: model.SourceUpload,
	}
	require.NoError(t, repo.Create(m))
	assert.NotZero(t, m.ID)

	found, err := repo.FindByID(testShop, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MediaStatusDraft, found.Status, "status defaults to DRAFT")
}

func TestMediaRepository_BulkCreate(t *testing.T) {
	_, repo := setupMediaTest(t)

	rows := []model.Media{
		{ShopDomain: testShop, URL: "https://cdn.example.com/1.jpg", SourceType: model.SourceURL},
		{ShopDomain: testShop, URL: "https://cdn.example.com/2.jpg", SourceType: model.SourceURL, Status: model.MediaStatusApproved},
		{ShopDomain: testShop, URL: "https://cdn.example.com/3.jpg", SourceType: model.SourceURL},
	}
	require.NoError(t, repo.BulkCreate(rows, 2))
	require.NoError(t, repo.BulkCreate(nil, 2))

	count, err := repo.Count(testShop)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	approved, err := repo.CountByStatus(testShop, model.MediaStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, int64(1), approved)
}

func TestMediaRepository_FindWithFilter(t *testing.T) {
	testDB, repo := setupMediaTest(t)

	beach := createMedia(t, repo, testShop, "https://cdn.example.com/Beach.jpg", model.MediaStatusApproved)
	city := createMedia(t, repo, testShop, "https://cdn.example.com/city.mp4", model.MediaStatusDraft)
	createMedia(t, repo, otherShop, "https://cdn.example.com/beach-other.jpg", model.MediaStatusApproved)

	summer := createTag(t, testDB, testShop, "Summer Sale", "summer-sale")
	require.NoError(t, repo.AddTag(beach.ID, summer.ID))

	product := "gid://shopify/Product/1"
	_, err := repo.SetProduct(testShop, city.ID, &product)
	require.NoError(t, err)

	approved := model.MediaStatusApproved

	tests := []struct {
		name    string
		filter  MediaFilter
		wantIDs []uint
	}{
		{
			name:    "Shop scoped, newest first",
			filter:  MediaFilter{ShopDomain: testShop},
			wantIDs: []uint{city.ID, beach.ID},
		},
		{
			name:    "Search is case-insensitive on url",
			filter:  MediaFilter{ShopDomain: testShop, Search: "BEACH"},
			wantIDs: []uint{beach.ID},
		},
		{
			name:    "Search on caption",
			filter:  MediaFilter{ShopDomain: testShop, Search: "CAPTION FOR https://cdn.example.com/city"},
			wantIDs: []uint{city.ID},
		},
		{
			name:    "Tag by slug",
			filter:  MediaFilter{ShopDomain: testShop, Tag: "summer-sale"},
			wantIDs: []uint{beach.ID},
		},
		{
			name:    "Tag by name",
			filter:  MediaFilter{ShopDomain: testShop, Tag: "Summer Sale"},
			wantIDs: []uint{beach.ID},
		},
		{
			name:    "Any of tag slugs",
			filter:  MediaFilter{ShopDomain: testShop, TagSlugs: []string{"winter", "summer-sale"}},
			wantIDs: []uint{beach.ID},
		},
		{
			name:    "Status",
			filter:  MediaFilter{ShopDomain: testShop, Status: &approved},
			wantIDs: []uint{beach.ID},
		},
		{
			name:    "Product",
			filter:  MediaFilter{ShopDomain: testShop, ProductID: product},
			wantIDs: []uint{city.ID},
		},
		{
			name:    "Limit",
			filter:  MediaFilter{ShopDomain: testShop, Limit: 1},
			wantIDs: []uint{city.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.FindWithFilter(tt.filter)
			require.NoError(t, err)

			ids := make([]uint, len(found))
			for i, m := range found {
				ids[i] = m.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	found, err := repo.FindWithFilter(MediaFilter{ShopDomain: testShop, Tag: "summer-sale"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"Summer Sale"}, found[0].TagNames(), "tags are preloaded")
}

func TestMediaRepository_FindByID_OtherShop(t *testing.T) {
	_, repo := setupMediaTest(t)

	m := createMedia(t, repo, otherShop, "https://cdn.example.com/a.jpg", model.MediaStatusDraft)

	_, err := repo.FindByID(testShop, m.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMediaRepository_FindOwner(t *testing.T) {
	_, repo := setupMediaTest(t)

	m := createMedia(t, repo, otherShop, "https://cdn.example.com/a.jpg", model.MediaStatusApproved)

	owner, err := repo.FindOwner(m.ID)
	require.NoError(t, err)
	assert.Equal(t, otherShop, owner)

	_, err = repo.FindOwner(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMediaRepository_BulkUpdateStatus(t *testing.T) {
	_, repo := setupMediaTest(t)

	a := createMedia(t, repo, testShop, "https://cdn.example.com/a.jpg", model.MediaStatusDraft)
	b := createMedia(t, repo, testShop, "https://cdn.example.com/b.jpg", model.MediaStatusDraft)
	foreign := createMedia(t, repo, otherShop, "https://cdn.example.com/c.jpg", model.MediaStatusDraft)

	count, err := repo.BulkUpdateStatus(testShop, []uint{a.ID, b.ID, foreign.ID}, model.MediaStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	found, err := repo.FindByID(otherShop, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MediaStatusDraft, found.Status)

	approved, err := repo.CountByStatus(testShop, model.MediaStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, int64(2), approved)
}

func TestMediaRepository_Delete(t *testing.T) {
	testDB, repo := setupMediaTest(t)

	m := createMedia(t, repo, testShop, "https://cdn.example.com/clip.mp4", model.MediaStatusApproved)
	tag := createTag(t, testDB, testShop, "Video", "video")
	require.NoError(t, repo.AddTag(m.ID, tag.ID))
	require.NoError(t, testDB.Create(&model.ProductHotspot{MediaID: m.ID, ProductID: "gid://shopify/Product/1", Timestamp: 1, Duration: 5, Position: model.PositionCenter}).Error)
	require.NoError(t, testDB.Create(&model.MediaView{MediaID: m.ID, ShopDomain: testShop}).Error)
	require.NoError(t, testDB.Create(&model.MediaClick{MediaID: m.ID, ShopDomain: testShop, ClickType: model.ClickMedia}).Error)

	assert.ErrorIs(t, repo.Delete(otherShop, m.ID), gorm.ErrRecordNotFound)

	require.NoError(t, repo.Delete(testShop, m.ID))

	for _, table := range []interface{}{&model.Media{}, &model.MediaTag{}, &model.ProductHotspot{}, &model.MediaView{}, &model.MediaClick{}} {
		var count int64
		testDB.Model(table).Count(&count)
		assert.Equal(t, int64(0), count)
	}

	var tagCount int64
	testDB.Model(&model.Tag{}).Count(&tagCount)
	assert.Equal(t, int64(1), tagCount, "tags survive media deletion")

	assert.ErrorIs(t, repo.Delete(testShop, m.ID), gorm.ErrRecordNotFound)
}

func TestMediaRepository_Tags(t *testing.T) {
	testDB, repo := setupMediaTest(t)

	m := createMedia(t, repo, testShop, "https://cdn.example.com/a.jpg", model.MediaStatusDraft)
	tag := createTag(t, testDB, testShop, "Summer", "summer")

	require.NoError(t, repo.AddTag(m.ID, tag.ID))
	require.NoError(t, repo.AddTag(m.ID, tag.ID), "linking twice is a no-op")

	var count int64
	testDB.Model(&model.MediaTag{}).Count(&count)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.RemoveTag(m.ID, tag.ID))
	testDB.Model(&model.MediaTag{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestMediaRepository_ExistingURLs(t *testing.T) {
	_, repo := setupMediaTest(t)

	createMedia(t, repo, testShop, "https://ig.example.com/1.jpg", model.MediaStatusDraft)
	createMedia(t, repo, otherShop, "https://ig.example.com/2.jpg", model.MediaStatusDraft)

	existing, err := repo.ExistingURLs(testShop, []string{"https://ig.example.com/1.jpg", "https://ig.example.com/2.jpg"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"https://ig.example.com/1.jpg": true}, existing)

	existing, err = repo.ExistingURLs(testShop, nil)
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestMediaRepository_CountImportsSince(t *testing.T) {
	testDB, repo := setupMediaTest(t)

	now := time.Now().UTC()
	rows := []model.Media{
		{ShopDomain: testShop, URL: "https://ig/1", SourceType: model.SourceInstagram, CreatedAt: now.AddDate(0, 0, -1)},
		{ShopDomain: testShop, URL: "https://tt/1", SourceType: model.SourceTikTok, CreatedAt: now.AddDate(0, 0, -10)},
		{ShopDomain: testShop, URL: "https://ig/old", SourceType: model.SourceInstagram, CreatedAt: now.AddDate(0, 0, -45)},
		{ShopDomain: testShop, URL: "https://up/1", SourceType: model.SourceUpload, CreatedAt: now},
		{ShopDomain: otherShop, URL: "https://ig/2", SourceType: model.SourceInstagram, CreatedAt: now},
	}
	require.NoError(t, testDB.Create(&rows).Error)

	count, err := repo.CountImportsSince(testShop, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	total, err := repo.Count(testShop)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}
