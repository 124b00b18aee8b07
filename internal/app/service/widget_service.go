package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/internal/billing"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"github.com/ikkim/ugcfy-backend/pkg/shopify"
	"github.com/ikkim/ugcfy-backend/pkg/util"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrWidgetNotFound      = errors.New("widget not found")
	ErrInvalidWidgetType   = errors.New("invalid widget type")
	ErrWidgetNameRequired  = errors.New("widget name is required")
	ErrMediaNotAvailable   = errors.New("media not available")
	ErrShoppableMediaEmpty = errors.New("shoppable widgets need a media id")
)

// ShoppableWidgetID is recorded on views of the shoppable video player
const ShoppableWidgetID = "shoppable-video"

const (
	setupTagLimit    = 100
	setupSampleLimit = 10

	defaultLayout   = "grid"
	defaultColumns  = 3
	maxColumns      = 6
	defaultInterval = 5000
	defaultDuration = 5000
)

// FeedQuery mirrors the query string built by the embed loader
type FeedQuery struct {
	Shop     string
	Type     model.WidgetType
	Tags     []string
	Product  string
	Limit    int
	Layout   string
	Columns  int
	Autoplay bool
	Interval int
	Duration int
}

type FeedItem struct {
	ID        uint      `json:"id"`
	URL       string    `json:"url"`
	Caption   string    `json:"caption"`
	ProductID *string   `json:"product_id"`
	Tags      []string  `json:"tags"`
	IsVideo   bool      `json:"is_video"`
	CreatedAt time.Time `json:"created_at"`
}

type FeedConfig struct {
	Shop     string           `json:"shop"`
	Type     model.WidgetType `json:"type"`
	Limit    int              `json:"limit"`
	Layout   string           `json:"layout,omitempty"`
	Columns  int              `json:"columns,omitempty"`
	Autoplay bool             `json:"autoplay,omitempty"`
	Interval int              `json:"interval,omitempty"`
	Duration int              `json:"duration,omitempty"`
}

type Feed struct {
	Items  []FeedItem `json:"items"`
	Config FeedConfig `json:"config"`
}

type ShoppableQuery struct {
	Shop      string
	MediaID   uint
	At        *float64 // playback time in seconds
	Referrer  string
	UserAgent string
}

type ShoppableVideo struct {
	Media          *model.Media               `json:"media"`
	IsVideo        bool                       `json:"is_video"`
	Hotspots       []model.ProductHotspot     `json:"hotspots"`
	ActiveHotspots []model.ProductHotspot     `json:"active_hotspots,omitempty"`
	Products       map[string]shopify.Product `json:"products"`
}

type WidgetInput struct {
	Name     string
	Type     model.WidgetType
	Settings model.WidgetSettings
}

// WidgetSetup is the data behind the widget builder page
type WidgetSetup struct {
	Shop        string        `json:"shop"`
	Tags        []model.Tag   `json:"tags"`
	SampleMedia []model.Media `json:"sample_media"`
}

type WidgetService interface {
	Feed(ctx context.Context, query FeedQuery) (*Feed, error)
	Shoppable(ctx context.Context, query ShoppableQuery) (*ShoppableVideo, error)
	List(shop string) ([]model.Widget, error)
	Create(shop string, input WidgetInput) (*model.Widget, error)
	Update(shop string, id uint, input WidgetInput) (*model.Widget, error)
	Delete(shop string, id uint) error
	Embed(shop string, id uint) (string, error)
	Setup(shop string) (*WidgetSetup, error)
}

type widgetService struct {
	widgetRepo    repository.WidgetRepository
	mediaRepo     repository.MediaRepository
	tagRepo       repository.TagRepository
	analyticsRepo repository.AnalyticsRepository
	billing       BillingService
	products      ProductService
	cache         FeedCache
	scriptURL     string
}

func NewWidgetService(
	widgetRepo repository.WidgetRepository,
	mediaRepo repository.MediaRepository,
	tagRepo repository.TagRepository,
	analyticsRepo repository.AnalyticsRepository,
	billingService BillingService,
	products ProductService,
	cache FeedCache,
	scriptURL string,
) WidgetService {
	if cache == nil {
		cache = noopCache{}
	}
	return &widgetService{
		widgetRepo:    widgetRepo,
		mediaRepo:     mediaRepo,
		tagRepo:       tagRepo,
		analyticsRepo: analyticsRepo,
		billing:       billingService,
		products:      products,
		cache:         cache,
		scriptURL:     scriptURL,
	}
}

// IsFeedType reports whether t is served as a media feed
func IsFeedType(t model.WidgetType) bool {
	return t == model.WidgetGallery || t == model.WidgetCarousel || t == model.WidgetStories
}

// clampLimit applies the per-type default and cap
func clampLimit(t model.WidgetType, limit int) int {
	if limit <= 0 {
		return t.DefaultLimit()
	}
	if limit > t.MaxLimit() {
		return t.MaxLimit()
	}
	return limit
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		slug := util.Slugify(t)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

func feedConfig(q FeedQuery) FeedConfig {
	cfg := FeedConfig{Shop: q.Shop, Type: q.Type, Limit: clampLimit(q.Type, q.Limit)}

	switch q.Type {
	case model.WidgetGallery:
		cfg.Layout = q.Layout
		if cfg.Layout == "" {
			cfg.Layout = defaultLayout
		}
		cfg.Columns = q.Columns
		if cfg.Columns <= 0 {
			cfg.Columns = defaultColumns
		}
		if cfg.Columns > maxColumns {
			cfg.Columns = maxColumns
		}
	case model.WidgetCarousel:
		cfg.Autoplay = q.Autoplay
		cfg.Interval = q.Interval
		if cfg.Interval <= 0 {
			cfg.Interval = defaultInterval
		}
	case model.WidgetStories:
		cfg.Duration = q.Duration
		if cfg.Duration <= 0 {
			cfg.Duration = defaultDuration
		}
	}
	return cfg
}

func feedCacheKey(q FeedQuery, cfg FeedConfig) string {
	return fmt.Sprintf("%s|%s|%s|%d|%s|%d|%t|%d|%d",
		cfg.Type, strings.Join(q.Tags, ","), q.Product, cfg.Limit,
		cfg.Layout, cfg.Columns, cfg.Autoplay, cfg.Interval, cfg.Duration)
}

// Feed returns the newest APPROVED media of the shop for a storefront widget
func (s *widgetService) Feed(ctx context.Context, query FeedQuery) (*Feed, error) {
	if !util.IsValidShopDomain(query.Shop) {
		return nil, ErrInvalidShopDomain
	}
	if !IsFeedType(query.Type) {
		return nil, ErrInvalidWidgetType
	}

	query.Tags = normalizeTags(query.Tags)
	query.Product = strings.TrimSpace(query.Product)
	cfg := feedConfig(query)
	key := feedCacheKey(query, cfg)

	if cached, ok := s.cache.Get(ctx, query.Shop, key); ok {
		var feed Feed
		if err := json.Unmarshal(cached, &feed); err == nil {
			return &feed, nil
		}
	}

	approved := model.MediaStatusApproved
	media, err := s.mediaRepo.FindWithFilter(repository.MediaFilter{
		ShopDomain: query.Shop,
		TagSlugs:   query.Tags,
		Status:     &approved,
		ProductID:  query.Product,
		Limit:      cfg.Limit,
	})
	if err != nil {
		logger.Error("Failed to load widget feed", err, map[string]interface{}{
			"shop": query.Shop,
			"type": query.Type,
		})
		return nil, err
	}

	feed := &Feed{Items: make([]FeedItem, 0, len(media)), Config: cfg}
	for i := range media {
		m := &media[i]
		feed.Items = append(feed.Items, FeedItem{
			ID:        m.ID,
			URL:       m.URL,
			Caption:   m.Caption,
			ProductID: m.ProductID,
			Tags:      m.TagNames(),
			IsVideo:   m.IsVideo(),
			CreatedAt: m.CreatedAt,
		})
	}

	if data, err := json.Marshal(feed); err == nil {
		s.cache.Set(ctx, query.Shop, key, data)
	}
	return feed, nil
}

func (s *widgetService) Shoppable(ctx context.Context, query ShoppableQuery) (*ShoppableVideo, error) {
	if !util.IsValidShopDomain(query.Shop) {
		return nil, ErrInvalidShopDomain
	}
	if query.MediaID == 0 {
		return nil, ErrShoppableMediaEmpty
	}

	media, err := s.mediaRepo.FindByID(query.Shop, query.MediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	if media.Status != model.MediaStatusApproved {
		return nil, ErrMediaNotAvailable
	}

	video := &ShoppableVideo{
		Media:    media,
		IsVideo:  media.IsVideo(),
		Hotspots: media.Hotspots,
		Products: map[string]shopify.Product{},
	}
	if video.Hotspots == nil {
		video.Hotspots = []model.ProductHotspot{}
	}
	if query.At != nil {
		video.ActiveHotspots = model.ActiveHotspots(video.Hotspots, *query.At)
	}

	view := &model.MediaView{
		MediaID:    media.ID,
		ShopDomain: media.ShopDomain,
		WidgetID:   ShoppableWidgetID,
		Referrer:   query.Referrer,
		UserAgent:  query.UserAgent,
	}
	if err := s.analyticsRepo.CreateView(view); err != nil {
		logger.Warn("Failed to record shoppable view", map[string]interface{}{
			"media_id": media.ID,
			"error":    err.Error(),
		})
	}

	if s.products != nil && len(video.Hotspots) > 0 {
		ids := make([]string, 0, len(video.Hotspots))
		for _, h := range video.Hotspots {
			ids = append(ids, h.ProductID)
		}
		products, err := s.products.Lookup(ctx, query.Shop, ids)
		if err != nil {
			logger.Debug("Hotspot products unavailable", map[string]interface{}{
				"shop":  query.Shop,
				"error": err.Error(),
			})
		}
		for id, p := range products {
			video.Products[id] = p
		}
	}

	return video, nil
}

func (s *widgetService) List(shop string) ([]model.Widget, error) {
	return s.widgetRepo.FindByShop(shop)
}

func normalizeWidget(input WidgetInput) (WidgetInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, ErrWidgetNameRequired
	}
	if !input.Type.IsValid() {
		return input, ErrInvalidWidgetType
	}

	settings := input.Settings
	settings.Tags = normalizeTags(settings.Tags)
	settings.Product = strings.TrimSpace(settings.Product)
	if input.Type == model.WidgetShoppable {
		if settings.MediaID == 0 {
			return input, ErrShoppableMediaEmpty
		}
	} else {
		cfg := feedConfig(FeedQuery{
			Type:     input.Type,
			Limit:    settings.Limit,
			Layout:   settings.Layout,
			Columns:  settings.Columns,
			Autoplay: settings.Autoplay,
			Interval: settings.Interval,
			Duration: settings.Duration,
		})
		settings.Limit = cfg.Limit
		settings.Layout = cfg.Layout
		settings.Columns = cfg.Columns
		settings.Autoplay = cfg.Autoplay
		settings.Interval = cfg.Interval
		settings.Duration = cfg.Duration
		settings.MediaID = 0
	}
	input.Settings = settings
	return input, nil
}

func (s *widgetService) Create(shop string, input WidgetInput) (*model.Widget, error) {
	input, err := normalizeWidget(input)
	if err != nil {
		return nil, err
	}

	if _, err := s.billing.Check(shop, billing.ActionCreateWidget); err != nil {
		return nil, err
	}

	widget := &model.Widget{
		ShopDomain: shop,
		Name:       input.Name,
		Type:       input.Type,
		Settings:   datatypes.NewJSONType(input.Settings),
	}
	if err := s.widgetRepo.Create(widget); err != nil {
		return nil, err
	}

	logger.Info("Widget created", map[string]interface{}{
		"shop":      shop,
		"widget_id": widget.ID,
		"type":      widget.Type,
	})
	return widget, nil
}

func (s *widgetService) find(shop string, id uint) (*model.Widget, error) {
	widget, err := s.widgetRepo.FindByID(shop, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWidgetNotFound
		}
		return nil, err
	}
	return widget, nil
}

func (s *widgetService) Update(shop string, id uint, input WidgetInput) (*model.Widget, error) {
	widget, err := s.find(shop, id)
	if err != nil {
		return nil, err
	}

	input, err = normalizeWidget(input)
	if err != nil {
		return nil, err
	}

	widget.Name = input.Name
	widget.Type = input.Type
	widget.Settings = datatypes.NewJSONType(input.Settings)
	if err := s.widgetRepo.Update(widget); err != nil {
		return nil, err
	}
	return widget, nil
}

func (s *widgetService) Delete(shop string, id uint) error {
	count, err := s.widgetRepo.Delete(shop, id)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrWidgetNotFound
	}

	logger.Info("Widget deleted", map[string]interface{}{
		"shop":      shop,
		"widget_id": id,
	})
	return nil
}

func (s *widgetService) Embed(shop string, id uint) (string, error) {
	widget, err := s.find(shop, id)
	if err != nil {
		return "", err
	}
	return EmbedSnippet(shop, widget.Type, widget.Settings.Data(), s.scriptURL), nil
}

func (s *widgetService) Setup(shop string) (*WidgetSetup, error) {
	tags, err := s.tagRepo.FindWithFilter(shop, "", setupTagLimit)
	if err != nil {
		return nil, err
	}

	approved := model.MediaStatusApproved
	media, err := s.mediaRepo.FindWithFilter(repository.MediaFilter{
		ShopDomain: shop,
		Status:     &approved,
		Limit:      setupSampleLimit,
	})
	if err != nil {
		return nil, err
	}

	return &WidgetSetup{Shop: shop, Tags: tags, SampleMedia: media}, nil
}

// EmbedSnippet renders the container div and loader script for a storefront theme.
// Shoppable widgets embed the app proxy iframe directly.
func EmbedSnippet(shop string, widgetType model.WidgetType, settings model.WidgetSettings, scriptURL string) string {
	attr := func(name, value string) string {
		return fmt.Sprintf(`%s="%s"`, name, html.EscapeString(value))
	}

	if widgetType == model.WidgetShoppable {
		q := url.Values{}
		q.Set("shop", shop)
		q.Set("media_id", strconv.FormatUint(uint64(settings.MediaID), 10))
		src := fmt.Sprintf("https://%s/apps/ugc/widgets/shoppable?%s", shop, q.Encode())
		return fmt.Sprintf("<!-- UGCfy Shoppable Video -->\n<iframe %s %s %s></iframe>",
			attr("src", src), attr("style", "width:100%;border:none;min-height:400px"), attr("loading", "lazy"))
	}

	attrs := []string{attr("data-shop", shop)}
	if len(settings.Tags) > 0 {
		attrs = append(attrs, attr("data-tags", strings.Join(settings.Tags, ",")))
	}
	if settings.Product != "" {
		attrs = append(attrs, attr("data-product", settings.Product))
	}
	if widgetType == model.WidgetGallery {
		attrs = append(attrs, attr("data-layout", settings.Layout))
		attrs = append(attrs, attr("data-columns", strconv.Itoa(settings.Columns)))
	}
	attrs = append(attrs, attr("data-limit", strconv.Itoa(settings.Limit)))
	if widgetType == model.WidgetCarousel {
		if settings.Autoplay {
			attrs = append(attrs, attr("data-autoplay", "true"))
		}
		attrs = append(attrs, attr("data-interval", strconv.Itoa(settings.Interval)))
	}
	if widgetType == model.WidgetStories {
		attrs = append(attrs, attr("data-duration", strconv.Itoa(settings.Duration)))
	}

	return fmt.Sprintf("<!-- UGCfy Widget -->\n<div id=\"ugcfy-%s\"\n     %s>\n</div>\n<script src=\"%s\"></script>",
		widgetType, strings.Join(attrs, "\n     "), html.EscapeString(scriptURL))
}
