package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	ErrTrackingFieldsRequired = errors.New("type and media_id required")
	ErrInvalidTrackType       = errors.New("invalid type")
	ErrInvalidClickType       = errors.New("invalid click type")
)

const (
	TrackView  = "view"
	TrackClick = "click"

	DefaultAnalyticsPeriod = 7
	MaxAnalyticsPeriod     = 365

	topMediaLimit       = 10
	topProductsLimit    = 5
	dailyQueryParallel  = 8
	analyticsDateFormat = "2006-01-02"
)

type TrackInput struct {
	Type       string
	MediaID    uint
	ClickType  string
	ProductID  string
	ShopDomain string
	WidgetID   string
	Referrer   string
	UserAgent  string
}

type TopMediaItem struct {
	ID      uint              `json:"id"`
	URL     string            `json:"url"`
	Caption string            `json:"caption"`
	Status  model.MediaStatus `json:"status"`
	IsVideo bool              `json:"is_video"`
	Tags    []string          `json:"tags"`
	Views   int64             `json:"views"`
	Clicks  int64             `json:"clicks"`
}

type TopProduct struct {
	ProductID string `json:"product_id"`
	Clicks    int64  `json:"clicks"`
	Title     string `json:"title,omitempty"`
	Image     string `json:"image,omitempty"`
}

type DailyStat struct {
	Date   string `json:"date"`
	Views  int64  `json:"views"`
	Clicks int64  `json:"clicks"`
}

type Dashboard struct {
	Period         int            `json:"period"`
	TotalViews     int64          `json:"total_views"`
	TotalClicks    int64          `json:"total_clicks"`
	TotalMedia     int64          `json:"total_media"`
	ApprovedMedia  int64          `json:"approved_media"`
	ViewsInPeriod  int64          `json:"views_in_period"`
	ClicksInPeriod int64          `json:"clicks_in_period"`
	EngagementRate float64        `json:"engagement_rate"`
	TopMedia       []TopMediaItem `json:"top_media"`
	TopProducts    []TopProduct   `json:"top_products"`
	Daily          []DailyStat    `json:"daily_stats"`
}

type AnalyticsService interface {
	Track(input TrackInput) error
	Dashboard(ctx context.Context, shop string, period int) (*Dashboard, error)
	// Export renders the dashboard as an XLSX workbook
	Export(ctx context.Context, shop string, period int) ([]byte, error)
}

type analyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	mediaRepo     repository.MediaRepository
	products      ProductService
	now           func() time.Time
}

func NewAnalyticsService(
	analyticsRepo repository.AnalyticsRepository,
	mediaRepo repository.MediaRepository,
	products ProductService,
) AnalyticsService {
	return &analyticsService{
		analyticsRepo: analyticsRepo,
		mediaRepo:     mediaRepo,
		products:      products,
		now:           time.Now,
	}
}

// ClampPeriod bounds the dashboard window to 1..365 days; 0 means the default week
func ClampPeriod(period int) int {
	if period == 0 {
		return DefaultAnalyticsPeriod
	}
	if period < 1 {
		return 1
	}
	if period > MaxAnalyticsPeriod {
		return MaxAnalyticsPeriod
	}
	return period
}

// EngagementRate is clicks per hundred views rounded to one decimal
func EngagementRate(views, clicks int64) float64 {
	if views == 0 {
		return 0
	}
	return math.Round(float64(clicks)/float64(views)*1000) / 10
}

// Track records a storefront view or click. The shop is taken from the media row.
func (s *analyticsService) Track(input TrackInput) error {
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	if input.Type == "" || input.MediaID == 0 {
		return ErrTrackingFieldsRequired
	}
	if input.Type != TrackView && input.Type != TrackClick {
		return ErrInvalidTrackType
	}

	shop, err := s.mediaRepo.FindOwner(input.MediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMediaNotFound
		}
		return err
	}
	if input.ShopDomain != "" && input.ShopDomain != shop {
		logger.Debug("Tracked shop does not own media", map[string]interface{}{
			"claimed":  input.ShopDomain,
			"owner":    shop,
			"media_id": input.MediaID,
		})
	}

	if input.Type == TrackView {
		return s.analyticsRepo.CreateView(&model.MediaView{
			MediaID:    input.MediaID,
			ShopDomain: shop,
			WidgetID:   input.WidgetID,
			Referrer:   input.Referrer,
			UserAgent:  input.UserAgent,
		})
	}

	clickType := model.ClickType(strings.ToLower(input.ClickType))
	if clickType == "" {
		clickType = model.ClickMedia
	}
	if clickType != model.ClickMedia && clickType != model.ClickProduct {
		return ErrInvalidClickType
	}

	var productID *string
	if p := strings.TrimSpace(input.ProductID); p != "" {
		productID = &p
	}

	return s.analyticsRepo.CreateClick(&model.MediaClick{
		MediaID:    input.MediaID,
		ClickType:  clickType,
		ProductID:  productID,
		ShopDomain: shop,
		WidgetID:   input.WidgetID,
		Referrer:   input.Referrer,
		UserAgent:  input.UserAgent,
	})
}

func (s *analyticsService) Dashboard(ctx context.Context, shop string, period int) (*Dashboard, error) {
	period = ClampPeriod(period)
	now := s.now().UTC()
	since := now.AddDate(0, 0, -period)

	d := &Dashboard{Period: period}
	var topStats []repository.MediaStat
	var productStats []repository.ProductStat

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalViews, err = s.analyticsRepo.CountViews(shop, time.Time{}, time.Time{})
		return
	})
	g.Go(func() (err error) {
		d.TotalClicks, err = s.analyticsRepo.CountClicks(shop, time.Time{}, time.Time{})
		return
	})
	g.Go(func() (err error) {
		d.TotalMedia, err = s.mediaRepo.Count(shop)
		return
	})
	g.Go(func() (err error) {
		d.ApprovedMedia, err = s.mediaRepo.CountByStatus(shop, model.MediaStatusApproved)
		return
	})
	g.Go(func() (err error) {
		d.ViewsInPeriod, err = s.analyticsRepo.CountViews(shop, since, time.Time{})
		return
	})
	g.Go(func() (err error) {
		d.ClicksInPeriod, err = s.analyticsRepo.CountClicks(shop, since, time.Time{})
		return
	})
	g.Go(func() (err error) {
		topStats, err = s.analyticsRepo.TopMedia(shop, topMediaLimit)
		return
	})
	g.Go(func() (err error) {
		productStats, err = s.analyticsRepo.TopProducts(shop, since, topProductsLimit)
		return
	})
	if err := g.Wait(); err != nil {
		logger.Error("Failed to aggregate analytics", err, map[string]interface{}{
			"shop": shop,
		})
		return nil, err
	}

	daily, err := s.daily(ctx, shop, now, period)
	if err != nil {
		return nil, err
	}
	d.Daily = daily
	d.EngagementRate = EngagementRate(d.TotalViews, d.TotalClicks)

	if d.TopMedia, err = s.topMedia(shop, topStats); err != nil {
		return nil, err
	}
	d.TopProducts = s.topProducts(ctx, shop, productStats)

	return d, nil
}

// daily counts views and clicks for each UTC day of the window, oldest first
func (s *analyticsService) daily(ctx context.Context, shop string, now time.Time, period int) ([]DailyStat, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	stats := make([]DailyStat, period)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(dailyQueryParallel)

	for i := 0; i < period; i++ {
		start := today.AddDate(0, 0, i-period+1)
		end := start.AddDate(0, 0, 1)
		stat := &stats[i]
		stat.Date = start.Format(analyticsDateFormat)

		g.Go(func() (err error) {
			if stat.Views, err = s.analyticsRepo.CountViews(shop, start, end); err != nil {
				return err
			}
			stat.Clicks, err = s.analyticsRepo.CountClicks(shop, start, end)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *analyticsService) topMedia(shop string, stats []repository.MediaStat) ([]TopMediaItem, error) {
	items := make([]TopMediaItem, 0, len(stats))
	if len(stats) == 0 {
		return items, nil
	}

	ids := make([]uint, 0, len(stats))
	for _, st := range stats {
		ids = append(ids, st.MediaID)
	}
	media, err := s.mediaRepo.FindByIDs(shop, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.Media, len(media))
	for i := range media {
		byID[media[i].ID] = &media[i]
	}

	for _, st := range stats {
		m, ok := byID[st.MediaID]
		if !ok {
			continue
		}
		items = append(items, TopMediaItem{
			ID:      m.ID,
			URL:     m.URL,
			Caption: m.Caption,
			Status:  m.Status,
			IsVideo: m.IsVideo(),
			Tags:    m.TagNames(),
			Views:   st.Views,
			Clicks:  st.Clicks,
		})
	}
	return items, nil
}

// topProducts attaches Shopify product details when they can be fetched
func (s *analyticsService) topProducts(ctx context.Context, shop string, stats []repository.ProductStat) []TopProduct {
	out := make([]TopProduct, 0, len(stats))
	ids := make([]string, 0, len(stats))
	for _, st := range stats {
		out = append(out, TopProduct{ProductID: st.ProductID, Clicks: st.Clicks})
		ids = append(ids, st.ProductID)
	}
	if len(ids) == 0 || s.products == nil {
		return out
	}

	details, err := s.products.Lookup(ctx, shop, ids)
	if err != nil {
		logger.Warn("Failed to fetch product details", map[string]interface{}{
			"shop":  shop,
			"error": err.Error(),
		})
	}
	for i := range out {
		if p, ok := details[out[i].ProductID]; ok {
			out[i].Title = p.Title
			out[i].Image = p.Image
		}
	}
	return out
}

func (s *analyticsService) Export(ctx context.Context, shop string, period int) ([]byte, error) {
	d, err := s.Dashboard(ctx, shop, period)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return nil, err
	}
	summary := [][]interface{}{
		{"Metric", "Value"},
		{"Shop", shop},
		{"Period (days)", d.Period},
		{"Total views", d.TotalViews},
		{"Total clicks", d.TotalClicks},
		{"Engagement rate (%)", d.EngagementRate},
		{"Views in period", d.ViewsInPeriod},
		{"Clicks in period", d.ClicksInPeriod},
		{"Total media", d.TotalMedia},
		{"Approved media", d.ApprovedMedia},
	}
	if err := writeRows(f, "Summary", summary); err != nil {
		return nil, err
	}

	daily := [][]interface{}{{"Date", "Views", "Clicks"}}
	for _, st := range d.Daily {
		daily = append(daily, []interface{}{st.Date, st.Views, st.Clicks})
	}
	if _, err := f.NewSheet("Daily"); err != nil {
		return nil, err
	}
	if err := writeRows(f, "Daily", daily); err != nil {
		return nil, err
	}

	top := [][]interface{}{{"Media ID", "URL", "Caption", "Views", "Clicks", "Tags"}}
	for _, m := range d.TopMedia {
		top = append(top, []interface{}{m.ID, m.URL, m.Caption, m.Views, m.Clicks, strings.Join(m.Tags, ", ")})
	}
	if _, err := f.NewSheet("Top Media"); err != nil {
		return nil, err
	}
	if err := writeRows(f, "Top Media", top); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	logger.Info("Analytics exported", map[string]interface{}{
		"shop":   shop,
		"period": d.Period,
		"bytes":  buf.Len(),
	})
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
