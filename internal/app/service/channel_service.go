package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/internal/billing"
	"github.com/ikkim/ugcfy-backend/pkg/instagram"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"github.com/ikkim/ugcfy-backend/pkg/util"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrChannelNotFound        = errors.New("channel not found")
	ErrInvalidChannel         = errors.New("invalid instagram channel")
	ErrChannelNotConnected    = errors.New("channel has no access token; reconnect instagram")
	ErrChannelTokenExpired    = errors.New("instagram token expired; reconnect instagram")
	ErrInstagramNotConfigured = errors.New("instagram app id not configured")
	ErrInvalidInstagramState  = errors.New("invalid instagram oauth state")
)

const (
	instagramStatePurpose = "instagram"
	defaultImportLimit    = 10
	maxImportLimit        = 100
	autoImportLimit       = 25
	autoImportParallelism = 4
)

// InstagramAPI is the part of the Graph client used by channels
type InstagramAPI interface {
	OAuthURL(redirectURI, state string) string
	Connect(ctx context.Context, code, redirectURI string, tokenTTL time.Duration) (*instagram.Connection, error)
	ListMedia(ctx context.Context, accountID, accessToken string, limit int) ([]instagram.Media, error)
}

type ImportInput struct {
	ChannelID uint
	Hashtag   string
	Limit     int
}

type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

type ChannelService interface {
	List(shop string) ([]model.Channel, error)
	Disconnect(shop string, id uint) error
	SetAutoImport(shop string, id uint, enabled bool) error
	OAuthURL(shop string) (string, error)
	// CompleteOAuth returns the shop carried by state along with the stored channel
	CompleteOAuth(ctx context.Context, code, state string) (string, *model.Channel, error)
	Import(ctx context.Context, shop string, input ImportInput) (*ImportResult, error)
	ExpireTokens(now time.Time) (int64, error)
	AutoImportAll(ctx context.Context) error
}

type ChannelOptions struct {
	AppURL    string
	APISecret string // signs the OAuth state
	TokenTTL  time.Duration
}

type channelService struct {
	channelRepo repository.ChannelRepository
	mediaRepo   repository.MediaRepository
	tagRepo     repository.TagRepository
	billing     BillingService
	instagram   InstagramAPI
	sealer      *util.TokenSealer
	opts        ChannelOptions
	notify      mediaNotifier
}

func NewChannelService(
	channelRepo repository.ChannelRepository,
	mediaRepo repository.MediaRepository,
	tagRepo repository.TagRepository,
	billingService BillingService,
	instagramAPI InstagramAPI,
	sealer *util.TokenSealer,
	opts ChannelOptions,
	events EventPublisher,
	cache FeedCache,
) ChannelService {
	return &channelService{
		channelRepo: channelRepo,
		mediaRepo:   mediaRepo,
		tagRepo:     tagRepo,
		billing:     billingService,
		instagram:   instagramAPI,
		sealer:      sealer,
		opts:        opts,
		notify:      newMediaNotifier(events, cache),
	}
}

func (s *channelService) redirectURI() string {
	return s.opts.AppURL + "/auth/instagram/callback"
}

func (s *channelService) List(shop string) ([]model.Channel, error) {
	return s.channelRepo.FindByShop(shop)
}

func (s *channelService) Disconnect(shop string, id uint) error {
	count, err := s.channelRepo.Delete(shop, id)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChannelNotFound
	}

	logger.Info("Channel disconnected", map[string]interface{}{
		"shop":       shop,
		"channel_id": id,
	})
	return nil
}

func (s *channelService) SetAutoImport(shop string, id uint, enabled bool) error {
	count, err := s.channelRepo.SetAutoImport(shop, id, enabled)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChannelNotFound
	}
	return nil
}

func (s *channelService) OAuthURL(shop string) (string, error) {
	if s.instagram == nil {
		return "", ErrInstagramNotConfigured
	}

	state, err := util.GenerateStateToken(shop, instagramStatePurpose, s.opts.APISecret, stateTokenExpiry)
	if err != nil {
		return "", err
	}
	return s.instagram.OAuthURL(s.redirectURI(), state), nil
}

func (s *channelService) CompleteOAuth(ctx context.Context, code, state string) (string, *model.Channel, error) {
	if s.instagram == nil {
		return "", nil, ErrInstagramNotConfigured
	}

	claims, err := util.ValidateStateToken(state, instagramStatePurpose, s.opts.APISecret)
	if err != nil {
		return "", nil, ErrInvalidInstagramState
	}
	shop := claims.Shop

	conn, err := s.instagram.Connect(ctx, code, s.redirectURI(), s.opts.TokenTTL)
	if err != nil {
		logger.Error("Instagram connection failed", err, map[string]interface{}{
			"shop": shop,
		})
		return shop, nil, err
	}

	sealed, err := s.sealer.Seal(conn.PageAccessToken)
	if err != nil {
		return shop, nil, err
	}

	expiresAt := conn.ExpiresAt
	channel := &model.Channel{
		ShopDomain:  shop,
		Name:        fmt.Sprintf("Instagram - @%s", conn.Account.Username),
		Type:        model.ChannelInstagram,
		Status:      model.ChannelConnected,
		Username:    conn.Account.Username,
		AccessToken: sealed,
		ExpiresAt:   &expiresAt,
		Metadata: datatypes.NewJSONType(model.ChannelMetadata{
			InstagramAccountID: conn.Account.ID,
			ProfilePicture:     conn.Account.ProfilePictureURL,
		}),
	}
	if err := s.channelRepo.Upsert(channel); err != nil {
		logger.Error("Failed to store channel", err, map[string]interface{}{
			"shop": shop,
		})
		return shop, nil, err
	}

	logger.Info("Instagram channel connected", map[string]interface{}{
		"shop":       shop,
		"channel_id": channel.ID,
		"username":   channel.Username,
	})
	return shop, channel, nil
}

// Import pulls recent posts of an Instagram channel into the moderation queue as DRAFT media
func (s *channelService) Import(ctx context.Context, shop string, input ImportInput) (*ImportResult, error) {
	if s.instagram == nil {
		return nil, ErrInstagramNotConfigured
	}

	channel, err := s.channelRepo.FindByID(shop, input.ChannelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, err
	}
	if channel.Type != model.ChannelInstagram {
		return nil, ErrInvalidChannel
	}
	if channel.AccessToken == "" {
		return nil, ErrChannelNotConnected
	}
	accountID := channel.Metadata.Data().InstagramAccountID
	if accountID == "" {
		return nil, ErrChannelNotConnected
	}

	check, err := s.billing.Check(shop, billing.ActionImportMedia)
	if err != nil {
		return nil, err
	}

	token, err := s.sealer.Open(channel.AccessToken)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultImportLimit
	}
	if limit > maxImportLimit {
		limit = maxImportLimit
	}

	posts, err := s.instagram.ListMedia(ctx, accountID, token, limit)
	if err != nil {
		if errors.Is(err, instagram.ErrTokenExpired) {
			if upErr := s.channelRepo.UpdateStatus(channel.ID, model.ChannelError); upErr != nil {
				logger.Error("Failed to flag channel", upErr, map[string]interface{}{
					"channel_id": channel.ID,
				})
			}
			return nil, ErrChannelTokenExpired
		}
		logger.Error("Instagram import failed", err, map[string]interface{}{
			"shop":       shop,
			"channel_id": channel.ID,
		})
		return nil, err
	}

	result := &ImportResult{Total: len(posts)}

	candidates := make([]instagram.Media, 0, len(posts))
	urls := make([]string, 0, len(posts))
	for _, p := range posts {
		if !p.Importable() || p.DisplayURL() == "" {
			continue
		}
		candidates = append(candidates, p)
		urls = append(urls, p.DisplayURL())
	}

	existing, err := s.mediaRepo.ExistingURLs(shop, urls)
	if err != nil {
		return nil, err
	}

	tag, err := s.hashtagTag(shop, input.Hashtag)
	if err != nil {
		return nil, err
	}

	remaining := int64(-1)
	if check.Limit != billing.Unlimited {
		remaining = int64(check.Limit) - check.Current
	}

	imported := make([]model.Media, 0, len(candidates))
	for _, p := range candidates {
		url := p.DisplayURL()
		if existing[url] {
			result.Skipped++
			continue
		}
		if remaining == 0 {
			result.Skipped++
			continue
		}

		media := &model.Media{
			ShopDomain: shop,
			URL:        url,
			Caption:    p.Caption,
			Status:     model.MediaStatusDraft,
			SourceType: model.SourceInstagram,
			ExternalID: p.ID,
		}
		if err := s.mediaRepo.Create(media); err != nil {
			return nil, err
		}
		if tag != nil {
			if err := s.mediaRepo.AddTag(media.ID, tag.ID); err != nil {
				return nil, err
			}
		}

		existing[url] = true
		imported = append(imported, *media)
		result.Imported++
		if remaining > 0 {
			remaining--
		}
	}

	if err := s.channelRepo.MarkSynced(channel.ID, time.Now()); err != nil {
		logger.Warn("Failed to mark channel synced", map[string]interface{}{
			"channel_id": channel.ID,
			"error":      err.Error(),
		})
	}

	logger.Info("Instagram import completed", map[string]interface{}{
		"shop":       shop,
		"channel_id": channel.ID,
		"imported":   result.Imported,
		"skipped":    result.Skipped,
		"total":      result.Total,
	})

	if result.Imported > 0 {
		s.notify.changed(ctx, shop, EventMediaImported, map[string]interface{}{
			"channel_id": channel.ID,
			"media":      imported,
		})
	}
	return result, nil
}

// hashtagTag upserts the tag for an import hashtag; "" yields nil
func (s *channelService) hashtagTag(shop, hashtag string) (*model.Tag, error) {
	name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(hashtag), "#"))
	if name == "" {
		return nil, nil
	}

	tag := &model.Tag{ShopDomain: shop, Name: name, Slug: util.Slugify(name)}
	if err := s.tagRepo.Upsert(tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *channelService) ExpireTokens(now time.Time) (int64, error) {
	count, err := s.channelRepo.ExpireBefore(now)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Info("Channels expired", map[string]interface{}{
			"count": count,
		})
	}
	return count, nil
}

// AutoImportAll imports for every connected channel with auto import on whose plan allows it
func (s *channelService) AutoImportAll(ctx context.Context) error {
	channels, err := s.channelRepo.FindAutoImport()
	if err != nil {
		logger.Error("Failed to load auto import channels", err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(autoImportParallelism)

	for _, ch := range channels {
		if !planAllowsAutoImport(s.billing, ch.ShopDomain) {
			logger.Debug("Plan does not include auto import", map[string]interface{}{
				"shop":       ch.ShopDomain,
				"channel_id": ch.ID,
			})
			continue
		}

		g.Go(func() error {
			result, err := s.Import(gctx, ch.ShopDomain, ImportInput{ChannelID: ch.ID, Limit: autoImportLimit})
			if err != nil {
				// one failing channel must not stop the others
				logger.Warn("Auto import failed", map[string]interface{}{
					"shop":       ch.ShopDomain,
					"channel_id": ch.ID,
					"error":      err.Error(),
				})
				return nil
			}
			logger.Debug("Auto import finished", map[string]interface{}{
				"channel_id": ch.ID,
				"imported":   result.Imported,
			})
			return nil
		})
	}

	return g.Wait()
}
