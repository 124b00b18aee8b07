package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/internal/billing"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"github.com/ikkim/ugcfy-backend/pkg/shopify"
	"gorm.io/gorm"
)

var (
	ErrUsageLimitReached   = errors.New("usage limit reached")
	ErrInvalidPlan         = errors.New("invalid plan")
	ErrSubscriptionMissing = errors.New("no active subscription for plan")
)

// LimitError carries the limit check that rejected an action
type LimitError struct {
	Action string
	Check  billing.LimitCheck
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %s (%d/%d on %s)", ErrUsageLimitReached, e.Action, e.Check.Current, e.Check.Limit, e.Check.Plan)
}

func (e *LimitError) Is(target error) bool {
	return target == ErrUsageLimitReached
}

// SubscriptionAdmin is the part of the Shopify Admin API used for billing
type SubscriptionAdmin interface {
	CreateAppSubscription(ctx context.Context, shop, accessToken string, req shopify.SubscriptionRequest) (*shopify.SubscriptionResult, error)
	ActiveSubscriptions(ctx context.Context, shop, accessToken string) ([]shopify.AppSubscription, error)
}

// BillingOverview is the payload of the billing page
type BillingOverview struct {
	Plans              []billing.Plan           `json:"plans"`
	CurrentPlan        billing.Plan             `json:"current_plan"`
	Usage              billing.Usage            `json:"usage"`
	Limits             billing.Limits           `json:"limits"`
	Percentages        billing.Percentages      `json:"percentages"`
	HasSubscription    bool                     `json:"has_active_subscription"`
	ActiveSubscription *shopify.AppSubscription `json:"active_subscription,omitempty"`
}

type BillingService interface {
	CurrentPlan(shop string) (billing.Plan, error)
	Usage(shop string) (billing.Usage, error)
	// Check returns a *LimitError when the shop may not perform action once more
	Check(shop, action string) (*billing.LimitCheck, error)
	// CheckN is Check for n additional items
	CheckN(shop, action string, n int64) (*billing.LimitCheck, error)
	Overview(ctx context.Context, shop string) (*BillingOverview, error)
	Subscribe(ctx context.Context, shop, planID string) (*shopify.SubscriptionResult, error)
	Confirm(ctx context.Context, shop, planID string) (*billing.Plan, error)
}

type BillingOptions struct {
	DefaultPlan string
	ReturnURL   string // absolute URL of the confirm endpoint
	TestCharges bool
}

type billingService struct {
	shopRepo   repository.ShopRepository
	mediaRepo  repository.MediaRepository
	widgetRepo repository.WidgetRepository
	tokens     AccessTokenSource
	admin      SubscriptionAdmin
	opts       BillingOptions
	now        func() time.Time
}

func NewBillingService(
	shopRepo repository.ShopRepository,
	mediaRepo repository.MediaRepository,
	widgetRepo repository.WidgetRepository,
	tokens AccessTokenSource,
	admin SubscriptionAdmin,
	opts BillingOptions,
) BillingService {
	return &billingService{
		shopRepo:   shopRepo,
		mediaRepo:  mediaRepo,
		widgetRepo: widgetRepo,
		tokens:     tokens,
		admin:      admin,
		opts:       opts,
		now:        time.Now,
	}
}

// CurrentPlan is the plan on the shop row, falling back to the configured default
func (s *billingService) CurrentPlan(shop string) (billing.Plan, error) {
	planID := s.opts.DefaultPlan

	record, err := s.shopRepo.FindByDomain(shop)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to load shop plan", err, map[string]interface{}{
			"shop": shop,
		})
		return billing.Plan{}, err
	}
	if record != nil && record.PlanID != nil && *record.PlanID != "" {
		planID = *record.PlanID
	}

	plan, ok := billing.GetPlan(planID)
	if !ok {
		logger.Warn("Unknown plan on shop, using starter", map[string]interface{}{
			"shop":    shop,
			"plan_id": planID,
		})
		plan, _ = billing.GetPlan(billing.PlanStarter)
	}
	return plan, nil
}

func (s *billingService) Usage(shop string) (billing.Usage, error) {
	var usage billing.Usage
	var err error

	if usage.MediaItems, err = s.mediaRepo.Count(shop); err != nil {
		return usage, err
	}
	if usage.Widgets, err = s.widgetRepo.Count(shop); err != nil {
		return usage, err
	}
	since := s.now().AddDate(0, 0, -billing.ImportWindowDays)
	if usage.MonthlyImports, err = s.mediaRepo.CountImportsSince(shop, since); err != nil {
		return usage, err
	}
	return usage, nil
}

func (s *billingService) Check(shop, action string) (*billing.LimitCheck, error) {
	return s.CheckN(shop, action, 1)
}

func (s *billingService) CheckN(shop, action string, n int64) (*billing.LimitCheck, error) {
	plan, err := s.CurrentPlan(shop)
	if err != nil {
		return nil, err
	}
	usage, err := s.Usage(shop)
	if err != nil {
		logger.Error("Failed to compute usage", err, map[string]interface{}{
			"shop": shop,
		})
		return nil, err
	}

	// the n-th new item is allowed iff current+n-1 < limit
	if n > 1 {
		usage.MediaItems += n - 1
		usage.Widgets += n - 1
		usage.MonthlyImports += n - 1
	}

	check := billing.CanPerform(plan, usage, action)
	if !check.Allowed {
		logger.Warn("Usage limit reached", map[string]interface{}{
			"shop":    shop,
			"action":  action,
			"current": check.Current,
			"limit":   check.Limit,
			"plan":    check.Plan,
		})
		return &check, &LimitError{Action: action, Check: check}
	}
	return &check, nil
}

func (s *billingService) Overview(ctx context.Context, shop string) (*BillingOverview, error) {
	plan, err := s.CurrentPlan(shop)
	if err != nil {
		return nil, err
	}
	usage, err := s.Usage(shop)
	if err != nil {
		return nil, err
	}

	overview := &BillingOverview{
		Plans:       billing.Plans(),
		CurrentPlan: plan,
		Usage:       usage,
		Limits:      plan.Limits,
		Percentages: billing.UsagePercentages(plan, usage),
	}

	token, err := s.tokens.AccessToken(shop)
	if err != nil {
		logger.Warn("No shop token, skipping subscription lookup", map[string]interface{}{
			"shop":  shop,
			"error": err.Error(),
		})
		return overview, nil
	}

	subs, err := s.admin.ActiveSubscriptions(ctx, shop, token)
	if err != nil {
		logger.Warn("Failed to load active subscriptions", map[string]interface{}{
			"shop":  shop,
			"error": err.Error(),
		})
		return overview, nil
	}
	if len(subs) > 0 {
		overview.HasSubscription = true
		overview.ActiveSubscription = &subs[0]
	}
	return overview, nil
}

func (s *billingService) Subscribe(ctx context.Context, shop, planID string) (*shopify.SubscriptionResult, error) {
	plan, ok := billing.GetPlan(planID)
	if !ok {
		return nil, ErrInvalidPlan
	}

	token, err := s.tokens.AccessToken(shop)
	if err != nil {
		return nil, err
	}

	returnURL := fmt.Sprintf("%s?shop=%s&plan=%s", s.opts.ReturnURL, shop, plan.ID)
	result, err := s.admin.CreateAppSubscription(ctx, shop, token, shopify.SubscriptionRequest{
		Name:      plan.Name,
		Price:     plan.Price,
		Currency:  billing.Currency,
		Interval:  billing.Interval,
		TrialDays: plan.TrialDays,
		ReturnURL: returnURL,
		Test:      s.opts.TestCharges,
	})
	if err != nil {
		logger.Error("Failed to create app subscription", err, map[string]interface{}{
			"shop": shop,
			"plan": plan.ID,
		})
		return nil, err
	}

	logger.Info("App subscription created", map[string]interface{}{
		"shop":            shop,
		"plan":            plan.ID,
		"subscription_id": result.SubscriptionID,
	})
	return result, nil
}

// Confirm records planID once Shopify reports a matching active subscription
func (s *billingService) Confirm(ctx context.Context, shop, planID string) (*billing.Plan, error) {
	plan, ok := billing.GetPlan(planID)
	if !ok {
		return nil, ErrInvalidPlan
	}

	token, err := s.tokens.AccessToken(shop)
	if err != nil {
		return nil, err
	}

	subs, err := s.admin.ActiveSubscriptions(ctx, shop, token)
	if err != nil {
		return nil, err
	}

	var active *shopify.AppSubscription
	for i := range subs {
		if strings.EqualFold(subs[i].Name, plan.Name) && strings.EqualFold(subs[i].Status, "ACTIVE") {
			active = &subs[i]
			break
		}
	}
	if active == nil {
		logger.Warn("Subscription confirmation without active subscription", map[string]interface{}{
			"shop": shop,
			"plan": plan.ID,
		})
		return nil, ErrSubscriptionMissing
	}

	if err := s.shopRepo.SetPlan(shop, plan.ID, active.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}

	logger.Info("Shop plan updated", map[string]interface{}{
		"shop": shop,
		"plan": plan.ID,
	})
	return &plan, nil
}

// planAllowsAutoImport is used by the channel scheduler
func planAllowsAutoImport(b BillingService, shop string) bool {
	plan, err := b.CurrentPlan(shop)
	return err == nil && plan.AutoImport
}
