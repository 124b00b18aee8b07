package billing

import (
	"math"
	"strings"
)

// Unlimited marks a limit that never blocks
const Unlimited = -1

// Interval is the Shopify recurring billing interval used by every plan
const Interval = "EVERY_30_DAYS"

const Currency = "USD"

// Action names checked against plan limits
const (
	ActionCreateMedia  = "create_media"
	ActionCreateWidget = "create_widget"
	ActionImportMedia  = "import_media"
)

// Plan ids
const (
	PlanStarter    = "starter"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// ImportWindowDays is the rolling window counted as monthly imports
const ImportWindowDays = 30

type Limits struct {
	MediaItems     int `json:"media_items"`
	Widgets        int `json:"widgets"`
	MonthlyImports int `json:"monthly_imports"`
}

type Plan struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	TrialDays  int      `json:"trial_days"`
	Features   []string `json:"features"`
	Limits     Limits   `json:"limits"`
	Popular    bool     `json:"popular,omitempty"`
	AutoImport bool     `json:"auto_import"`
}

var plans = []Plan{
	{
		ID:        PlanStarter,
		Name:      "STARTER",
		Price:     49,
		TrialDays: 7,
		Features: []string{
			"Up to 500 media items",
			"3 widgets",
			"100 imports per month",
			"Basic analytics",
			"Email support",
		},
		Limits: Limits{MediaItems: 500, Widgets: 3, MonthlyImports: 100},
	},
	{
		ID:        PlanPro,
		Name:      "PRO",
		Price:     199,
		TrialDays: 14,
		Features: []string{
			"Up to 5,000 media items",
			"10 widgets",
			"1,000 imports per month",
			"Shoppable video hotspots",
			"Advanced analytics",
			"Automatic Instagram import",
			"Priority support",
		},
		Limits:     Limits{MediaItems: 5000, Widgets: 10, MonthlyImports: 1000},
		Popular:    true,
		AutoImport: true,
	},
	{
		ID:        PlanEnterprise,
		Name:      "ENTERPRISE",
		Price:     299,
		TrialDays: 14,
		Features: []string{
			"Unlimited media items",
			"Unlimited widgets",
			"Unlimited imports",
			"Team permissions",
			"Analytics export",
			"Dedicated support",
		},
		Limits:     Limits{MediaItems: Unlimited, Widgets: Unlimited, MonthlyImports: Unlimited},
		AutoImport: true,
	},
}

// Plans returns the catalogue in display order
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// GetPlan looks a plan up by id or name, case-insensitively
func GetPlan(id string) (Plan, bool) {
	key := strings.ToLower(strings.TrimSpace(id))
	for _, p := range plans {
		if p.ID == key {
			return p, true
		}
	}
	return Plan{}, false
}

type Usage struct {
	MediaItems     int64 `json:"media_items"`
	Widgets        int64 `json:"widgets"`
	MonthlyImports int64 `json:"monthly_imports"`
}

// LimitCheck is the outcome of CanPerform
type LimitCheck struct {
	Allowed bool   `json:"allowed"`
	Current int64  `json:"current"`
	Limit   int    `json:"limit"`
	Plan    string `json:"plan"`
}

// WithinLimit reports whether one more item fits under limit
func WithinLimit(current int64, limit int) bool {
	return limit == Unlimited || current < int64(limit)
}

// CanPerform checks action against the plan. Unknown actions are allowed.
func CanPerform(plan Plan, usage Usage, action string) LimitCheck {
	var current int64
	var limit int

	switch action {
	case ActionCreateMedia:
		current, limit = usage.MediaItems, plan.Limits.MediaItems
	case ActionCreateWidget:
		current, limit = usage.Widgets, plan.Limits.Widgets
	case ActionImportMedia:
		current, limit = usage.MonthlyImports, plan.Limits.MonthlyImports
	default:
		return LimitCheck{Allowed: true, Limit: Unlimited, Plan: plan.Name}
	}

	return LimitCheck{
		Allowed: WithinLimit(current, limit),
		Current: current,
		Limit:   limit,
		Plan:    plan.Name,
	}
}

// UsagePercentage is min(100, round(current/limit*100)), 0 when unlimited
func UsagePercentage(current int64, limit int) int {
	if limit == Unlimited {
		return 0
	}
	if limit <= 0 {
		return 100
	}
	pct := int(math.Round(float64(current) / float64(limit) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

type Percentages struct {
	MediaItems     int `json:"media_items"`
	Widgets        int `json:"widgets"`
	MonthlyImports int `json:"monthly_imports"`
}

func UsagePercentages(plan Plan, usage Usage) Percentages {
	return Percentages{
		MediaItems:     UsagePercentage(usage.MediaItems, plan.Limits.MediaItems),
		Widgets:        UsagePercentage(usage.Widgets, plan.Limits.Widgets),
		MonthlyImports: UsagePercentage(usage.MonthlyImports, plan.Limits.MonthlyImports),
	}
}
