package plans

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tier is a named entitlement level with a fixed monthly enhancement quota.
type Tier string

const (
	TierFree     Tier = "free"
	TierStarter  Tier = "starter"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

// PlanUnlimited is the pseudo-plan reported when the unlimited override is
// active. It is not a Tier and has no row in the limits table.
const PlanUnlimited = "unlimited"

// monthlyLimits maps each tier to its monthly enhancement quota.
var monthlyLimits = map[Tier]int{
	TierFree:     25,
	TierStarter:  500,
	TierPro:      2000,
	TierBusiness: 10000,
}

// precedence lists tiers from highest to lowest. When a user carries several
// plan claims the highest one wins.
var precedence = []Tier{TierBusiness, TierPro, TierStarter}

// Resolve maps a claims-checker capability to the single highest tier the
// caller is entitled to. Absence of any claim yields the free tier.
func Resolve(has func(plan string) bool) Tier {
	if has != nil {
		for _, tier := range precedence {
			if has(string(tier)) {
				return tier
			}
		}
	}
	return TierFree
}

// Limit returns the monthly quota for a plan name. Unrecognized or empty
// names resolve to the free limit, never to unlimited.
func Limit(planName string) int {
	normalized := strings.ToLower(strings.TrimSpace(planName))
	switch {
	case strings.Contains(normalized, string(TierStarter)):
		return monthlyLimits[TierStarter]
	case strings.Contains(normalized, string(TierPro)):
		return monthlyLimits[TierPro]
	case strings.Contains(normalized, string(TierBusiness)):
		return monthlyLimits[TierBusiness]
	}
	return monthlyLimits[TierFree]
}

// Catalog describes a purchasable plan for the pricing surface.
type Catalog struct {
	Tier       Tier     `json:"tier"`
	Name       string   `json:"name"`
	PriceCents int      `json:"price_cents"`
	Price      string   `json:"price"`
	Monthly    int      `json:"monthly_enhancements"`
	Features   []string `json:"features"`
}

var catalogFeatures = map[Tier][]string{
	TierFree: {
		"25 enhancements per month",
		"Basic prompt enhancement",
		"Community support",
	},
	TierStarter: {
		"500 enhancements per month",
		"Advanced prompt enhancement",
		"Email support",
		"Enhanced AI models",
	},
	TierPro: {
		"2,000 enhancements per month",
		"Premium prompt enhancement",
		"Priority support",
		"Advanced features",
		"Usage analytics",
	},
	TierBusiness: {
		"10,000 enhancements per month",
		"Enterprise prompt enhancement",
		"Dedicated support",
		"Team management",
		"Advanced analytics",
		"API access",
	},
}

var catalogPrices = map[Tier]int{
	TierFree:     0,
	TierStarter:  199,
	TierPro:      499,
	TierBusiness: 1999,
}

// DisplayName renders a tier name for user-facing payloads.
func DisplayName(planName string) string {
	c := cases.Title(language.Und)
	return c.String(strings.TrimSpace(planName))
}

// FormatPrice renders a cent amount as dollars.
func FormatPrice(cents int) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

// AllPlans returns the plan catalog in ascending price order.
func AllPlans() []Catalog {
	ordered := []Tier{TierFree, TierStarter, TierPro, TierBusiness}
	out := make([]Catalog, 0, len(ordered))
	for _, tier := range ordered {
		out = append(out, Catalog{
			Tier:       tier,
			Name:       DisplayName(string(tier)),
			PriceCents: catalogPrices[tier],
			Price:      FormatPrice(catalogPrices[tier]),
			Monthly:    monthlyLimits[tier],
			Features:   catalogFeatures[tier],
		})
	}
	return out
}
