package cartControllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	cachepkg "github.com/andrewyakovlev/autoparts-api/cache"
	"github.com/andrewyakovlev/autoparts-api/models"
	"github.com/andrewyakovlev/autoparts-api/pricing"
)

// profileTTL bounds how stale a cart preview may be; checkout never reads
// through this cache.
const profileTTL = 60 * time.Second

// PricedItem couples a cart row with its availability determination.
// Unavailable rows are excluded from subtotal and discount eligibility.
type PricedItem struct {
	CartItem  models.CartItem
	Line      pricing.LineItem
	Available bool
	Reason    string
}

// PriceCartItems builds the pricing view of a cart. Items must be loaded
// with Product (and its Categories) preloaded.
func PriceCartItems(items []models.CartItem) []PricedItem {
	priced := make([]PricedItem, 0, len(items))
	for _, it := range items {
		p := PricedItem{CartItem: it, Available: true}
		line := pricing.LineItem{
			ID:        it.ID,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		}
		switch {
		case it.ProductID == nil:
			line.Ref = pricing.AdHocRef{Title: it.OfferTitle}
			line.Title = it.OfferTitle
		case it.Product == nil:
			// Product row gone (soft-deleted) since the item was added.
			p.Available = false
			p.Reason = "product is no longer sold"
		case !it.Product.IsActive:
			p.Available = false
			p.Reason = fmt.Sprintf("product %s has been deactivated", it.Product.Name)
		case it.Product.Stock < it.Quantity:
			p.Available = false
			p.Reason = fmt.Sprintf("only %d of %s left in stock", it.Product.Stock, it.Product.Name)
		default:
			catIDs := make([]uint, 0, len(it.Product.Categories))
			for _, cat := range it.Product.Categories {
				catIDs = append(catIDs, cat.ID)
			}
			line.Ref = pricing.CatalogRef{
				ProductID:   *it.ProductID,
				BrandID:     it.Product.BrandID,
				CategoryIDs: catIDs,
			}
			line.Title = it.Product.Name
		}
		p.Line = line
		priced = append(priced, p)
	}
	return priced
}

// AvailableLines extracts the line items that take part in pricing.
func AvailableLines(priced []PricedItem) []pricing.LineItem {
	lines := make([]pricing.LineItem, 0, len(priced))
	for _, p := range priced {
		if p.Available {
			lines = append(lines, p.Line)
		}
	}
	return lines
}

// DiscountProfile is the cacheable snapshot of a user's standing discounts.
type DiscountProfile struct {
	PersonalPercent decimal.Decimal `json:"personal_percent"`
	GroupPercent    decimal.Decimal `json:"group_percent"`
	Rules           []ProfileRule   `json:"rules"`
}

type ProfileRule struct {
	ID                uint             `json:"id"`
	Name              string           `json:"name"`
	Percent           *decimal.Decimal `json:"percent,omitempty"`
	FixedAmount       *decimal.Decimal `json:"fixed_amount,omitempty"`
	MinCartAmount     *decimal.Decimal `json:"min_cart_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	CategoryIDs       []uint           `json:"category_ids,omitempty"`
	BrandIDs          []uint           `json:"brand_ids,omitempty"`
	ActiveFrom        *time.Time       `json:"active_from,omitempty"`
	ActiveUntil       *time.Time       `json:"active_until,omitempty"`
}

// LoadDiscountProfile reads the user's discount profile straight from the
// database. Checkout always uses this path.
func LoadDiscountProfile(db *gorm.DB, userID string, now time.Time) (DiscountProfile, error) {
	var profile DiscountProfile
	var user models.User
	err := db.Preload("CustomerGroup").
		Preload("CustomerGroup.Rules").
		Preload("CustomerGroup.Rules.Categories").
		Preload("CustomerGroup.Rules.Brands").
		First(&user, "id = ?", userID).Error
	if err != nil {
		return profile, err
	}

	profile.PersonalPercent = user.PersonalPercent
	if user.CustomerGroup == nil {
		return profile, nil
	}
	profile.GroupPercent = user.CustomerGroup.BasePercent
	for _, rule := range user.CustomerGroup.Rules {
		if !rule.ActiveAt(now) {
			continue
		}
		pr := ProfileRule{
			ID:                rule.ID,
			Name:              rule.Name,
			Percent:           rule.Percent,
			FixedAmount:       rule.FixedAmount,
			MinCartAmount:     rule.MinCartAmount,
			MaxDiscountAmount: rule.MaxDiscountAmount,
			ActiveFrom:        rule.ActiveFrom,
			ActiveUntil:       rule.ActiveUntil,
		}
		for _, cat := range rule.Categories {
			pr.CategoryIDs = append(pr.CategoryIDs, cat.ID)
		}
		for _, b := range rule.Brands {
			pr.BrandIDs = append(pr.BrandIDs, b.ID)
		}
		profile.Rules = append(profile.Rules, pr)
	}
	return profile, nil
}

// CachedDiscountProfile is the read-through variant used for cart previews
// only. A cache failure falls back to the database.
func CachedDiscountProfile(ctx context.Context, db *gorm.DB, store cachepkg.Cache, userID string, now time.Time) (DiscountProfile, error) {
	key := store.Key("discount-profile", userID)
	if raw, err := store.Get(ctx, key); err != nil {
		slog.Warn("cart: discount profile cache read failed", "user_id", userID, "err", err)
	} else if raw != "" {
		var profile DiscountProfile
		if err := json.Unmarshal([]byte(raw), &profile); err == nil {
			return profile, nil
		}
	}

	profile, err := LoadDiscountProfile(db, userID, now)
	if err != nil {
		return profile, err
	}
	if data, err := json.Marshal(profile); err == nil {
		if err := store.Set(ctx, key, string(data), profileTTL); err != nil {
			slog.Warn("cart: discount profile cache write failed", "user_id", userID, "err", err)
		}
	}
	return profile, nil
}

// InvalidateDiscountProfile evicts a user's cached profile, e.g. after a
// checkout consumed a promo code or an admin edited group rules.
func InvalidateDiscountProfile(ctx context.Context, store cachepkg.Cache, userID string) error {
	return store.Invalidate(ctx, store.Key("discount-profile", userID))
}

// CandidatesFrom expands a discount profile into resolver candidates.
func CandidatesFrom(profile DiscountProfile) []pricing.Candidate {
	var candidates []pricing.Candidate
	if profile.PersonalPercent.IsPositive() {
		candidates = append(candidates, pricing.Candidate{
			Kind:  pricing.KindPersonal,
			Label: fmt.Sprintf("personal discount %s%%", profile.PersonalPercent),
			Value: pricing.Percent{Rate: profile.PersonalPercent},
		})
	}
	if profile.GroupPercent.IsPositive() {
		candidates = append(candidates, pricing.Candidate{
			Kind:  pricing.KindGroup,
			Label: fmt.Sprintf("customer group discount %s%%", profile.GroupPercent),
			Value: pricing.Percent{Rate: profile.GroupPercent},
		})
	}
	for _, rule := range profile.Rules {
		ruleID := rule.ID
		cand := pricing.Candidate{
			Kind:          pricing.KindGroup,
			Label:         rule.Name,
			MinCartAmount: rule.MinCartAmount,
			CategoryIDs:   rule.CategoryIDs,
			BrandIDs:      rule.BrandIDs,
			RuleID:        &ruleID,
		}
		switch {
		case rule.Percent != nil:
			cand.Value = pricing.Percent{Rate: *rule.Percent, MaxAmount: rule.MaxDiscountAmount}
		case rule.FixedAmount != nil:
			cand.Value = pricing.Fixed{Amount: *rule.FixedAmount, MaxAmount: rule.MaxDiscountAmount}
		default:
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates
}
