package cartControllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/apperr"
	cachepkg "github.com/andrewyakovlev/autoparts-api/cache"
	promoControllers "github.com/andrewyakovlev/autoparts-api/controllers/promo"
	"github.com/andrewyakovlev/autoparts-api/models"
	"github.com/andrewyakovlev/autoparts-api/pricing"
)

type CalculateRequest struct {
	PromoCode        string `json:"promo_code"`
	DeliveryMethodID *uint  `json:"delivery_method_id"`
}

type ItemRow struct {
	ItemID          uint            `json:"item_id"`
	Title           string          `json:"title"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Total           decimal.Decimal `json:"total"`
	Available       bool            `json:"available"`
	DiscountSkipped bool            `json:"discount_skipped,omitempty"`
	Reason          string          `json:"reason,omitempty"`
}

type DiscountInfo struct {
	Kind      string          `json:"kind"`
	Label     string          `json:"label"`
	Amount    decimal.Decimal `json:"amount"`
	PromoCode string          `json:"promo_code,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

type CartCalculationResult struct {
	Items              []ItemRow       `json:"items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	AppliedDiscount    *DiscountInfo   `json:"applied_discount,omitempty"`
	TotalDiscount      decimal.Decimal `json:"total_discount"`
	ShippingAmount     decimal.Decimal `json:"shipping_amount"`
	Total              decimal.Decimal `json:"total"`
	AvailableDiscounts []DiscountInfo  `json:"available_discounts"`
	Warnings           []string        `json:"warnings"`
}

// CalculateCart prices the user's cart for preview: availability, discount
// resolution, per-item computation and optional shipping. Profile reads go
// through the short-lived cache; nothing is written.
func CalculateCart(ctx context.Context, db *gorm.DB, store cachepkg.Cache, userID string, req CalculateRequest, now time.Time) (*CartCalculationResult, error) {
	var cart models.Cart
	err := db.Preload("Items").
		Preload("Items.Product").
		Preload("Items.Product.Categories").
		Where("user_id = ?", userID).First(&cart).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	priced := PriceCartItems(cart.Items)
	lines := AvailableLines(priced)
	subtotal := pricing.SubtotalOf(lines)

	profile, err := CachedDiscountProfile(ctx, db, store, userID, now)
	if err != nil {
		return nil, err
	}
	candidates := CandidatesFrom(profile)
	if req.PromoCode != "" {
		promoCand, err := promoControllers.ValidateCode(db, req.PromoCode, userID, subtotal, now)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, promoCand)
	}

	resolution := pricing.Resolve(subtotal, lines, candidates)
	calc := pricing.Calculate(lines, resolution.Winner)

	result := &CartCalculationResult{
		Subtotal:       calc.Subtotal,
		TotalDiscount:  calc.TotalDiscount,
		ShippingAmount: decimal.Zero,
	}

	rows := make(map[uint]pricing.ItemCalculation, len(calc.Items))
	for _, row := range calc.Items {
		rows[row.Item.ID] = row
	}
	for _, p := range priced {
		item := ItemRow{
			ItemID:    p.CartItem.ID,
			Title:     p.Line.Title,
			UnitPrice: p.CartItem.UnitPrice,
			Quantity:  p.CartItem.Quantity,
			Available: p.Available,
		}
		if !p.Available {
			item.Title = itemTitle(p.CartItem)
			item.Reason = p.Reason
			result.Warnings = append(result.Warnings, p.Reason)
		} else if row, ok := rows[p.CartItem.ID]; ok {
			item.Subtotal = row.Subtotal
			item.DiscountAmount = row.DiscountAmount
			item.Total = row.Total
			item.DiscountSkipped = row.DiscountSkipped
			item.Reason = row.SkipReason
		}
		result.Items = append(result.Items, item)
	}

	if calc.Applied != nil {
		result.AppliedDiscount = &DiscountInfo{
			Kind:      calc.Applied.Kind.String(),
			Label:     calc.Applied.Label,
			Amount:    calc.Applied.TotalAmount,
			PromoCode: calc.Applied.PromoCode,
		}
	}
	for _, other := range resolution.Others {
		info := DiscountInfo{
			Kind:   other.Kind.String(),
			Label:  other.Label,
			Reason: other.Reason,
		}
		if other.Value != nil {
			info.Amount = other.Value.Realized(subtotal)
		}
		if other.Rejected {
			info.Amount = decimal.Zero
		}
		info.PromoCode = other.PromoCode
		result.AvailableDiscounts = append(result.AvailableDiscounts, info)
	}

	// A winner that reached no item (every line ad-hoc, or none matching its
	// restriction) realizes nothing; report it rather than dropping it.
	if resolution.Winner != nil && calc.Applied == nil {
		result.AvailableDiscounts = append(result.AvailableDiscounts, DiscountInfo{
			Kind:      resolution.Winner.Kind.String(),
			Label:     resolution.Winner.Label,
			Amount:    decimal.Zero,
			PromoCode: resolution.Winner.PromoCode,
			Reason:    "no cart item is eligible for this discount",
		})
	}

	goods := calc.Subtotal.Sub(calc.TotalDiscount)
	if req.DeliveryMethodID != nil {
		var method models.DeliveryMethod
		if err := db.First(&method, "id = ?", *req.DeliveryMethodID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("delivery method %d not found", *req.DeliveryMethodID)
			}
			return nil, err
		}
		result.ShippingAmount = method.ShippingFor(goods)
	}
	result.Total = goods.Add(result.ShippingAmount)
	return result, nil
}

func itemTitle(it models.CartItem) string {
	if it.ProductID == nil {
		return it.OfferTitle
	}
	if it.Product != nil {
		return it.Product.Name
	}
	return "unavailable product"
}

// POST /user/cart/calculate
func CalculateCartHandler(db *gorm.DB, store cachepkg.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		// Empty body means "calculate with no promo code".
		var req CalculateRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			apperr.Respond(c, apperr.Validation("invalid input: %v", err))
			return
		}

		result, err := CalculateCart(c.Request.Context(), db, store, userID, req, time.Now())
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
