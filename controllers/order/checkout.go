package orderControllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/apperr"
	cachepkg "github.com/andrewyakovlev/autoparts-api/cache"
	cartControllers "github.com/andrewyakovlev/autoparts-api/controllers/cart"
	promoControllers "github.com/andrewyakovlev/autoparts-api/controllers/promo"
	"github.com/andrewyakovlev/autoparts-api/models"
	"github.com/andrewyakovlev/autoparts-api/notify"
	"github.com/andrewyakovlev/autoparts-api/payment"
	"github.com/andrewyakovlev/autoparts-api/pricing"
)

// numberRetries bounds re-derivation after a same-day order number
// collision.
const numberRetries = 3

// -------- Request Structs --------

type CheckoutRequest struct {
	DeliveryMethodID uint           `json:"delivery_method_id" binding:"required"`
	PaymentMethodID  uint           `json:"payment_method_id" binding:"required"`
	PromoCode        string         `json:"promo_code"`
	Comment          string         `json:"comment"`
	Address          models.Address `json:"address"`
}

// RegisterCheckoutValidation attaches the struct-level checkout validation
// to gin's binding validator. Called once at boot.
func RegisterCheckoutValidation() {
	if v, ok := binding.Validator.Engine().(*validatorv10.Validate); ok {
		v.RegisterStructValidation(checkoutStructValidation, CheckoutRequest{})
	}
}

// checkoutStructValidation requires a complete shipping address. Field tags
// cannot express the city+street pairing, hence the struct-level rule.
func checkoutStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CheckoutRequest)
	if req.Address.City == "" || req.Address.Street == "" {
		sl.ReportError(req.Address, "address", "Address", "address_complete", "shipping address must include city and street")
	}
}

type CheckoutResult struct {
	Order      models.Order `json:"order"`
	PaymentURL string       `json:"payment_url,omitempty"`
}

// Deps carries the checkout collaborators. NowFunc is injectable for tests.
type Deps struct {
	Cache          cachepkg.Cache
	Hub            *notify.Hub
	NowFunc        func() time.Time
	MinOrderAmount decimal.Decimal
}

func (d Deps) now() time.Time {
	if d.NowFunc != nil {
		return d.NowFunc()
	}
	return time.Now()
}

// Checkout turns the user's cart into a persisted order. Everything before
// the unit of work is read-only validation; the write itself is
// all-or-nothing; payment URL generation and notifications happen after
// commit and are best-effort.
func Checkout(db *gorm.DB, deps Deps, userID string, req CheckoutRequest) (*CheckoutResult, error) {
	now := deps.now()

	var cart models.Cart
	err := db.Preload("Items").
		Preload("Items.Product").
		Preload("Items.Product.Categories").
		Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && len(cart.Items) == 0) {
		return nil, apperr.Conflict("cart is empty")
	}
	if err != nil {
		return nil, err
	}

	priced := cartControllers.PriceCartItems(cart.Items)
	lines := cartControllers.AvailableLines(priced)
	if len(lines) == 0 {
		return nil, apperr.Conflict("no cart item is currently available")
	}
	subtotal := pricing.SubtotalOf(lines)

	// Discounts are re-resolved from the database here; the preview cache is
	// never trusted inside checkout.
	profile, err := cartControllers.LoadDiscountProfile(db, userID, now)
	if err != nil {
		return nil, err
	}
	candidates := cartControllers.CandidatesFrom(profile)
	if req.PromoCode != "" {
		promoCand, err := promoControllers.ValidateCode(db, req.PromoCode, userID, subtotal, now)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, promoCand)
	}
	resolution := pricing.Resolve(subtotal, lines, candidates)
	calc := pricing.Calculate(lines, resolution.Winner)

	goods := calc.Subtotal.Sub(calc.TotalDiscount)
	if goods.LessThan(deps.MinOrderAmount) {
		return nil, apperr.Conflict("order amount %s is below the minimum %s", goods, deps.MinOrderAmount)
	}

	var delivery models.DeliveryMethod
	if err := db.First(&delivery, "id = ?", req.DeliveryMethodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("delivery method %d not found", req.DeliveryMethodID)
		}
		return nil, err
	}
	if !delivery.IsActive {
		return nil, apperr.Conflict("delivery method %s is not active", delivery.Name)
	}
	if !delivery.AvailableAt(now) {
		return nil, apperr.Conflict("delivery method %s is not available at this time", delivery.Name)
	}
	shipping := delivery.ShippingFor(goods)
	total := goods.Add(shipping)

	var pay models.PaymentMethod
	if err := db.First(&pay, "id = ?", req.PaymentMethodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("payment method %d not found", req.PaymentMethodID)
		}
		return nil, err
	}
	if !pay.IsActive {
		return nil, apperr.Conflict("payment method %s is not active", pay.Name)
	}
	if !pay.Allows(total) {
		return nil, apperr.Conflict("payment method %s does not allow an order total of %s", pay.Name, total)
	}

	var orderID uint
	for attempt := 1; ; attempt++ {
		orderID, err = createOrder(db, createOrderInput{
			user:     userID,
			cart:     cart,
			priced:   priced,
			calc:     calc,
			delivery: delivery,
			pay:      pay,
			shipping: shipping,
			total:    total,
			req:      req,
			now:      now,
		})
		if err == nil {
			break
		}
		// A same-day number collision is the only duplicate-key error that
		// escapes createOrder unwrapped; re-derive and retry.
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < numberRetries {
			slog.Warn("checkout: order number collision, retrying", "attempt", attempt, "user_id", userID)
			continue
		}
		return nil, err
	}

	order, err := LoadOrderGraph(db, orderID)
	if err != nil {
		return nil, err
	}
	result := &CheckoutResult{Order: *order}

	// Post-commit, best-effort: an order exists from here on, so failures
	// below are logged and never surfaced as a failed checkout.
	if url, err := payment.URLFor(pay, *order); err != nil {
		slog.Error("checkout: payment URL generation failed",
			"order", order.OrderNumber, "err", apperr.Dependency(err, "payment url"))
	} else {
		result.PaymentURL = url
	}
	if deps.Hub != nil {
		deps.Hub.Broadcast(notify.Event{Type: "order.created", Payload: order})
	}
	if deps.Cache != nil {
		if err := cartControllers.InvalidateDiscountProfile(context.Background(), deps.Cache, userID); err != nil {
			slog.Warn("checkout: cache invalidation failed", "user_id", userID, "err", err)
		}
	}
	return result, nil
}

type createOrderInput struct {
	user     string
	cart     models.Cart
	priced   []cartControllers.PricedItem
	calc     pricing.Calculation
	delivery models.DeliveryMethod
	pay      models.PaymentMethod
	shipping decimal.Decimal
	total    decimal.Decimal
	req      CheckoutRequest
	now      time.Time
}

// createOrder is the atomic write: order, items, stock decrements, first
// status log entry, promo usage and cart clearing commit together or not at
// all. The unit of work is explicit: tx is passed through every step and the
// commit boundary sits at the end of this function.
func createOrder(db *gorm.DB, in createOrderInput) (uint, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}

	number, err := NextOrderNumber(tx, in.now)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	var initial models.OrderStatus
	if err := tx.Where("is_initial = ?", true).First(&initial).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	order := models.Order{
		OrderNumber:      number,
		UserID:           in.user,
		StatusID:         initial.ID,
		Subtotal:         in.calc.Subtotal,
		DiscountAmount:   in.calc.TotalDiscount,
		ShippingAmount:   in.shipping,
		TotalAmount:      in.total,
		DeliveryMethodID: in.delivery.ID,
		PaymentMethodID:  in.pay.ID,
		ShippingAddress:  in.req.Address,
		Comment:          in.req.Comment,
		CreatedAt:        in.now,
	}
	if in.calc.Applied != nil && in.calc.Applied.Kind == pricing.KindPromo {
		order.PromoCodeID = in.calc.Applied.PromoID
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		// Propagated unwrapped: a duplicate here is the number collision.
		return 0, err
	}

	rows := make(map[uint]pricing.ItemCalculation, len(in.calc.Items))
	for _, row := range in.calc.Items {
		rows[row.Item.ID] = row
	}
	for _, p := range in.priced {
		if !p.Available {
			continue
		}
		row, ok := rows[p.CartItem.ID]
		if !ok {
			continue
		}
		item := models.OrderItem{
			OrderID:   order.ID,
			ProductID: p.CartItem.ProductID,
			Title:     p.Line.Title,
			Quantity:  p.CartItem.Quantity,
			UnitPrice: p.CartItem.UnitPrice,
			Total:     row.Total,
		}
		if err := tx.Create(&item).Error; err != nil {
			tx.Rollback()
			return 0, err
		}
		if p.CartItem.ProductID != nil {
			// Atomic decrement-and-check: the WHERE guard makes oversell
			// impossible under concurrent checkouts.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", *p.CartItem.ProductID, p.CartItem.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", p.CartItem.Quantity))
			if res.Error != nil {
				tx.Rollback()
				return 0, res.Error
			}
			if res.RowsAffected == 0 {
				tx.Rollback()
				return 0, apperr.Conflict("insufficient stock for product: %s", p.Line.Title)
			}
		}
	}

	log := models.OrderStatusLog{
		OrderID:   order.ID,
		StatusID:  initial.ID,
		ActorID:   in.user,
		Comment:   "order created",
		CreatedAt: in.now,
	}
	if err := tx.Create(&log).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	if order.PromoCodeID != nil {
		usage := models.PromoCodeUsage{
			PromoCodeID: *order.PromoCodeID,
			UserID:      in.user,
			OrderID:     order.ID,
		}
		if err := tx.Create(&usage).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return 0, apperr.Conflict("promo code was already used by this customer")
			}
			return 0, err
		}
		if err := tx.Model(&models.PromoCode{}).
			Where("id = ?", *order.PromoCodeID).
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
			tx.Rollback()
			return 0, err
		}
	}

	if err := tx.Where("cart_id = ?", in.cart.CartID).Delete(&models.CartItem{}).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

// -------- Handlers --------

// POST /orders/checkout
func CheckoutHandler(db *gorm.DB, deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Validation("invalid checkout payload: %v", err))
			return
		}

		result, err := Checkout(db, deps, userID, req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}
