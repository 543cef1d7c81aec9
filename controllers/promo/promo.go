package promoControllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/apperr"
	"github.com/andrewyakovlev/autoparts-api/models"
	"github.com/andrewyakovlev/autoparts-api/pricing"
)

// ValidateCode turns a raw promo code into a discount candidate. A failed
// check comes back as a rejected candidate carrying the reason; it never
// aborts the calling calculation. The returned candidate is rebuilt from the
// database on every call; checkout must not reuse a cached preview.
func ValidateCode(db *gorm.DB, code, userID string, cartAmount decimal.Decimal, now time.Time) (pricing.Candidate, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	cand := pricing.Candidate{
		Kind:      pricing.KindPromo,
		Label:     "promo code " + code,
		PromoCode: code,
	}

	var promo models.PromoCode
	if err := db.Where("code = ?", code).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cand.Rejected = true
			cand.Reason = "promo code not found"
			return cand, nil
		}
		return cand, err
	}
	cand.PromoID = &promo.ID

	reject := func(reason string) (pricing.Candidate, error) {
		cand.Rejected = true
		cand.Reason = reason
		return cand, nil
	}

	if !promo.IsActive {
		return reject("promo code is no longer active")
	}
	if promo.StartsAt != nil && now.Before(*promo.StartsAt) {
		return reject("promo code is not active yet")
	}
	if promo.EndsAt != nil && now.After(*promo.EndsAt) {
		return reject("promo code has expired")
	}
	if promo.UsageLimit > 0 && promo.UsageCount >= promo.UsageLimit {
		return reject("promo code usage limit has been reached")
	}
	if promo.OwnerUserID != nil && *promo.OwnerUserID != userID {
		return reject("promo code belongs to another customer")
	}

	var used int64
	if err := db.Model(&models.PromoCodeUsage{}).
		Where("promo_code_id = ? AND user_id = ?", promo.ID, userID).
		Count(&used).Error; err != nil {
		return cand, err
	}
	if used > 0 {
		return reject("promo code was already used by this customer")
	}
	if promo.MinCartAmount != nil && cartAmount.LessThan(*promo.MinCartAmount) {
		return reject(fmt.Sprintf("cart amount %s is below the promo code minimum %s", cartAmount, promo.MinCartAmount))
	}

	switch {
	case promo.Percent != nil:
		cand.Value = pricing.Percent{Rate: *promo.Percent, MaxAmount: promo.MaxDiscountAmount}
	case promo.FixedAmount != nil:
		cand.Value = pricing.Fixed{Amount: *promo.FixedAmount, MaxAmount: promo.MaxDiscountAmount}
	default:
		return reject("promo code has no discount value configured")
	}
	cand.MinCartAmount = promo.MinCartAmount
	return cand, nil
}

// -------- Request Structs --------

type CreatePromoRequest struct {
	Code              string           `json:"code" binding:"required"`
	Percent           *decimal.Decimal `json:"percent"`
	FixedAmount       *decimal.Decimal `json:"fixed_amount"`
	MinCartAmount     *decimal.Decimal `json:"min_cart_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	StartsAt          *time.Time       `json:"starts_at"`
	EndsAt            *time.Time       `json:"ends_at"`
	UsageLimit        int              `json:"usage_limit"`
	OwnerUserID       *string          `json:"owner_user_id"`
}

// -------- Handlers --------

// CreatePromoHandler registers a new promo code (admin).
func CreatePromoHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreatePromoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Validation("invalid promo payload: %v", err))
			return
		}
		if (req.Percent == nil) == (req.FixedAmount == nil) {
			apperr.Respond(c, apperr.Validation("exactly one of percent or fixed_amount must be set"))
			return
		}
		promo := models.PromoCode{
			Code:              strings.TrimSpace(strings.ToUpper(req.Code)),
			Percent:           req.Percent,
			FixedAmount:       req.FixedAmount,
			MinCartAmount:     req.MinCartAmount,
			MaxDiscountAmount: req.MaxDiscountAmount,
			StartsAt:          req.StartsAt,
			EndsAt:            req.EndsAt,
			UsageLimit:        req.UsageLimit,
			OwnerUserID:       req.OwnerUserID,
			IsActive:          true,
		}
		if err := db.Create(&promo).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				apperr.Respond(c, apperr.Conflict("promo code %s already exists", promo.Code))
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create promo code"})
			return
		}
		c.JSON(http.StatusCreated, promo)
	}
}

// DeactivatePromoHandler switches a promo code off (admin).
func DeactivatePromoHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := strings.TrimSpace(strings.ToUpper(c.Param("code")))
		result := db.Model(&models.PromoCode{}).Where("code = ?", code).Update("is_active", false)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate promo code"})
			return
		}
		if result.RowsAffected == 0 {
			apperr.Respond(c, apperr.NotFound("promo code %s not found", code))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Promo code deactivated"})
	}
}
