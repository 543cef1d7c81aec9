package cartControllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/apperr"
	"github.com/andrewyakovlev/autoparts-api/models"
)

// CartItemInput adds either a catalog product (product_id) or a free-form
// chat offer (offer_title + offer_price). Exactly one of the two.
type CartItemInput struct {
	ProductID  *uint            `json:"product_id"`
	OfferTitle string           `json:"offer_title"`
	OfferPrice *decimal.Decimal `json:"offer_price"`
	Quantity   int              `json:"quantity" binding:"required,min=1"`
}

func (in CartItemInput) validate() error {
	hasProduct := in.ProductID != nil
	hasOffer := in.OfferTitle != "" || in.OfferPrice != nil
	if hasProduct == hasOffer {
		return apperr.Validation("item must reference either a product or an offer, not both")
	}
	if hasOffer {
		if in.OfferTitle == "" || in.OfferPrice == nil {
			return apperr.Validation("offer items require both offer_title and offer_price")
		}
		if in.OfferPrice.IsNegative() {
			return apperr.Validation("offer_price must not be negative")
		}
	}
	return nil
}

func userCart(db *gorm.DB, userID string) (models.Cart, error) {
	var cart models.Cart
	err := db.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID}
		err = db.Create(&cart).Error
	}
	return cart, err
}

// POST /user/cart
func UpdateCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		var input CartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, apperr.Validation("invalid input: %v", err))
			return
		}
		if err := input.validate(); err != nil {
			apperr.Respond(c, err)
			return
		}

		cart, err := userCart(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user cart"})
			return
		}

		// Ad-hoc offers always append a new line.
		if input.ProductID == nil {
			item := models.CartItem{
				CartID:     cart.CartID,
				OfferTitle: input.OfferTitle,
				UnitPrice:  *input.OfferPrice,
				Quantity:   input.Quantity,
				AddedAt:    time.Now(),
			}
			if err := db.Create(&item).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
				return
			}
			c.JSON(http.StatusCreated, item)
			return
		}

		var product models.Product
		if err := db.First(&product, "id = ?", *input.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.NotFound("product does not exist"))
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate product"})
			return
		}

		var item models.CartItem
		err = db.Where("cart_id = ? AND product_id = ?", cart.CartID, *input.ProductID).First(&item).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Price snapshot is taken now, not at checkout.
				newItem := models.CartItem{
					CartID:    cart.CartID,
					ProductID: &product.ID,
					UnitPrice: product.Price,
					Quantity:  input.Quantity,
					AddedAt:   time.Now(),
				}
				if err := db.Create(&newItem).Error; err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
					return
				}
				c.JSON(http.StatusCreated, newItem)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart item"})
			return
		}

		// Quantity changes keep the original price snapshot.
		item.Quantity = input.Quantity
		item.AddedAt = time.Now()
		if err := db.Save(&item).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// DELETE /user/cart/:item_id
func DeleteCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)
		itemID := c.Param("item_id")

		var cart models.Cart
		if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			apperr.Respond(c, apperr.NotFound("user cart not found"))
			return
		}

		result := db.Where("cart_id = ? AND id = ?", cart.CartID, itemID).Delete(&models.CartItem{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
			return
		}
		if result.RowsAffected == 0 {
			apperr.Respond(c, apperr.NotFound("cart item not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart item deleted"})
	}
}

// DELETE /user/cart
func ClearUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		var cart models.Cart
		if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user cart"})
			return
		}
		if err := db.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}

// GET /user/cart
func GetUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		var cart models.Cart
		if err := db.Preload("Items").Preload("Items.Product").Where("user_id = ?", userID).First(&cart).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		c.JSON(http.StatusOK, cart.Items)
	}
}
