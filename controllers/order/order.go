package orderControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/apperr"
	"github.com/andrewyakovlev/autoparts-api/models"
)

// LoadOrderGraph fetches an order with the full association graph the API
// returns to callers.
func LoadOrderGraph(db *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := db.
		Preload("User").
		Preload("Status").
		Preload("Items").
		Preload("Items.Product").
		Preload("StatusLogs").
		Preload("StatusLogs.Status").
		Preload("DeliveryMethod").
		Preload("PaymentMethod").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order %d not found", orderID)
		}
		return nil, err
	}
	return &order, nil
}

// -------- Handlers --------

// GET /orders (admin)
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.
			Preload("User").
			Preload("Status").
			Preload("Items").
			Preload("Items.Product").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /orders/my
func GetUserOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		var orders []models.Order
		if err := db.
			Where("user_id = ?", userID).
			Preload("Status").
			Preload("Items").
			Preload("Items.Product").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /orders/:orderID accepts a numeric id or an order number.
func GetOrderByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("orderID")
		if id == "" {
			apperr.Respond(c, apperr.Validation("orderID is required"))
			return
		}

		var order models.Order
		err := db.
			Preload("User").
			Preload("Status").
			Preload("Items").
			Preload("Items.Product").
			Preload("StatusLogs").
			Preload("StatusLogs.Status").
			Where("id = ? OR order_number = ?", id, id).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.NotFound("order not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
