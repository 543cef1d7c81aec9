package productControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/apperr"
	"github.com/andrewyakovlev/autoparts-api/models"
)

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	SKU         string          `json:"sku" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock"`
	BrandID     *uint           `json:"brand_id"`
	CategoryIDs []uint          `json:"category_ids"`
	IsActive    *bool           `json:"is_active"`
}

// CreateProduct registers a new catalog entry (staff).
// POST /admin/products
func CreateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Validation("invalid product payload: %v", err))
			return
		}
		if !req.Price.IsPositive() {
			apperr.Respond(c, apperr.Validation("price must be positive"))
			return
		}
		if req.Stock < 0 {
			apperr.Respond(c, apperr.Validation("stock must not be negative"))
			return
		}

		var categories []models.Category
		if len(req.CategoryIDs) > 0 {
			if err := db.Where("id IN ?", req.CategoryIDs).Find(&categories).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
				return
			}
			if len(categories) != len(req.CategoryIDs) {
				apperr.Respond(c, apperr.Validation("one or more category IDs do not exist"))
				return
			}
		}

		product := models.Product{
			Name:       req.Name,
			SKU:        req.SKU,
			Price:      req.Price,
			Stock:      req.Stock,
			BrandID:    req.BrandID,
			Categories: categories,
			IsActive:   true,
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}

		if err := db.Create(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				apperr.Respond(c, apperr.Conflict("a product with SKU %s already exists", req.SKU))
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}
