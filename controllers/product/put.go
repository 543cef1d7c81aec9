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

// Pointer fields distinguish "not sent" from a zero value.
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	SKU         *string          `json:"sku"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	BrandID     *uint            `json:"brand_id"`
	CategoryIDs *[]uint          `json:"category_ids"`
	IsActive    *bool            `json:"is_active"`
}

// UpdateProduct applies a partial update to a catalog entry (staff).
// PUT /admin/products/:id
func UpdateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var product models.Product
		if err := db.Preload("Categories").First(&product, "id = ?", c.Param("id")).Error; err != nil {
			apperr.Respond(c, apperr.NotFound("product %s not found", c.Param("id")))
			return
		}

		var req UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Validation("invalid product payload: %v", err))
			return
		}

		if req.Name != nil {
			product.Name = *req.Name
		}
		if req.SKU != nil {
			product.SKU = *req.SKU
		}
		if req.Price != nil {
			if !req.Price.IsPositive() {
				apperr.Respond(c, apperr.Validation("price must be positive"))
				return
			}
			product.Price = *req.Price
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				apperr.Respond(c, apperr.Validation("stock must not be negative"))
				return
			}
			product.Stock = *req.Stock
		}
		if req.BrandID != nil {
			product.BrandID = req.BrandID
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}

		if req.CategoryIDs != nil {
			var categories []models.Category
			if len(*req.CategoryIDs) > 0 {
				if err := db.Where("id IN ?", *req.CategoryIDs).Find(&categories).Error; err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
					return
				}
			}
			if err := db.Model(&product).Association("Categories").Replace(categories); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update categories"})
				return
			}
		}

		if err := db.Save(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				apperr.Respond(c, apperr.Conflict("a product with SKU %s already exists", product.SKU))
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
