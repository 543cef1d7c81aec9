package productControllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/models"
)

// GetProducts lists the catalog with filtering, sorting and pagination.
// GET /products?search=&category_id=&brand_id=&min_price=&max_price=&in_stock=&sort_by=&order=&page=&page_size=
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		search := c.Query("search")
		categoryID := c.Query("category_id")
		brandID := c.Query("brand_id")
		minPriceStr := c.Query("min_price")
		maxPriceStr := c.Query("max_price")
		inStock := c.Query("in_stock")
		sortBy := c.DefaultQuery("sort_by", "created_at")
		sortOrder := strings.ToLower(c.DefaultQuery("order", "desc"))
		if sortOrder != "asc" && sortOrder != "desc" {
			sortOrder = "desc"
		}

		query := db.Model(&models.Product{}).
			Preload("Categories").
			Preload("Brand").
			Where("is_active = ?", true)

		if search != "" {
			like := "%" + search + "%"
			query = query.Where("name ILIKE ? OR sku ILIKE ?", like, like)
		}
		if categoryID != "" {
			query = query.
				Joins("JOIN product_categories pc ON pc.product_id = products.id").
				Where("pc.category_id = ?", categoryID)
		}
		if brandID != "" {
			query = query.Where("brand_id = ?", brandID)
		}
		if minPriceStr != "" {
			if mp, err := decimal.NewFromString(minPriceStr); err == nil {
				query = query.Where("price >= ?", mp)
			}
		}
		if maxPriceStr != "" {
			if mp, err := decimal.NewFromString(maxPriceStr); err == nil {
				query = query.Where("price <= ?", mp)
			}
		}
		if inStock == "true" {
			query = query.Where("stock > 0")
		}

		switch sortBy {
		case "price", "name", "stock", "created_at":
		default:
			sortBy = "created_at"
		}
		query = query.Order(sortBy + " " + sortOrder)

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "30"))
		if page < 1 {
			page = 1
		}
		if pageSize < 1 || pageSize > 100 {
			pageSize = 30
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}

		var products []models.Product
		if err := query.Limit(pageSize).Offset((page - 1) * pageSize).Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"products":  products,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		})
	}
}
