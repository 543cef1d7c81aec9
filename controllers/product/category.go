package productControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/apperr"
	"github.com/andrewyakovlev/autoparts-api/models"
)

type CategoryRequest struct {
	Name     string `json:"name" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

// POST /admin/categories
func CreateCategory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Validation("invalid category payload: %v", err))
			return
		}
		if req.ParentID != nil {
			var parent models.Category
			if err := db.First(&parent, "id = ?", *req.ParentID).Error; err != nil {
				apperr.Respond(c, apperr.Validation("parent category %d does not exist", *req.ParentID))
				return
			}
		}

		category := models.Category{Name: req.Name, ParentID: req.ParentID}
		if err := db.Create(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				apperr.Respond(c, apperr.Conflict("category %s already exists", req.Name))
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

// GET /products/categories
func GetAllCategories(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var categories []models.Category
		if err := db.Order("name asc").Find(&categories).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// DELETE /admin/categories/:id
//
// Products keep existing; only the grouping and any discount rule
// restrictions pointing at it lose the reference.
func DeleteCategory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var category models.Category
		if err := db.First(&category, "id = ?", c.Param("id")).Error; err != nil {
			apperr.Respond(c, apperr.NotFound("category %s not found", c.Param("id")))
			return
		}

		tx := db.Begin()
		if tx.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
			return
		}
		if err := tx.Model(&category).Association("Products").Clear(); err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear product associations"})
			return
		}
		if err := tx.Delete(&category).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
			return
		}
		if err := tx.Commit().Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit category deletion"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
	}
}

type BrandRequest struct {
	Name string `json:"name" binding:"required"`
}

// POST /admin/brands
func CreateBrand(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BrandRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Validation("invalid brand payload: %v", err))
			return
		}
		brand := models.Brand{Name: req.Name}
		if err := db.Create(&brand).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				apperr.Respond(c, apperr.Conflict("brand %s already exists", req.Name))
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create brand"})
			return
		}
		c.JSON(http.StatusCreated, brand)
	}
}

// GET /products/brands
func GetAllBrands(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var brands []models.Brand
		if err := db.Order("name asc").Find(&brands).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch brands"})
			return
		}
		c.JSON(http.StatusOK, brands)
	}
}
