package productControllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/apperr"
	"github.com/andrewyakovlev/autoparts-api/models"
)

// ImportProductsFromExcel bulk-upserts catalog rows from a supplier price
// list. Rows are matched by SKU: known SKUs are updated, new ones created.
// Expected columns: SKU, Name, Price, Stock, BrandID, CategoryIDs, IsActive.
// POST /admin/products/import-excel
func ImportProductsFromExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			apperr.Respond(c, apperr.Validation("Excel file is required"))
			return
		}
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open Excel file"})
			return
		}
		defer file.Close()

		xlFile, err := xlsx.OpenReaderAt(file, header.Size)
		if err != nil {
			apperr.Respond(c, apperr.Validation("failed to parse Excel file: %v", err))
			return
		}
		if len(xlFile.Sheets) == 0 || xlFile.Sheets[0].MaxRow < 2 {
			apperr.Respond(c, apperr.Validation("Excel file is empty or missing header row"))
			return
		}

		sheet := xlFile.Sheets[0]
		created, updated, skipped := 0, 0, 0

		for i := 1; i < sheet.MaxRow; i++ {
			row := sheet.Rows[i]
			get := func(index int) string {
				if index < len(row.Cells) {
					return strings.TrimSpace(row.Cells[index].String())
				}
				return ""
			}

			sku := get(0)
			name := get(1)
			price, priceErr := decimal.NewFromString(get(2))
			stock, _ := strconv.Atoi(get(3))
			if sku == "" || name == "" || priceErr != nil || !price.IsPositive() {
				skipped++
				continue
			}

			var brandID *uint
			if v := get(4); v != "" {
				if id, err := strconv.ParseUint(v, 10, 32); err == nil {
					b := uint(id)
					brandID = &b
				}
			}

			var categories []models.Category
			for _, part := range strings.Split(get(5), ",") {
				if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
					categories = append(categories, models.Category{ID: uint(id)})
				}
			}

			isActive := true
			if v := strings.ToLower(get(6)); v == "false" || v == "0" {
				isActive = false
			}

			var existing models.Product
			err := db.Preload("Categories").Where("sku = ?", sku).First(&existing).Error
			if err == nil {
				existing.Name = name
				existing.Price = price
				existing.Stock = stock
				existing.BrandID = brandID
				existing.IsActive = isActive
				if err := db.Model(&existing).Association("Categories").Replace(categories); err != nil {
					skipped++
					continue
				}
				if err := db.Save(&existing).Error; err != nil {
					skipped++
					continue
				}
				updated++
				continue
			}

			product := models.Product{
				Name:       name,
				SKU:        sku,
				Price:      price,
				Stock:      stock,
				BrandID:    brandID,
				Categories: categories,
				IsActive:   isActive,
			}
			if err := db.Create(&product).Error; err != nil {
				skipped++
				continue
			}
			created++
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": created,
			"updated_count": updated,
			"skipped_count": skipped,
		})
	}
}
