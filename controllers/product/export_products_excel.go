package productControllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/models"
)

// ExportProductsToExcel streams the full catalog as an .xlsx download. The
// column layout matches what ImportProductsFromExcel expects, so an export
// can be edited and re-imported.
// GET /admin/products/export-excel
func ExportProductsToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var products []models.Product
		if err := db.Preload("Categories").Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Products")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{"SKU", "Name", "Price", "Stock", "BrandID", "CategoryIDs", "IsActive", "CreatedAt"}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, p := range products {
			row := sheet.AddRow()
			row.AddCell().SetValue(p.SKU)
			row.AddCell().SetValue(p.Name)
			row.AddCell().SetValue(p.Price.StringFixed(2))
			row.AddCell().SetValue(p.Stock)
			if p.BrandID != nil {
				row.AddCell().SetValue(*p.BrandID)
			} else {
				row.AddCell().SetValue("")
			}

			var catIDs []string
			for _, cat := range p.Categories {
				catIDs = append(catIDs, strconv.Itoa(int(cat.ID)))
			}
			row.AddCell().SetValue(strings.Join(catIDs, ","))

			row.AddCell().SetValue(p.IsActive)
			row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		}

		c.Header("Content-Disposition", "attachment; filename=products.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}
