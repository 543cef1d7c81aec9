package orderControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/models"
)

// GET /orders/export (admin), one row per order.
func ExportOrdersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.
			Preload("User").
			Preload("Status").
			Preload("Items").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{
			"OrderNumber", "Customer", "Email", "Status",
			"Subtotal", "Discount", "Shipping", "Total",
			"Items", "CreatedAt",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, o := range orders {
			row := sheet.AddRow()
			row.AddCell().SetValue(o.OrderNumber)
			row.AddCell().SetValue(o.User.Name)
			row.AddCell().SetValue(o.User.Email)
			row.AddCell().SetValue(o.Status.Name)
			row.AddCell().SetValue(o.Subtotal.StringFixed(2))
			row.AddCell().SetValue(o.DiscountAmount.StringFixed(2))
			row.AddCell().SetValue(o.ShippingAmount.StringFixed(2))
			row.AddCell().SetValue(o.TotalAmount.StringFixed(2))
			row.AddCell().SetValue(len(o.Items))
			row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
		}

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}
