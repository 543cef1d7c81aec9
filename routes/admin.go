package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/andrewyakovlev/autoparts-api/controllers/order"
	productControllers "github.com/andrewyakovlev/autoparts-api/controllers/product"
	promoControllers "github.com/andrewyakovlev/autoparts-api/controllers/promo"
	userControllers "github.com/andrewyakovlev/autoparts-api/controllers/user"
	"github.com/andrewyakovlev/autoparts-api/middleware"
	"github.com/andrewyakovlev/autoparts-api/notify"
)

// SetupAdminRoutes registers the "/admin/*" endpoints. Requires API-key
// middleware.
func SetupAdminRoutes(r *gin.Engine, db *gorm.DB, hub *notify.Hub) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey)
	{
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.GetAllOrdersHandler(db))
			orderAdmin.GET("/export-excel", orderControllers.ExportOrdersToExcel(db))
			orderAdmin.GET("/ws", hub.Handler) // real-time order feed
			orderAdmin.GET("/:orderID", orderControllers.GetOrderByIDHandler(db))
			orderAdmin.PUT("/:orderID/status", orderControllers.UpdateOrderStatusHandler(db, hub))
		}

		promoAdmin := adminGroup.Group("/promos")
		{
			promoAdmin.POST("", promoControllers.CreatePromoHandler(db))
			promoAdmin.DELETE("/:code", promoControllers.DeactivatePromoHandler(db))
		}

		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.POST("", productControllers.CreateProduct(db))
			productAdmin.PUT("/:id", productControllers.UpdateProduct(db))
			productAdmin.DELETE("/:id", productControllers.DeleteProduct(db))
			productAdmin.POST("/import-excel", productControllers.ImportProductsFromExcel(db))
			productAdmin.GET("/export-excel", productControllers.ExportProductsToExcel(db))
		}

		adminGroup.POST("/categories", productControllers.CreateCategory(db))
		adminGroup.DELETE("/categories/:id", productControllers.DeleteCategory(db))
		adminGroup.POST("/brands", productControllers.CreateBrand(db))

		userAdmin := adminGroup.Group("/users")
		{
			userAdmin.GET("", userControllers.GetAllUsers(db))
			userAdmin.PUT("/:id/discounts", userControllers.SetDiscountStanding(db))
		}
	}
}
