package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	cachepkg "github.com/andrewyakovlev/autoparts-api/cache"
	cartControllers "github.com/andrewyakovlev/autoparts-api/controllers/cart"
	orderControllers "github.com/andrewyakovlev/autoparts-api/controllers/order"
	userControllers "github.com/andrewyakovlev/autoparts-api/controllers/user"
	"github.com/andrewyakovlev/autoparts-api/middleware"
	"github.com/andrewyakovlev/autoparts-api/notify"
)

// SetupUserRoutes registers the "/user/*" endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, db *gorm.DB, store cachepkg.Cache, hub *notify.Hub, deps orderControllers.Deps) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken)
	{
		userGroup.GET("", userControllers.GetUser(db))
		userGroup.PUT("", userControllers.UpdateUser(db))

		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("/", cartControllers.GetUserCart(db))
			cartGroup.POST("/", cartControllers.UpdateCartItem(db))
			cartGroup.POST("/calculate", cartControllers.CalculateCartHandler(db, store))
			cartGroup.DELETE("/:item_id", cartControllers.DeleteCartItem(db))
			cartGroup.DELETE("/", cartControllers.ClearUserCart(db))
		}

		orderGroup := userGroup.Group("/orders")
		{
			orderGroup.POST("/checkout", orderControllers.CheckoutHandler(db, deps))
			orderGroup.GET("/", orderControllers.GetUserOrdersHandler(db))
			orderGroup.GET("/:orderID", orderControllers.GetOrderByIDHandler(db))
			orderGroup.POST("/:orderID/cancel", orderControllers.CancelOrderHandler(db, hub))
		}
	}
}
