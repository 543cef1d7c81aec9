package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/auth"
	cachepkg "github.com/andrewyakovlev/autoparts-api/cache"
	orderControllers "github.com/andrewyakovlev/autoparts-api/controllers/order"
	productControllers "github.com/andrewyakovlev/autoparts-api/controllers/product"
	"github.com/andrewyakovlev/autoparts-api/notify"
)

// SetupRoutes is the single entry-point that wires up the public, user and
// admin route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, store cachepkg.Cache, hub *notify.Hub, deps orderControllers.Deps) {
	// Public routes (no auth)
	SetupPublicRoutes(r, db)

	// Customer routes (JWT-protected)
	SetupUserRoutes(r, db, store, hub, deps)

	// Staff routes (API-key-protected)
	SetupAdminRoutes(r, db, hub)
}

// SetupPublicRoutes registers account endpoints and the browsable catalog.
func SetupPublicRoutes(r *gin.Engine, db *gorm.DB) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", auth.RegisterHandler(db))
		authGroup.POST("/login", auth.LoginHandler(db))
	}

	productGroup := r.Group("/products")
	{
		productGroup.GET("", productControllers.GetProducts(db))
		productGroup.GET("/categories", productControllers.GetAllCategories(db))
		productGroup.GET("/brands", productControllers.GetAllBrands(db))
		productGroup.GET("/:id", productControllers.GetProductByID(db))
	}
}
