package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	cachepkg "github.com/andrewyakovlev/autoparts-api/cache"
	orderControllers "github.com/andrewyakovlev/autoparts-api/controllers/order"
	"github.com/andrewyakovlev/autoparts-api/models"
	"github.com/andrewyakovlev/autoparts-api/notify"
	"github.com/andrewyakovlev/autoparts-api/routes"
	"github.com/andrewyakovlev/autoparts-api/telemetry"
)

func main() {
	log.Println("Starting application...")

	// Load environment variables
	_ = godotenv.Load()

	telemetry.InitLogger()

	// Init DB
	db := initDatabase()

	// Auto-migrate all tables
	if err := db.AutoMigrate(
		&models.User{},
		&models.CustomerGroup{},
		&models.GroupDiscountRule{},
		&models.Brand{},
		&models.Category{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.OrderStatus{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusLog{},
		&models.PromoCode{},
		&models.PromoCodeUsage{},
		&models.DeliveryMethod{},
		&models.PaymentMethod{},
	); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
	if err := models.SeedOrderStatuses(db); err != nil {
		log.Fatalf("Status seed failed: %v", err)
	}

	// Cache: redis when configured, in-process otherwise
	var store cachepkg.Cache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		store = cachepkg.NewRedisCache(addr, "autoparts-api")
	} else {
		store = cachepkg.NewMemory()
	}

	hub := notify.NewHub()

	minOrder := decimal.Zero
	if raw := os.Getenv("MIN_ORDER_AMOUNT"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			log.Fatalf("Invalid MIN_ORDER_AMOUNT: %v", err)
		}
		minOrder = parsed
	}
	deps := orderControllers.Deps{
		Cache:          store,
		Hub:            hub,
		MinOrderAmount: minOrder,
	}

	// Gin setup
	r := gin.Default()
	orderControllers.RegisterCheckoutValidation()

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup routes
	routes.SetupRoutes(r, db, store, hub, deps)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initDatabase sets up the GORM DB connection
func initDatabase() *gorm.DB {
	cfg := &gorm.Config{TranslateError: true}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := gorm.Open(postgres.Open(databaseURL), cfg)
		if err != nil {
			log.Fatalf("DB connection failed: %v", err)
		}
		return db
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, password, dbname, port,
	)

	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		log.Fatalf("Failed to connect DB: %v", err)
	}
	return db
}
