package orderControllers

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// In-memory SQLite gives every connection its own database; pin the pool
	// to a single connection so all queries see the same one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
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
	))
	require.NoError(t, models.SeedOrderStatuses(db))
	return db
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func seedUser(t *testing.T, db *gorm.DB, id string) models.User {
	t.Helper()
	user := models.User{ID: id, Email: id + "@example.com", Name: "Test " + id, Role: models.RoleCustomer}
	require.NoError(t, db.Create(&user).Error)
	cart := models.Cart{UserID: id}
	require.NoError(t, db.Create(&cart).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64, stock int) models.Product {
	t.Helper()
	product := models.Product{
		Name:     name,
		SKU:      "SKU-" + name,
		Price:    dec(price),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func addCartItem(t *testing.T, db *gorm.DB, userID string, product models.Product, qty int) models.CartItem {
	t.Helper()
	var cart models.Cart
	require.NoError(t, db.Where("user_id = ?", userID).First(&cart).Error)
	item := models.CartItem{
		CartID:    cart.CartID,
		ProductID: &product.ID,
		UnitPrice: product.Price,
		Quantity:  qty,
		AddedAt:   time.Now(),
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func seedMethods(t *testing.T, db *gorm.DB) (models.DeliveryMethod, models.PaymentMethod) {
	t.Helper()
	delivery := models.DeliveryMethod{Name: "Courier", Price: dec(300), IsActive: true}
	require.NoError(t, db.Create(&delivery).Error)
	pay := models.PaymentMethod{Name: "Cash on delivery", Code: "cod", IsActive: true}
	require.NoError(t, db.Create(&pay).Error)
	return delivery, pay
}

func statusByCode(t *testing.T, db *gorm.DB, code string) models.OrderStatus {
	t.Helper()
	var status models.OrderStatus
	require.NoError(t, db.Where("code = ?", code).First(&status).Error)
	return status
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func checkoutReq(delivery models.DeliveryMethod, pay models.PaymentMethod) CheckoutRequest {
	return CheckoutRequest{
		DeliveryMethodID: delivery.ID,
		PaymentMethodID:  pay.ID,
		Address:          models.Address{City: "Moscow", Street: "Tverskaya 1"},
	}
}
