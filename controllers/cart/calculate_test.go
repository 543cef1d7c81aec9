package cartControllers

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	cachepkg "github.com/andrewyakovlev/autoparts-api/cache"
	"github.com/andrewyakovlev/autoparts-api/models"
)

var previewNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

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
		&models.PromoCode{},
		&models.PromoCodeUsage{},
		&models.DeliveryMethod{},
	))
	return db
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func seedCartWith(t *testing.T, db *gorm.DB, userID string, products ...models.Product) {
	t.Helper()
	user := models.User{ID: userID, Email: userID + "@example.com", Name: "Test " + userID, Role: models.RoleCustomer}
	require.NoError(t, db.Create(&user).Error)
	cart := models.Cart{UserID: userID}
	require.NoError(t, db.Create(&cart).Error)
	for i := range products {
		require.NoError(t, db.Create(&products[i]).Error)
		item := models.CartItem{
			CartID:    cart.CartID,
			ProductID: &products[i].ID,
			UnitPrice: products[i].Price,
			Quantity:  1,
			AddedAt:   time.Now(),
		}
		require.NoError(t, db.Create(&item).Error)
	}
}

func TestCalculateCartAppliesBestDiscount(t *testing.T) {
	db := newTestDB(t)
	seedCartWith(t, db, "u1", models.Product{
		Name: "brake-disc", SKU: "BD-1", Price: dec(4000), Stock: 5, IsActive: true,
	})
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", "u1").
		Update("personal_percent", dec(5)).Error)

	promo := models.PromoCode{Code: "SAVE50", Percent: decPtr(50), IsActive: true}
	require.NoError(t, db.Create(&promo).Error)

	result, err := CalculateCart(context.Background(), db, cachepkg.NewMemory(), "u1",
		CalculateRequest{PromoCode: "SAVE50"}, previewNow)

	require.NoError(t, err)
	// The personal discount outranks the larger promo.
	require.NotNil(t, result.AppliedDiscount)
	assert.Equal(t, "personal", result.AppliedDiscount.Kind)
	assert.True(t, result.AppliedDiscount.Amount.Equal(dec(200)))
	assert.True(t, result.TotalDiscount.Equal(dec(200)))
	assert.True(t, result.Total.Equal(dec(3800)))

	require.Len(t, result.AvailableDiscounts, 1)
	assert.Equal(t, "promo", result.AvailableDiscounts[0].Kind)
	assert.NotEmpty(t, result.AvailableDiscounts[0].Reason)
}

func TestCalculateCartWarnsAboutUnavailableItems(t *testing.T) {
	db := newTestDB(t)
	seedCartWith(t, db, "u1",
		models.Product{Name: "mirror", SKU: "M-1", Price: dec(1500), Stock: 5, IsActive: true},
		models.Product{Name: "bumper", SKU: "B-1", Price: dec(9000), Stock: 0, IsActive: true},
	)

	result, err := CalculateCart(context.Background(), db, cachepkg.NewMemory(), "u1",
		CalculateRequest{}, previewNow)

	require.NoError(t, err)
	assert.True(t, result.Subtotal.Equal(dec(1500)))
	require.Len(t, result.Items, 2)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "bumper")

	var unavailable *ItemRow
	for i := range result.Items {
		if !result.Items[i].Available {
			unavailable = &result.Items[i]
		}
	}
	require.NotNil(t, unavailable)
	assert.Equal(t, "bumper", unavailable.Title)
	assert.Contains(t, unavailable.Reason, "left in stock")
}

func TestCalculateCartEmptyCart(t *testing.T) {
	db := newTestDB(t)
	user := models.User{ID: "u1", Email: "u1@example.com", Name: "Test", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&user).Error)

	result, err := CalculateCart(context.Background(), db, cachepkg.NewMemory(), "u1",
		CalculateRequest{}, previewNow)

	require.NoError(t, err)
	assert.True(t, result.Subtotal.IsZero())
	assert.True(t, result.Total.IsZero())
	assert.Empty(t, result.Items)
}

func TestCalculateCartShippingFromDeliveryMethod(t *testing.T) {
	db := newTestDB(t)
	seedCartWith(t, db, "u1", models.Product{
		Name: "roof-rack", SKU: "R-1", Price: dec(5000), Stock: 3, IsActive: true,
	})
	method := models.DeliveryMethod{
		Name:                  "Courier",
		Price:                 dec(400),
		FreeShippingThreshold: decPtr(10000),
		IsActive:              true,
	}
	require.NoError(t, db.Create(&method).Error)

	result, err := CalculateCart(context.Background(), db, cachepkg.NewMemory(), "u1",
		CalculateRequest{DeliveryMethodID: &method.ID}, previewNow)

	require.NoError(t, err)
	assert.True(t, result.ShippingAmount.Equal(dec(400)))
	assert.True(t, result.Total.Equal(dec(5400)))
}

func TestCachedProfileServesStaleReadsWithinTTL(t *testing.T) {
	db := newTestDB(t)
	store := cachepkg.NewMemory()
	seedCartWith(t, db, "u1", models.Product{
		Name: "air-filter", SKU: "A-1", Price: dec(1000), Stock: 5, IsActive: true,
	})
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", "u1").
		Update("personal_percent", dec(10)).Error)

	first, err := CalculateCart(context.Background(), db, store, "u1", CalculateRequest{}, previewNow)
	require.NoError(t, err)
	require.True(t, first.TotalDiscount.Equal(dec(100)))

	// The profile changes in the database; the preview keeps serving the
	// cached snapshot until the TTL expires or it is invalidated.
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", "u1").
		Update("personal_percent", dec(20)).Error)

	stale, err := CalculateCart(context.Background(), db, store, "u1", CalculateRequest{}, previewNow)
	require.NoError(t, err)
	assert.True(t, stale.TotalDiscount.Equal(dec(100)))

	require.NoError(t, InvalidateDiscountProfile(context.Background(), store, "u1"))

	fresh, err := CalculateCart(context.Background(), db, store, "u1", CalculateRequest{}, previewNow)
	require.NoError(t, err)
	assert.True(t, fresh.TotalDiscount.Equal(dec(200)))
}

func TestCalculateCartDiscountUnreachableOnAdHocOnlyCart(t *testing.T) {
	db := newTestDB(t)
	user := models.User{ID: "u1", Email: "u1@example.com", Name: "Test", Role: models.RoleCustomer, PersonalPercent: dec(10)}
	require.NoError(t, db.Create(&user).Error)
	cart := models.Cart{UserID: user.ID}
	require.NoError(t, db.Create(&cart).Error)
	offer := models.CartItem{
		CartID:     cart.CartID,
		OfferTitle: "custom manifold from chat",
		UnitPrice:  dec(5000),
		Quantity:   1,
		AddedAt:    time.Now(),
	}
	require.NoError(t, db.Create(&offer).Error)

	result, err := CalculateCart(context.Background(), db, cachepkg.NewMemory(), "u1",
		CalculateRequest{}, previewNow)

	require.NoError(t, err)
	assert.Nil(t, result.AppliedDiscount)
	assert.True(t, result.TotalDiscount.IsZero())
	assert.True(t, result.Total.Equal(dec(5000)))

	// The personal discount won resolution but reached nothing; the result
	// still explains why it is absent.
	require.Len(t, result.AvailableDiscounts, 1)
	assert.Equal(t, "personal", result.AvailableDiscounts[0].Kind)
	assert.True(t, result.AvailableDiscounts[0].Amount.IsZero())
	assert.Equal(t, "no cart item is eligible for this discount", result.AvailableDiscounts[0].Reason)

	require.Len(t, result.Items, 1)
	assert.True(t, result.Items[0].DiscountSkipped)
	assert.NotEmpty(t, result.Items[0].Reason)
}

func TestCalculateCartGroupRuleWithCategoryRestriction(t *testing.T) {
	db := newTestDB(t)
	category := models.Category{Name: "Brakes"}
	require.NoError(t, db.Create(&category).Error)
	group := models.CustomerGroup{Name: "garage", BasePercent: decimal.Zero}
	require.NoError(t, db.Create(&group).Error)
	rule := models.GroupDiscountRule{
		CustomerGroupID: group.ID,
		Name:            "brakes 20%",
		Percent:         decPtr(20),
		Categories:      []models.Category{category},
		IsActive:        true,
	}
	require.NoError(t, db.Create(&rule).Error)

	seedCartWith(t, db, "u1",
		models.Product{Name: "brake-pad", SKU: "BP-1", Price: dec(2000), Stock: 5, IsActive: true, Categories: []models.Category{category}},
		models.Product{Name: "floor-mat", SKU: "FM-1", Price: dec(800), Stock: 5, IsActive: true},
	)
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", "u1").
		Update("customer_group_id", group.ID).Error)

	result, err := CalculateCart(context.Background(), db, cachepkg.NewMemory(), "u1",
		CalculateRequest{}, previewNow)

	require.NoError(t, err)
	// 20% on the brake pad only; the mat is outside the rule's categories.
	require.NotNil(t, result.AppliedDiscount)
	assert.True(t, result.TotalDiscount.Equal(dec(400)))
	assert.True(t, result.Total.Equal(dec(2400)))

	for _, row := range result.Items {
		switch row.Title {
		case "brake-pad":
			assert.True(t, row.DiscountAmount.Equal(dec(400)))
		case "floor-mat":
			assert.True(t, row.DiscountAmount.IsZero())
		}
	}
}
