package orderControllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/apperr"
	"github.com/andrewyakovlev/autoparts-api/models"
)

// placeOrder runs a full checkout and returns the resulting order.
func placeOrder(t *testing.T, db *gorm.DB, userID string, product models.Product, qty int) models.Order {
	t.Helper()
	addCartItem(t, db, userID, product, qty)
	delivery, pay := seedMethods(t, db)
	result, err := Checkout(db, testDeps(), userID, checkoutReq(delivery, pay))
	require.NoError(t, err)
	return result.Order
}

func TestTransitionUpdatesStatusAndAppendsLog(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "u1")
	product := seedProduct(t, db, "clutch-kit", 8000, 5)
	order := placeOrder(t, db, user.ID, product, 1)
	processing := statusByCode(t, db, models.StatusProcessing)

	at := testNow.Add(2 * time.Hour)
	updated, err := Transition(db, TransitionRequest{
		OrderID:        order.ID,
		TargetStatusID: processing.ID,
		ActorID:        "mgr-1",
		ActorRole:      models.RoleManager,
		Comment:        "picked up by manager",
	}, at)

	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, updated.Status.Code)
	require.Len(t, updated.StatusLogs, 2)
	last := updated.StatusLogs[len(updated.StatusLogs)-1]
	assert.Equal(t, processing.ID, last.StatusID)
	assert.Equal(t, "mgr-1", last.ActorID)
	assert.Equal(t, "picked up by manager", last.Comment)
	assert.True(t, last.CreatedAt.Equal(at))
}

func TestTransitionToSameStatusRejected(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "u1")
	product := seedProduct(t, db, "timing-belt", 1200, 5)
	order := placeOrder(t, db, user.ID, product, 1)
	current := statusByCode(t, db, models.StatusNew)

	_, err := Transition(db, TransitionRequest{
		OrderID:        order.ID,
		TargetStatusID: current.ID,
		ActorRole:      models.RoleAdmin,
	}, testNow)

	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))

	var logs int64
	require.NoError(t, db.Model(&models.OrderStatusLog{}).Where("order_id = ?", order.ID).Count(&logs).Error)
	assert.Equal(t, int64(1), logs)
}

func TestNonAdminCannotLeaveTerminalStatus(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "u1")
	product := seedProduct(t, db, "piston", 2200, 5)
	order := placeOrder(t, db, user.ID, product, 1)

	completed := statusByCode(t, db, models.StatusCompleted)
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status_id", completed.ID).Error)

	processing := statusByCode(t, db, models.StatusProcessing)
	_, err := Transition(db, TransitionRequest{
		OrderID:        order.ID,
		TargetStatusID: processing.ID,
		ActorRole:      models.RoleManager,
	}, testNow)

	require.Error(t, err)
	assert.True(t, apperr.IsPermission(err))

	// Admins may reopen.
	reopened, err := Transition(db, TransitionRequest{
		OrderID:        order.ID,
		TargetStatusID: processing.ID,
		ActorRole:      models.RoleAdmin,
		Comment:        "reopened after support call",
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, reopened.Status.Code)
}

func TestNonAdminCannotSetFinalFailureStatus(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "u1")
	product := seedProduct(t, db, "camshaft", 5400, 5)
	order := placeOrder(t, db, user.ID, product, 1)
	refunded := statusByCode(t, db, models.StatusRefunded)

	_, err := Transition(db, TransitionRequest{
		OrderID:        order.ID,
		TargetStatusID: refunded.ID,
		ActorRole:      models.RoleManager,
	}, testNow)

	require.Error(t, err)
	assert.True(t, apperr.IsPermission(err))
}

func TestTransitionUnknownOrderAndStatus(t *testing.T) {
	db := newTestDB(t)
	processing := statusByCode(t, db, models.StatusProcessing)

	_, err := Transition(db, TransitionRequest{OrderID: 999, TargetStatusID: processing.ID, ActorRole: models.RoleAdmin}, testNow)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	user := seedUser(t, db, "u1")
	product := seedProduct(t, db, "valve", 600, 5)
	order := placeOrder(t, db, user.ID, product, 1)

	_, err = Transition(db, TransitionRequest{OrderID: order.ID, TargetStatusID: 999, ActorRole: models.RoleAdmin}, testNow)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestCancellationRestoresStock(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "u1")
	product := seedProduct(t, db, "injector", 3500, 5)
	order := placeOrder(t, db, user.ID, product, 2)

	var afterCheckout models.Product
	require.NoError(t, db.First(&afterCheckout, product.ID).Error)
	require.Equal(t, 3, afterCheckout.Stock)

	cancelled := statusByCode(t, db, models.StatusCancelled)
	updated, err := Transition(db, TransitionRequest{
		OrderID:        order.ID,
		TargetStatusID: cancelled.ID,
		ActorID:        "adm-1",
		ActorRole:      models.RoleAdmin,
		Comment:        "customer asked to cancel by phone",
	}, testNow)

	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status.Code)

	var restored models.Product
	require.NoError(t, db.First(&restored, product.ID).Error)
	assert.Equal(t, 5, restored.Stock)
}

func TestReopeningCancelledOrderReclaimsStock(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "u1")
	product := seedProduct(t, db, "brake-caliper", 4800, 5)
	order := placeOrder(t, db, user.ID, product, 2) // stock 3

	cancelled := statusByCode(t, db, models.StatusCancelled)
	processing := statusByCode(t, db, models.StatusProcessing)

	adminMove := func(target models.OrderStatus) (*models.Order, error) {
		return Transition(db, TransitionRequest{
			OrderID:        order.ID,
			TargetStatusID: target.ID,
			ActorRole:      models.RoleAdmin,
		}, testNow)
	}

	stockNow := func() int {
		var p models.Product
		require.NoError(t, db.First(&p, product.ID).Error)
		return p.Stock
	}

	_, err := adminMove(cancelled)
	require.NoError(t, err)
	require.Equal(t, 5, stockNow())

	_, err = adminMove(processing)
	require.NoError(t, err)
	assert.Equal(t, 3, stockNow())

	// The cancel/reopen round trip must not mint inventory.
	_, err = adminMove(cancelled)
	require.NoError(t, err)
	assert.Equal(t, 5, stockNow())
}

func TestReopeningRefusedWhenStockWasSold(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "u1")
	product := seedProduct(t, db, "turbo-hose", 1300, 2)
	order := placeOrder(t, db, user.ID, product, 2) // stock 0

	cancelled := statusByCode(t, db, models.StatusCancelled)
	processing := statusByCode(t, db, models.StatusProcessing)

	_, err := Transition(db, TransitionRequest{
		OrderID:        order.ID,
		TargetStatusID: cancelled.ID,
		ActorRole:      models.RoleAdmin,
	}, testNow)
	require.NoError(t, err)

	// The returned units are bought by someone else.
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		UpdateColumn("stock", 0).Error)

	_, err = Transition(db, TransitionRequest{
		OrderID:        order.ID,
		TargetStatusID: processing.ID,
		ActorRole:      models.RoleAdmin,
	}, testNow)

	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))

	// Refused reopen leaves the order cancelled and the stock untouched.
	var reloaded models.Order
	require.NoError(t, db.Preload("Status").First(&reloaded, order.ID).Error)
	assert.Equal(t, models.StatusCancelled, reloaded.Status.Code)
	var p models.Product
	require.NoError(t, db.First(&p, product.ID).Error)
	assert.Equal(t, 0, p.Stock)
}

func TestNonCancellingTransitionLeavesStockAlone(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "u1")
	product := seedProduct(t, db, "water-pump", 2700, 5)
	order := placeOrder(t, db, user.ID, product, 2)
	processing := statusByCode(t, db, models.StatusProcessing)

	_, err := Transition(db, TransitionRequest{
		OrderID:        order.ID,
		TargetStatusID: processing.ID,
		ActorRole:      models.RoleAdmin,
	}, testNow)

	require.NoError(t, err)
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 3, reloaded.Stock)
}

func TestCancelOwnHappyPath(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "u1")
	product := seedProduct(t, db, "fuel-pump", 4100, 5)
	order := placeOrder(t, db, user.ID, product, 1)

	updated, err := CancelOwn(db, order.ID, user.ID, "", testNow)

	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status.Code)
	require.Len(t, updated.StatusLogs, 2)
	assert.Equal(t, "cancelled by customer", updated.StatusLogs[1].Comment)
	assert.Equal(t, user.ID, updated.StatusLogs[1].ActorID)

	var restored models.Product
	require.NoError(t, db.First(&restored, product.ID).Error)
	assert.Equal(t, 5, restored.Stock)
}

func TestCancelOwnBlockedAfterShipping(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "u1")
	product := seedProduct(t, db, "starter-motor", 6200, 5)
	order := placeOrder(t, db, user.ID, product, 1)

	shipping := statusByCode(t, db, models.StatusShipping)
	require.False(t, shipping.CanCancelOrder)
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status_id", shipping.ID).Error)

	_, err := CancelOwn(db, order.ID, user.ID, "too late", testNow)

	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 4, reloaded.Stock)
}

func TestCancelOwnForeignOrderRejected(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "u1")
	other := seedUser(t, db, "u2")
	product := seedProduct(t, db, "distributor", 1800, 5)
	order := placeOrder(t, db, owner.ID, product, 1)

	_, err := CancelOwn(db, order.ID, other.ID, "", testNow)

	require.Error(t, err)
	assert.True(t, apperr.IsPermission(err))
}
