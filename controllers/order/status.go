package orderControllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/apperr"
	"github.com/andrewyakovlev/autoparts-api/models"
	"github.com/andrewyakovlev/autoparts-api/notify"
)

// -------- Request Structs --------

type TransitionRequest struct {
	OrderID        uint
	TargetStatusID uint
	ActorID        string
	ActorRole      models.Role
	Comment        string
}

// Transition validates and applies an order status change.
//
// Non-admin actors can never leave a terminal status and can never move an
// order into a final-failure status; those transitions are reserved for the
// top-privilege role. The status log is append-only: concurrent transitions
// are last-writer-wins on Order.Status, but every attempt that commits
// leaves its own log entry.
func Transition(db *gorm.DB, req TransitionRequest, now time.Time) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Status").Preload("Items").First(&order, "id = ?", req.OrderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order %d not found", req.OrderID)
		}
		return nil, err
	}

	var target models.OrderStatus
	if err := db.First(&target, "id = ?", req.TargetStatusID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("status %d not found", req.TargetStatusID)
		}
		return nil, err
	}
	if !target.IsActive {
		return nil, apperr.Conflict("status %s is not active", target.Code)
	}
	if target.ID == order.StatusID {
		return nil, apperr.Conflict("order %s is already in status %s", order.OrderNumber, target.Code)
	}

	if req.ActorRole != models.RoleAdmin {
		if order.Status.IsTerminal() {
			return nil, apperr.Permission("order %s is in the final status %s and cannot be changed", order.OrderNumber, order.Status.Code)
		}
		if target.IsFinalFailure {
			return nil, apperr.Permission("only an administrator may move an order into status %s", target.Code)
		}
	}

	if err := applyTransition(db, order, target, req.ActorID, req.Comment, now); err != nil {
		return nil, err
	}
	return LoadOrderGraph(db, order.ID)
}

// CancelOwn is the customer's restricted alias of Transition: it always
// targets the cancelled status and is only allowed while the current status
// has the can-cancel flag set.
func CancelOwn(db *gorm.DB, orderID uint, userID, comment string, now time.Time) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Status").Preload("Items").First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order %d not found", orderID)
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.Permission("order %s belongs to another customer", order.OrderNumber)
	}
	if !order.Status.CanCancelOrder {
		return nil, apperr.Conflict("order %s can no longer be cancelled in status %s", order.OrderNumber, order.Status.Code)
	}

	var cancelled models.OrderStatus
	if err := db.Where("code = ?", models.StatusCancelled).First(&cancelled).Error; err != nil {
		return nil, err
	}
	if comment == "" {
		comment = "cancelled by customer"
	}
	if err := applyTransition(db, order, cancelled, userID, comment, now); err != nil {
		return nil, err
	}
	return LoadOrderGraph(db, order.ID)
}

// applyTransition is the atomic write: status update, log append and, on
// cancellation, stock restitution commit together.
func applyTransition(db *gorm.DB, order models.Order, target models.OrderStatus, actorID, comment string, now time.Time) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status_id", target.ID).Error; err != nil {
		tx.Rollback()
		return err
	}

	log := models.OrderStatusLog{
		OrderID:   order.ID,
		StatusID:  target.ID,
		ActorID:   actorID,
		Comment:   comment,
		CreatedAt: now,
	}
	if err := tx.Create(&log).Error; err != nil {
		tx.Rollback()
		return err
	}

	// The mirror image of the checkout decrement: only the cancelled status
	// returns stock, and only for catalog-backed items.
	if target.Code == models.StatusCancelled {
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			if err := tx.Model(&models.Product{}).
				Where("id = ?", *item.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
				tx.Rollback()
				return err
			}
		}
	}

	// Reopening a cancelled order reclaims its stock, so a later cancel
	// cannot return the same units twice. Reclaim uses the same guarded
	// decrement as checkout: if the stock was sold in the meantime the
	// reopen is refused.
	if order.Status.Code == models.StatusCancelled && target.Code != models.StatusCancelled {
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", *item.ProductID, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				tx.Rollback()
				return res.Error
			}
			if res.RowsAffected == 0 {
				tx.Rollback()
				return apperr.Conflict("insufficient stock to reopen order %s: %s", order.OrderNumber, item.Title)
			}
		}
	}

	return tx.Commit().Error
}

// -------- Handlers --------

type UpdateOrderStatusRequest struct {
	StatusID uint   `json:"status_id" binding:"required"`
	Comment  string `json:"comment"`
}

// PUT /orders/:orderID/status (staff)
func UpdateOrderStatusHandler(db *gorm.DB, hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := strconv.ParseUint(c.Param("orderID"), 10, 32)
		if err != nil {
			apperr.Respond(c, apperr.Validation("orderID must be numeric"))
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Validation("invalid input: %v", err))
			return
		}

		actorID := c.GetString("user_id")
		role := models.Role(c.GetString("role"))
		if role == "" {
			role = models.RoleAdmin // API-key authenticated staff endpoint
		}

		order, err := Transition(db, TransitionRequest{
			OrderID:        uint(orderID),
			TargetStatusID: req.StatusID,
			ActorID:        actorID,
			ActorRole:      role,
			Comment:        req.Comment,
		}, time.Now())
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if hub != nil {
			hub.Broadcast(notify.Event{Type: "order.status_changed", Payload: order})
		}
		c.JSON(http.StatusOK, order)
	}
}

type CancelOrderRequest struct {
	Comment string `json:"comment"`
}

// POST /orders/:orderID/cancel (owner)
func CancelOrderHandler(db *gorm.DB, hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		orderID, err := strconv.ParseUint(c.Param("orderID"), 10, 32)
		if err != nil {
			apperr.Respond(c, apperr.Validation("orderID must be numeric"))
			return
		}
		var req CancelOrderRequest
		_ = c.ShouldBindJSON(&req) // body optional

		order, err := CancelOwn(db, uint(orderID), userID, req.Comment, time.Now())
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if hub != nil {
			hub.Broadcast(notify.Event{Type: "order.status_changed", Payload: order})
		}
		c.JSON(http.StatusOK, order)
	}
}
