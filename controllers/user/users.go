package userControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/apperr"
	"github.com/andrewyakovlev/autoparts-api/models"
)

type UpdateUserInput struct {
	Name    *string         `json:"name"`
	Phone   *string         `json:"phone"`
	Address *models.Address `json:"address"`
}

// GET /user
func GetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		var user models.User
		err := db.Preload("Cart.Items").
			Preload("CustomerGroup").
			First(&user, "id = ?", userID).Error
		if err != nil {
			apperr.Respond(c, apperr.NotFound("user not found"))
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// PUT /user
func UpdateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			apperr.Respond(c, apperr.NotFound("user not found"))
			return
		}

		var input UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, apperr.Validation("invalid input: %v", err))
			return
		}

		updates := make(map[string]interface{})
		if input.Name != nil {
			updates["name"] = *input.Name
		}
		if input.Phone != nil {
			updates["phone"] = *input.Phone
		}
		if input.Address != nil {
			updates["country"] = input.Address.Country
			updates["region"] = input.Address.Region
			updates["city"] = input.Address.City
			updates["street"] = input.Address.Street
			updates["postal_code"] = input.Address.PostalCode
		}

		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
				return
			}
		}
		c.JSON(http.StatusOK, user)
	}
}

// GET /admin/users
func GetAllUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []models.User
		err := db.
			Select("id", "email", "name", "phone", "role", "personal_percent", "customer_group_id", "created_at").
			Order("created_at desc").
			Find(&users).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// Pointer fields so each knob can be set or cleared independently.
type DiscountStandingInput struct {
	PersonalPercent *decimal.Decimal `json:"personal_percent"`
	CustomerGroupID *uint            `json:"customer_group_id"`
	ClearGroup      bool             `json:"clear_group"`
}

// SetDiscountStanding adjusts a customer's personal discount and group
// membership (staff). Cached cart previews pick the change up after the
// profile cache expires or is invalidated.
// PUT /admin/users/:id/discounts
func SetDiscountStanding(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
			apperr.Respond(c, apperr.NotFound("user %s not found", c.Param("id")))
			return
		}

		var input DiscountStandingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, apperr.Validation("invalid input: %v", err))
			return
		}

		updates := make(map[string]interface{})
		if input.PersonalPercent != nil {
			p := *input.PersonalPercent
			if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
				apperr.Respond(c, apperr.Validation("personal_percent must be between 0 and 100"))
				return
			}
			updates["personal_percent"] = p
		}
		if input.CustomerGroupID != nil {
			var group models.CustomerGroup
			if err := db.First(&group, "id = ?", *input.CustomerGroupID).Error; err != nil {
				apperr.Respond(c, apperr.Validation("customer group %d does not exist", *input.CustomerGroupID))
				return
			}
			updates["customer_group_id"] = *input.CustomerGroupID
		} else if input.ClearGroup {
			updates["customer_group_id"] = nil
		}

		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update discount standing"})
				return
			}
		}
		c.JSON(http.StatusOK, user)
	}
}
