// Package payment generates payment URLs for online payment methods. Real
// gateway integration is out of scope: the URL is a stub assembled from
// configuration, generated best-effort after the checkout transaction has
// already committed.
package payment

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/andrewyakovlev/autoparts-api/models"
)

// URLFor returns the payment URL for an order, or "" when the payment
// method is not an online one.
func URLFor(method models.PaymentMethod, order models.Order) (string, error) {
	if !method.IsOnline {
		return "", nil
	}
	base := os.Getenv("PAYMENT_BASE_URL")
	if base == "" {
		return "", fmt.Errorf("payment configuration missing: PAYMENT_BASE_URL is not set")
	}
	token := uuid.NewString()
	return fmt.Sprintf("%s/pay/%s?order=%s&amount=%s", base, token, order.OrderNumber, order.TotalAmount.StringFixed(2)), nil
}
