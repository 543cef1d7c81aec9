package orderControllers

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/andrewyakovlev/autoparts-api/models"
)

// NextOrderNumber derives the next sequential order number for the current
// day: YYMMDD-NNN with the 3-digit sequence resetting daily. Zero padding
// makes the lexicographic MAX equal the numeric max.
//
// The read-then-write is not serialized: two concurrent checkouts can derive
// the same number and one insert will hit the unique index. The caller
// treats that as a retryable conflict and re-derives.
func NextOrderNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := now.Format("060102")

	var last sql.NullString
	row := tx.Model(&models.Order{}).
		Where("order_number LIKE ?", prefix+"-%").
		Select("MAX(order_number)").
		Row()
	if err := row.Scan(&last); err != nil {
		return "", err
	}
	if !last.Valid || last.String == "" {
		return prefix + "-001", nil
	}

	seq, err := strconv.Atoi(last.String[len(last.String)-3:])
	if err != nil {
		return "", fmt.Errorf("malformed order number %q: %w", last.String, err)
	}
	return fmt.Sprintf("%s-%03d", prefix, seq+1), nil
}
