package orderControllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestExportOrdersOneRowPerOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	user := seedUser(t, db, "u1")
	product := seedProduct(t, db, "oil-pan", 700, 10)
	delivery, pay := seedMethods(t, db)

	addCartItem(t, db, user.ID, product, 1)
	_, err := Checkout(db, testDeps(), user.ID, checkoutReq(delivery, pay))
	require.NoError(t, err)
	addCartItem(t, db, user.ID, product, 2)
	_, err = Checkout(db, testDeps(), user.ID, checkoutReq(delivery, pay))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/orders/export-excel", nil)

	ExportOrdersToExcel(db)(c)

	require.Equal(t, http.StatusOK, rec.Code)
	xlFile, err := xlsx.OpenBinary(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, xlFile.Sheets, 1)

	sheet := xlFile.Sheets[0]
	require.Equal(t, 3, sheet.MaxRow) // header + one row per order
	assert.Equal(t, "OrderNumber", sheet.Rows[0].Cells[0].String())

	var numbers []string
	for _, row := range sheet.Rows[1:] {
		numbers = append(numbers, row.Cells[0].String())
	}
	assert.ElementsMatch(t, []string{"250101-001", "250101-002"}, numbers)
}

func TestExportOrdersEmptyDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/orders/export-excel", nil)

	ExportOrdersToExcel(db)(c)

	require.Equal(t, http.StatusOK, rec.Code)
	xlFile, err := xlsx.OpenBinary(rec.Body.Bytes())
	require.NoError(t, err)
	require.Equal(t, 1, xlFile.Sheets[0].MaxRow)
}
