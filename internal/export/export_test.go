package export

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

func sample() []*purchaseorder.PurchaseOrder {
	return []*purchaseorder.PurchaseOrder{
		{
			Header: purchaseorder.Header{
				PONumber:     "PO-1",
				OCNumber:     "OC-9",
				OrderDate:    "2024-03-01",
				Status:       purchaseorder.StatusConfirmed,
				BuyerInfo:    &purchaseorder.BuyerInfo{FirstName: "Ana", LastName: "Ruiz"},
				DeliveryInfo: &purchaseorder.DeliveryInfo{Date: "2024-03-05", ActualDate: "2024-03-04"},
			},
			Products:  []purchaseorder.Product{{SUPC: "1", Total: 40}, {SUPC: "2", Total: 60}},
			TotalCost: 100,
		},
		{
			Header: purchaseorder.Header{
				PONumber:  "PO-2",
				OrderDate: "2024-03-02",
				Status:    purchaseorder.StatusUploaded,
				BuyerInfo: &purchaseorder.BuyerInfo{Email: "buyer@example.com"},
			},
			Products:  []purchaseorder.Product{{SUPC: "3", Total: 25.5}},
			TotalCost: 25.5,
		},
	}
}

func TestWorkbook(t *testing.T) {
	f, err := Workbook(sample())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, []string{"PO-1", "OC-9", "2024-03-01", "CONFIRMED", "Ana Ruiz", "", "2", "100", "2024-03-05", "2024-03-04"}, rows[1])
	assert.Equal(t, "buyer@example.com", rows[2][4])
	assert.Equal(t, "Total", rows[3][0])
	assert.Equal(t, "2", rows[3][6])
	assert.Equal(t, "125.5", rows[3][7])

	styleID, err := f.GetCellStyle(SheetName, "C1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	assert.True(t, style.Font.Bold)
}

func TestWorkbook_Empty(t *testing.T) {
	f, err := Workbook(nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "0", rows[1][6])
	assert.Equal(t, "0", rows[1][7])
}

type staticSource []*purchaseorder.PurchaseOrder

func (s staticSource) List(context.Context, purchaseorder.Query) (*purchaseorder.Page, error) {
	return &purchaseorder.Page{Data: s}, nil
}

func TestHandler_Export(t *testing.T) {
	h := NewHandler(staticSource(sample()), zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/purchase-orders/export?start=2024-03-01", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestHandler_ExportBadQuery(t *testing.T) {
	h := NewHandler(staticSource(nil), zap.NewNop())
	rec := httptest.NewRecorder()
	h.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/purchase-orders/export?start=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
