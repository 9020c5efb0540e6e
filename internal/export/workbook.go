// Package export renders purchase orders as an Excel workbook.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

// SheetName is the name of the single sheet in the workbook.
const SheetName = "Purchase Orders"

// Headers are the column titles of the sheet, in order.
var Headers = []string{
	"PO Number", "OC Number", "Order Date", "Status", "Buyer",
	"Location", "Products", "Total Cost", "Delivery Date", "Actual Delivery",
}

var colWidths = []float64{16, 14, 14, 12, 24, 20, 10, 14, 14, 16}

// Workbook writes one row per order below a bold header row, followed by a
// summary row holding the order count and the summed total cost.
func Workbook(pos []*purchaseorder.PurchaseOrder) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	summaryStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create summary style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Headers); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(Headers))
	_ = f.SetCellStyle(SheetName, "A1", last+"1", headerStyle)

	var total float64
	for i, po := range pos {
		row := []any{
			po.Header.PONumber,
			po.Header.OCNumber,
			po.Header.OrderDate,
			string(po.Header.Status),
			buyer(po),
			po.LocationKey(),
			len(po.Products),
			po.TotalCost,
			deliveryDate(po),
			actualDelivery(po),
		}
		if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", i+2), &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row for %s: %w", po.Header.PONumber, err)
		}
		total += po.TotalCost
	}

	summary := len(pos) + 2
	_ = f.SetCellValue(SheetName, fmt.Sprintf("A%d", summary), "Total")
	_ = f.SetCellValue(SheetName, fmt.Sprintf("G%d", summary), len(pos))
	_ = f.SetCellValue(SheetName, fmt.Sprintf("H%d", summary), total)
	_ = f.SetCellStyle(SheetName, fmt.Sprintf("A%d", summary), fmt.Sprintf("%s%d", last, summary), summaryStyle)

	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(SheetName, col, col, w)
	}
	return f, nil
}

func buyer(po *purchaseorder.PurchaseOrder) string {
	if po.Header.BuyerInfo == nil {
		return ""
	}
	if name := po.Header.BuyerInfo.FullName(); name != "" {
		return name
	}
	return po.Header.BuyerInfo.Email
}

func deliveryDate(po *purchaseorder.PurchaseOrder) string {
	if po.Header.DeliveryInfo == nil {
		return ""
	}
	return po.Header.DeliveryInfo.Date
}

func actualDelivery(po *purchaseorder.PurchaseOrder) string {
	if po.Header.DeliveryInfo == nil {
		return ""
	}
	return po.Header.DeliveryInfo.ActualDate
}
