package purchaseorder

import (
	"fmt"
	"net/mail"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/validation"
)

// Business rule names reported in error details.
const (
	RuleProductTotals = "productTotals"
	RuleTotalCost     = "totalCost"
	RuleWeights       = "weights"
)

// Check runs the schema and business-rule checks on a document.
func Check(po *PurchaseOrder) validation.Result {
	var r validation.Result
	if po == nil {
		r.Add(validation.SchemaError, "purchase order document is empty", nil)
		return r.Finish()
	}

	checkHeader(&r, &po.Header)
	checkProducts(&r, po.Products)

	if len(po.Products) > 0 && !TotalCostReconciled(po) {
		r.Add(validation.BusinessRule, "Total cost must equal the sum of product totals", map[string]any{
			"rule":     RuleTotalCost,
			"expected": po.ProductsTotal(),
			"actual":   po.TotalCost,
		})
	}

	if !WeightsConsistent(po.Weights) {
		r.Add(validation.BusinessRule, "Gross weight must be greater than net weight", map[string]any{
			"rule":        RuleWeights,
			"grossWeight": *po.Weights.GrossWeight,
			"netWeight":   *po.Weights.NetWeight,
		})
	}

	if po.ProcessingTime != nil && *po.ProcessingTime < 0 {
		r.Add(validation.TypeError, "processingTime must not be negative", nil)
	}
	if po.Revision < 0 {
		r.Add(validation.TypeError, "revision must not be negative", nil)
	}

	return r.Finish()
}

func checkHeader(r *validation.Result, h *Header) {
	if h.PONumber == "" {
		r.Add(validation.RequiredField, "poNumber is required", map[string]any{"field": "header.poNumber"})
	}
	if h.OrderDate == "" {
		r.Add(validation.RequiredField, "orderDate is required", map[string]any{"field": "header.orderDate"})
	} else if _, ok := ParseDate(h.OrderDate); !ok {
		r.Add(validation.FormatError, "orderDate must be a valid date", map[string]any{
			"field": "header.orderDate",
			"value": h.OrderDate,
		})
	}
	if h.Status != "" && !h.Status.IsValid() {
		r.Add(validation.StatusError, fmt.Sprintf("Unknown status: %s", h.Status), nil)
	}
	if h.BuyerInfo != nil && h.BuyerInfo.Email != "" {
		if _, err := mail.ParseAddress(h.BuyerInfo.Email); err != nil {
			r.Add(validation.FormatError, "buyer email is not a valid address", map[string]any{
				"field": "header.buyerInfo.email",
				"value": h.BuyerInfo.Email,
			})
		}
	}
	if h.DeliveryInfo != nil {
		dates := [][2]string{
			{"header.deliveryInfo.date", h.DeliveryInfo.Date},
			{"header.deliveryInfo.actualDate", h.DeliveryInfo.ActualDate},
		}
		for _, d := range dates {
			if d[1] == "" {
				continue
			}
			if _, ok := ParseDate(d[1]); !ok {
				r.Add(validation.TimeError, "delivery date must be a valid date", map[string]any{
					"field": d[0],
					"value": d[1],
				})
			}
		}
	}
}

func checkProducts(r *validation.Result, products []Product) {
	if len(products) == 0 {
		r.Add(validation.RequiredField, "at least one product is required", map[string]any{"field": "products"})
		return
	}
	for i, p := range products {
		if p.SUPC == "" {
			r.Add(validation.RequiredField, fmt.Sprintf("products[%d].supc is required", i), map[string]any{"index": i})
		}
		if p.Quantity <= 0 {
			r.Add(validation.BusinessRule, fmt.Sprintf("products[%d].quantity must be greater than 0", i), map[string]any{
				"index": i,
				"supc":  p.SUPC,
			})
		}
		if p.FOBCost < 0 {
			r.Add(validation.BusinessRule, fmt.Sprintf("products[%d].fobCost must not be negative", i), map[string]any{
				"index": i,
				"supc":  p.SUPC,
			})
		}
		if !validation.ApproxEqual(p.Total, p.Quantity*p.FOBCost) {
			r.Add(validation.BusinessRule, "Product total must equal quantity * fobCost", map[string]any{
				"rule":     RuleProductTotals,
				"index":    i,
				"supc":     p.SUPC,
				"expected": p.Quantity * p.FOBCost,
				"actual":   p.Total,
			})
		}
	}
}

// TotalCostReconciled reports whether TotalCost matches the product totals.
func TotalCostReconciled(po *PurchaseOrder) bool {
	return validation.ApproxEqual(po.TotalCost, po.ProductsTotal())
}

// ProductTotalsReconciled reports whether every line total equals quantity * fobCost.
func ProductTotalsReconciled(po *PurchaseOrder) bool {
	for _, p := range po.Products {
		if !validation.ApproxEqual(p.Total, p.Quantity*p.FOBCost) {
			return false
		}
	}
	return true
}

// WeightsConsistent holds unless both weights are present and gross <= net.
func WeightsConsistent(w *Weights) bool {
	if w == nil || w.GrossWeight == nil || w.NetWeight == nil {
		return true
	}
	return *w.GrossWeight > *w.NetWeight
}
