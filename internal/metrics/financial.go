package metrics

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

const (
	topProductsLimit = 10
	trendMonths      = 6
	uncategorized    = "Uncategorized"
)

func financialMetrics(pos []*purchaseorder.PurchaseOrder, logger *zap.Logger) FinancialMetrics {
	m := FinancialMetrics{
		Sales: SalesMetrics{Count: len(pos)},
	}
	for _, po := range pos {
		m.Sales.Total += po.TotalCost
	}
	m.Sales.Average = ratio(m.Sales.Total, float64(len(pos)))
	m.Growth = growth(pos)
	m.Trend = trend(pos)
	m.TopProducts, m.Categories = productRollups(pos, logger)
	return m
}

// growth splits the orders, newest first, at the midpoint and compares the
// summed totals of the two halves.
func growth(pos []*purchaseorder.PurchaseOrder) GrowthMetrics {
	sorted := make([]*purchaseorder.PurchaseOrder, len(pos))
	copy(sorted, pos)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, _ := sorted[i].OrderTime()
		tj, _ := sorted[j].OrderTime()
		return ti.After(tj)
	})

	mid := len(sorted) / 2
	var g GrowthMetrics
	for i, po := range sorted {
		if i < mid {
			g.Recent += po.TotalCost
		} else {
			g.Previous += po.TotalCost
		}
	}
	if g.Previous != 0 {
		g.Percentage = (g.Recent - g.Previous) / g.Previous * 100
	}
	return g
}

// trend totals the last trendMonths calendar months ending with the month
// of the newest order. Months without orders are reported as zero.
func trend(pos []*purchaseorder.PurchaseOrder) []TrendPoint {
	var latest time.Time
	for _, po := range pos {
		if t, ok := po.OrderTime(); ok && t.After(latest) {
			latest = t
		}
	}
	if latest.IsZero() {
		return []TrendPoint{}
	}

	anchor := time.Date(latest.Year(), latest.Month(), 1, 0, 0, 0, 0, time.UTC)
	points := make([]TrendPoint, trendMonths)
	index := make(map[string]int, trendMonths)
	for i := 0; i < trendMonths; i++ {
		period := anchor.AddDate(0, i-trendMonths+1, 0).Format(monthLayout)
		points[i] = TrendPoint{Period: period}
		index[period] = i
	}
	for _, po := range pos {
		t, ok := po.OrderTime()
		if !ok {
			continue
		}
		if i, ok := index[t.Format(monthLayout)]; ok {
			points[i].Total += po.TotalCost
			points[i].Orders++
		}
	}
	return points
}

// productRollups ranks products by fobCost * quantity. Ties keep the order
// in which products were first seen.
func productRollups(pos []*purchaseorder.PurchaseOrder, logger *zap.Logger) ([]ProductRank, []CategoryTotal) {
	var (
		ranks      []ProductRank
		rankIdx    = map[string]int{}
		categories []CategoryTotal
		catIdx     = map[string]int{}
	)
	for _, po := range pos {
		seen := map[string]bool{}
		for _, p := range po.Products {
			supc := strings.TrimSpace(p.SUPC)
			if supc == "" {
				logger.Warn("product without supc excluded from ranking", zap.String("po_number", po.Header.PONumber))
				continue
			}
			sales := p.FOBCost * p.Quantity

			i, ok := rankIdx[supc]
			if !ok {
				i = len(ranks)
				rankIdx[supc] = i
				ranks = append(ranks, ProductRank{SUPC: supc, Description: p.Description})
			}
			ranks[i].Sales += sales
			ranks[i].Quantity += p.Quantity
			if !seen[supc] {
				ranks[i].Orders++
				seen[supc] = true
			}

			cat := strings.TrimSpace(p.Category)
			if cat == "" {
				cat = uncategorized
			}
			j, ok := catIdx[cat]
			if !ok {
				j = len(categories)
				catIdx[cat] = j
				categories = append(categories, CategoryTotal{Category: cat})
			}
			categories[j].Value += sales
			categories[j].Quantity += p.Quantity
		}
	}

	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Sales > ranks[j].Sales })
	if len(ranks) > topProductsLimit {
		ranks = ranks[:topProductsLimit]
	}
	sort.SliceStable(categories, func(i, j int) bool { return categories[i].Value > categories[j].Value })

	if ranks == nil {
		ranks = []ProductRank{}
	}
	if categories == nil {
		categories = []CategoryTotal{}
	}
	return ranks, categories
}
