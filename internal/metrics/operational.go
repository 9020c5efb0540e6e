package metrics

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

// operationalMetrics averages over every included order: an order missing a
// field contributes zero to that sum but still counts in the denominator.
func operationalMetrics(pos []*purchaseorder.PurchaseOrder, now time.Time, logger *zap.Logger) OperationalMetrics {
	var (
		n                     = float64(len(pos))
		processing, weightDev float64
		deliveryDev           float64
		buyers                = map[string]BuyerStats{}
		locations             = map[string]LocationStats{}
	)

	for _, po := range pos {
		if po.ProcessingTime != nil {
			processing += *po.ProcessingTime
		}
		if dev, ok := weightDeviation(po.Weights); ok {
			weightDev += dev
		}
		if dev, ok := deliveryDeviation(po.Header.DeliveryInfo); ok {
			deliveryDev += dev
		}

		if key := po.BuyerKey(); key != "" {
			b := buyers[key]
			b.Orders++
			b.Value += po.TotalCost
			if po.ProcessingTime != nil {
				b.ProcessingTime += *po.ProcessingTime
			}
			buyers[key] = b
		} else {
			logger.Debug("order has no buyer", zap.String("po_number", po.Header.PONumber))
		}

		if key := po.LocationKey(); key != "" {
			l := locations[key]
			l.Orders++
			l.Value += po.TotalCost
			if onTime(po, now) {
				l.OnTime++
			}
			locations[key] = l
		} else {
			logger.Debug("order has no location", zap.String("po_number", po.Header.PONumber))
		}
	}

	m := OperationalMetrics{
		Processing: ProcessingMetrics{AverageTime: ratio(processing, n)},
		Accuracy: AccuracyMetrics{
			Weight:   ratio(weightDev, n) * 100,
			Delivery: ratio(deliveryDev, n) * 100,
		},
		Buyers:    BuyerMetrics{ByBuyer: buyers},
		Locations: LocationMetrics{ByLocation: locations},
	}

	var efficiency float64
	for _, key := range sortedKeys(buyers) {
		b := buyers[key]
		b.Efficiency = ratio(float64(b.Orders), b.ProcessingTime)
		buyers[key] = b
		efficiency += b.Efficiency
	}
	m.Buyers.Efficiency = ratio(efficiency, float64(len(buyers)))

	var throughput, performance float64
	for _, key := range sortedKeys(locations) {
		l := locations[key]
		l.Throughput = ratio(l.Value, float64(l.Orders))
		l.Performance = ratio(float64(l.OnTime), float64(l.Orders)) * 100
		locations[key] = l
		throughput += l.Throughput
		performance += l.Performance
	}
	m.Locations.Throughput = ratio(throughput, float64(len(locations)))
	m.Locations.Performance = ratio(performance, float64(len(locations)))
	return m
}

// weightDeviation is |1 - actual/estimated|.
func weightDeviation(w *purchaseorder.Weights) (float64, bool) {
	if w == nil || w.ActualWeight == nil || w.EstimatedWeight == nil || *w.EstimatedWeight == 0 {
		return 0, false
	}
	return finite(math.Abs(1 - *w.ActualWeight / *w.EstimatedWeight))
}

// deliveryDeviation is |1 - (actual - expected) / 1 day|.
func deliveryDeviation(d *purchaseorder.DeliveryInfo) (float64, bool) {
	if d == nil {
		return 0, false
	}
	expected, ok := purchaseorder.ParseDate(d.Date)
	if !ok {
		return 0, false
	}
	actual, ok := purchaseorder.ParseDate(d.ActualDate)
	if !ok {
		return 0, false
	}
	days := float64(actual.Sub(expected)) / float64(24*time.Hour)
	return finite(math.Abs(1 - days))
}

// ratio divides, returning 0 instead of NaN or Inf.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	v, _ := finite(num / den)
	return v
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
