package metrics

import (
	"time"

	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

func calendarMetrics(pos []*purchaseorder.PurchaseOrder, now time.Time, logger *zap.Logger) CalendarMetrics {
	m := CalendarMetrics{
		Delivery: DeliveryMetrics{Total: len(pos)},
		Volume: VolumeMetrics{
			Daily:   map[string]int{},
			Weekly:  map[string]int{},
			Monthly: map[string]int{},
		},
		Status: StatusMetrics{
			Distribution: map[string]int{},
			Transitions:  map[string]int{},
		},
	}

	for _, po := range pos {
		if onTime(po, now) {
			m.Delivery.OnTime++
		}

		if t, ok := po.OrderTime(); ok {
			m.Volume.Daily[t.Format(dayLayout)]++
			m.Volume.Weekly[weekStart(t).Format(dayLayout)]++
			m.Volume.Monthly[t.Format(monthLayout)]++
		}

		if po.Header.Status != "" {
			m.Status.Distribution[string(po.Header.Status)]++
		} else {
			logger.Warn("order has no status", zap.String("po_number", po.Header.PONumber))
		}

		h := po.StatusHistory
		for i := 1; i < len(h); i++ {
			if h[i-1].Status == "" || h[i].Status == "" {
				continue
			}
			m.Status.Transitions[string(h[i-1].Status)+"->"+string(h[i].Status)]++
		}
	}

	m.Delivery.OnTimeRate = ratio(float64(m.Delivery.OnTime), float64(m.Delivery.Total)) * 100
	return m
}

// onTime compares the expected delivery date against the actual delivery
// date, or now when the order has not been delivered. Orders without an
// expected date are never on time.
func onTime(po *purchaseorder.PurchaseOrder, now time.Time) bool {
	d := po.Header.DeliveryInfo
	if d == nil {
		return false
	}
	expected, ok := purchaseorder.ParseDate(d.Date)
	if !ok {
		return false
	}
	cmp := now
	if actual, ok := purchaseorder.ParseDate(d.ActualDate); ok {
		cmp = actual
	}
	return !expected.Before(cmp)
}

// weekStart returns midnight of the Sunday on or before t.
func weekStart(t time.Time) time.Time {
	y, mo, d := t.Date()
	day := time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}
