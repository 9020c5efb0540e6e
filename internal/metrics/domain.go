package metrics

import "time"

// Options restricts an aggregation to orders placed within
// [StartDate, EndDate]. A nil bound is open.
type Options struct {
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// Event is one raw instrumentation record. It always carries a
// "timestamp" field.
type Event map[string]any

// Snapshot is the full metrics report for one set of orders.
type Snapshot struct {
	Calendar    CalendarMetrics    `json:"calendar"`
	Financial   FinancialMetrics   `json:"financial"`
	Operational OperationalMetrics `json:"operational"`
	Product     ProductMetrics     `json:"product"`
	Processing  map[string][]Event `json:"processing,omitempty"`
	Meta        Meta               `json:"meta"`
}

// Meta describes the input of an aggregation.
type Meta struct {
	Included    int       `json:"included"`
	Excluded    int       `json:"excluded"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type CalendarMetrics struct {
	Delivery DeliveryMetrics `json:"delivery"`
	Volume   VolumeMetrics   `json:"volume"`
	Status   StatusMetrics   `json:"status"`
}

// DeliveryMetrics holds the on-time rate as a percentage.
type DeliveryMetrics struct {
	OnTime     int     `json:"onTime"`
	Total      int     `json:"total"`
	OnTimeRate float64 `json:"onTimeRate"`
}

// VolumeMetrics counts orders per day (2006-01-02), per week keyed by the
// Sunday that starts it, and per month (2006-01).
type VolumeMetrics struct {
	Daily   map[string]int `json:"daily"`
	Weekly  map[string]int `json:"weekly"`
	Monthly map[string]int `json:"monthly"`
}

// StatusMetrics counts current statuses and historical transitions keyed
// "FROM->TO".
type StatusMetrics struct {
	Distribution map[string]int `json:"distribution"`
	Transitions  map[string]int `json:"transitions"`
}

type FinancialMetrics struct {
	Sales       SalesMetrics    `json:"sales"`
	Growth      GrowthMetrics   `json:"growth"`
	Trend       []TrendPoint    `json:"trend"`
	TopProducts []ProductRank   `json:"topProducts"`
	Categories  []CategoryTotal `json:"categories"`
}

type SalesMetrics struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// GrowthMetrics compares the newer half of the orders with the older half.
type GrowthMetrics struct {
	Recent     float64 `json:"recent"`
	Previous   float64 `json:"previous"`
	Percentage float64 `json:"percentage"`
}

// TrendPoint is one month of order value.
type TrendPoint struct {
	Period string  `json:"period"`
	Total  float64 `json:"total"`
	Orders int     `json:"orders"`
}

type ProductRank struct {
	SUPC        string  `json:"supc"`
	Description string  `json:"description,omitempty"`
	Sales       float64 `json:"sales"`
	Quantity    float64 `json:"quantity"`
	Orders      int     `json:"orders"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
	Quantity float64 `json:"quantity"`
}

type OperationalMetrics struct {
	Processing ProcessingMetrics `json:"processing"`
	Accuracy   AccuracyMetrics   `json:"accuracy"`
	Buyers     BuyerMetrics      `json:"buyers"`
	Locations  LocationMetrics   `json:"locations"`
}

type ProcessingMetrics struct {
	AverageTime float64 `json:"averageTime"`
}

// AccuracyMetrics are percentage deviations; lower is better.
type AccuracyMetrics struct {
	Weight   float64 `json:"weight"`
	Delivery float64 `json:"delivery"`
}

type BuyerMetrics struct {
	Efficiency float64               `json:"efficiency"`
	ByBuyer    map[string]BuyerStats `json:"byBuyer"`
}

type BuyerStats struct {
	Orders         int     `json:"orders"`
	Value          float64 `json:"value"`
	ProcessingTime float64 `json:"processingTime"`
	Efficiency     float64 `json:"efficiency"`
}

type LocationMetrics struct {
	Throughput  float64                  `json:"throughput"`
	Performance float64                  `json:"performance"`
	ByLocation  map[string]LocationStats `json:"byLocation"`
}

type LocationStats struct {
	Orders      int     `json:"orders"`
	Value       float64 `json:"value"`
	OnTime      int     `json:"onTime"`
	Throughput  float64 `json:"throughput"`
	Performance float64 `json:"performance"`
}

// ProductMetrics exposes the financial product ranking.
type ProductMetrics struct {
	TopProducts []ProductRank `json:"topProducts"`
}
