package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "montafix",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	quoteRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "montafix",
			Name:      "quote_requests_total",
			Help:      "Count of quote estimations by furniture type.",
		},
		[]string{"furniture_type"},
	)

	slotResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "montafix",
			Name:      "slot_resolutions_total",
			Help:      "Count of slot resolutions by outcome (found/empty).",
		},
		[]string{"outcome"},
	)

	bookingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "montafix",
			Name:      "booking_requests_total",
			Help:      "Count of booking request submissions by outcome.",
		},
		[]string{"outcome"},
	)

	availabilityUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "montafix",
			Name:      "availability_updates_total",
			Help:      "Count of admin availability mutations by operation.",
		},
		[]string{"op"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, quoteRequests, slotResolutions,
			bookingRequests, availabilityUpdates)
	})
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncQuote(furnitureType string) {
	quoteRequests.WithLabelValues(furnitureType).Inc()
}

func IncSlotResolution(outcome string) {
	slotResolutions.WithLabelValues(outcome).Inc()
}

func IncBookingRequest(outcome string) {
	bookingRequests.WithLabelValues(outcome).Inc()
}

func IncAvailabilityUpdate(op string) {
	availabilityUpdates.WithLabelValues(op).Inc()
}
