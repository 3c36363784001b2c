package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics счётчики цикла наблюдения и HTTP-клиента провайдера.
// Все методы безопасны для nil.
type Metrics struct {
	watchEvaluations  *prometheus.CounterVec
	appointmentsFound *prometheus.CounterVec
	bookings          *prometheus.CounterVec
	authAttempts      *prometheus.CounterVec
	requests          *prometheus.CounterVec
	cycleDuration     prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		watchEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medicony",
			Subsystem: "scheduler",
			Name:      "watch_evaluations_total",
			Help:      "Watches evaluated per outcome",
		}, []string{"outcome"}),
		appointmentsFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medicony",
			Subsystem: "scheduler",
			Name:      "appointments_found_total",
			Help:      "Appointments returned by slot searches",
		}, []string{"type"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medicony",
			Subsystem: "provider",
			Name:      "bookings_total",
			Help:      "Booking attempts per result",
		}, []string{"result"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medicony",
			Subsystem: "provider",
			Name:      "auth_attempts_total",
			Help:      "Login attempts per account and result",
		}, []string{"account", "result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medicony",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "HTTP requests to the provider API",
		}, []string{"method", "status"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medicony",
			Subsystem: "scheduler",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full watch evaluation cycle",
			Buckets:   []float64{30, 60, 120, 300, 600, 1200, 2400},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.watchEvaluations, m.appointmentsFound, m.bookings, m.authAttempts, m.requests, m.cycleDuration)
	return m
}

func (m *Metrics) ObserveWatch(outcome string) {
	if m == nil {
		return
	}
	m.watchEvaluations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFound(watchType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.appointmentsFound.WithLabelValues(watchType).Add(float64(n))
}

func (m *Metrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveAuth(account string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.authAttempts.WithLabelValues(account, result).Inc()
}

func (m *Metrics) ObserveRequest(method, status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, status).Inc()
}

func (m *Metrics) ObserveCycle(seconds float64) {
	if m == nil {
		return
	}
	m.cycleDuration.Observe(seconds)
}
