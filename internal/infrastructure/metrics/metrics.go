package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics holds all Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Transfer metrics
	TransfersCreated *prometheus.CounterVec
	TransferDuration prometheus.Histogram
	TransferAmount   *prometheus.HistogramVec
	TransferErrors   *prometheus.CounterVec
	TransferRetries  prometheus.Counter

	// Instrument metrics
	LoansIssued      prometheus.Counter
	LoanPayments     prometheus.Counter
	LoansClosed      prometheus.Counter
	DepositsOpened   prometheus.Counter
	DepositTopUps    prometheus.Counter
	DepositsClosed   prometheus.Counter
	LoanDenials      prometheus.Counter
	InstrumentErrors *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter
	CardsIssued     *prometheus.CounterVec

	// QR metrics
	QRGenerated *prometheus.CounterVec

	// Notification metrics
	NotificationsPublished *prometheus.CounterVec
	NotificationsDropped   prometheus.Counter

	// Redis metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates all Prometheus metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		// Transfer metrics
		TransfersCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_transfers_created_total",
				Help: "Total number of committed transfers",
			},
			[]string{"currency"},
		),
		TransferDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gobank_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gobank_transfer_amount",
				Help:    "Transfer amounts",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"currency"},
		),
		TransferErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_transfer_errors_total",
				Help: "Total number of failed transfers by error kind",
			},
			[]string{"kind"},
		),
		TransferRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_transfer_retries_total",
			Help: "Total number of retried atomic units after storage conflicts",
		}),

		// Instrument metrics
		LoansIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_loans_issued_total",
			Help: "Total number of loans disbursed",
		}),
		LoanPayments: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_loan_payments_total",
			Help: "Total number of loan payments",
		}),
		LoansClosed: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_loans_closed_total",
			Help: "Total number of fully repaid loans",
		}),
		DepositsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_deposits_opened_total",
			Help: "Total number of deposits opened",
		}),
		DepositTopUps: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_deposit_top_ups_total",
			Help: "Total number of deposit top-ups",
		}),
		DepositsClosed: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_deposits_closed_total",
			Help: "Total number of deposits withdrawn",
		}),
		LoanDenials: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_loan_denials_total",
			Help: "Total number of loan requests rejected by the creditworthiness gate",
		}),
		InstrumentErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_instrument_errors_total",
				Help: "Total failed loan and deposit operations by error kind",
			},
			[]string{"instrument", "kind"},
		),

		// Account metrics
		AccountsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		CardsIssued: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_cards_issued_total",
				Help: "Total number of cards issued by network",
			},
			[]string{"type"},
		),

		// QR metrics
		QRGenerated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_qr_generated_total",
				Help: "Total number of QR tokens minted",
			},
			[]string{"kind"},
		),

		// Notification metrics
		NotificationsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_notifications_published_total",
				Help: "Total notifications handed to the publisher by outcome",
			},
			[]string{"status"},
		),
		NotificationsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_notifications_dropped_total",
			Help: "Total notifications dropped because the queue was full",
		}),

		// Redis metrics
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_catalog_cache_hits_total",
			Help: "Total catalog cache hits",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "gobank_catalog_cache_misses_total",
			Help: "Total catalog cache misses",
		}),

		// Rate limiting metrics
		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}

// ObserveTransfer records a committed transfer.
func (m *Metrics) ObserveTransfer(currency string, amount decimal.Decimal, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TransfersCreated.WithLabelValues(currency).Inc()
	m.TransferAmount.WithLabelValues(currency).Observe(amount.InexactFloat64())
	m.TransferDuration.Observe(elapsed.Seconds())
}

// TransferFailed records a rejected transfer.
func (m *Metrics) TransferFailed(kind string) {
	if m == nil {
		return
	}
	m.TransferErrors.WithLabelValues(kind).Inc()
}

// Retried records one retry of an atomic unit.
func (m *Metrics) Retried() {
	if m == nil {
		return
	}
	m.TransferRetries.Inc()
}

// InstrumentFailed records a failed loan or deposit operation.
func (m *Metrics) InstrumentFailed(instrument, kind string) {
	if m == nil {
		return
	}
	m.InstrumentErrors.WithLabelValues(instrument, kind).Inc()
}

func (m *Metrics) inc(c func(*Metrics) prometheus.Counter) {
	if m == nil {
		return
	}
	c(m).Inc()
}

func (m *Metrics) LoanIssued() { m.inc(func(m *Metrics) prometheus.Counter { return m.LoansIssued }) }
func (m *Metrics) LoanPaid()   { m.inc(func(m *Metrics) prometheus.Counter { return m.LoanPayments }) }
func (m *Metrics) LoanClosed() { m.inc(func(m *Metrics) prometheus.Counter { return m.LoansClosed }) }
func (m *Metrics) LoanDenied() { m.inc(func(m *Metrics) prometheus.Counter { return m.LoanDenials }) }
func (m *Metrics) DepositOpened() {
	m.inc(func(m *Metrics) prometheus.Counter { return m.DepositsOpened })
}
func (m *Metrics) DepositToppedUp() {
	m.inc(func(m *Metrics) prometheus.Counter { return m.DepositTopUps })
}
func (m *Metrics) DepositClosed() {
	m.inc(func(m *Metrics) prometheus.Counter { return m.DepositsClosed })
}
func (m *Metrics) AccountCreated() {
	m.inc(func(m *Metrics) prometheus.Counter { return m.AccountsCreated })
}
func (m *Metrics) CacheHit()  { m.inc(func(m *Metrics) prometheus.Counter { return m.CacheHits }) }
func (m *Metrics) CacheMiss() { m.inc(func(m *Metrics) prometheus.Counter { return m.CacheMisses }) }
func (m *Metrics) NotificationDropped() {
	m.inc(func(m *Metrics) prometheus.Counter { return m.NotificationsDropped })
}

// CardIssued records an issued card of the given network.
func (m *Metrics) CardIssued(cardType string) {
	if m == nil {
		return
	}
	m.CardsIssued.WithLabelValues(cardType).Inc()
}

// QRMinted records a minted QR token for an endpoint kind.
func (m *Metrics) QRMinted(kind string) {
	if m == nil {
		return
	}
	m.QRGenerated.WithLabelValues(kind).Inc()
}

// NotificationPublished records the outcome of a notification delivery.
func (m *Metrics) NotificationPublished(status string) {
	if m == nil {
		return
	}
	m.NotificationsPublished.WithLabelValues(status).Inc()
}

// RateLimited records a request rejected by the rate limiter.
func (m *Metrics) RateLimited(ip string) {
	if m == nil {
		return
	}
	m.RateLimitHits.WithLabelValues(ip).Inc()
}
