package observability

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts ledger operations. A nil *Metrics is a valid no-op.
type Metrics struct {
	operations   *prometheus.CounterVec
	debtIssued   prometheus.Counter
	debtRepaid   prometheus.Counter
	liquidations *prometheus.CounterVec
	prices       *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cdp_ledger_operations_total",
			Help: "Ledger operations by name and result (ok or error code).",
		}, []string{"op", "result"}),
		debtIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cdp_debt_issued_units_total",
			Help: "Synthetic currency units minted by loan issuance (saturates at float precision).",
		}),
		debtRepaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cdp_debt_repaid_units_total",
			Help: "Synthetic currency units burned by settlement.",
		}),
		liquidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cdp_liquidations_total",
			Help: "Liquidation hand-offs and completions.",
		}, []string{"stage"}),
		prices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cdp_collateral_price",
			Help: "Last oracle price per collateral symbol.",
		}, []string{"symbol"}),
	}
	var err error
	if m.operations, err = register(reg, m.operations); err != nil {
		return nil, err
	}
	if m.debtIssued, err = register(reg, m.debtIssued); err != nil {
		return nil, err
	}
	if m.debtRepaid, err = register(reg, m.debtRepaid); err != nil {
		return nil, err
	}
	if m.liquidations, err = register(reg, m.liquidations); err != nil {
		return nil, err
	}
	if m.prices, err = register(reg, m.prices); err != nil {
		return nil, err
	}
	return m, nil
}

// register returns the collector already registered under the same
// descriptor, so two Metrics built on one registry share series.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveOp records the outcome of op; code is "ok" on success.
func (m *Metrics) ObserveOp(op, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	m.operations.WithLabelValues(op, code).Inc()
}

func (m *Metrics) ObserveIssued(amount *uint256.Int) {
	if m == nil || amount == nil {
		return
	}
	m.debtIssued.Add(amount.Float64())
}

func (m *Metrics) ObserveRepaid(amount *uint256.Int) {
	if m == nil || amount == nil {
		return
	}
	m.debtRepaid.Add(amount.Float64())
}

func (m *Metrics) ObserveLiquidation(stage string) {
	if m == nil {
		return
	}
	m.liquidations.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObservePrice(symbol string, price *uint256.Int) {
	if m == nil || price == nil {
		return
	}
	if symbol == "" {
		symbol = "unknown"
	}
	m.prices.WithLabelValues(symbol).Set(price.Float64())
}
