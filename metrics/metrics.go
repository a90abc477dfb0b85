package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "matchbook"

// Collector holds the matcher's metrics on a private registry, so several
// services can live in one test binary.
type Collector struct {
	reg *prometheus.Registry

	Commands      *prometheus.CounterVec
	Rejects       *prometheus.CounterVec
	Trades        prometheus.Counter
	TradedQty     prometheus.Counter
	RestingOrders prometheus.Gauge
	Symbols       prometheus.Gauge
}

func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Commands received, by kind.",
			},
			[]string{"kind"},
		),
		Rejects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejects_total",
				Help:      "Commands rejected or accepted with a diagnostic, by reason.",
			},
			[]string{"reason"},
		),
		Trades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Executed trades.",
		}),
		TradedQty: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traded_quantity_total",
			Help:      "Sum of executed trade quantities.",
		}),
		RestingOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resting_orders",
			Help:      "Orders currently resting in all books.",
		}),
		Symbols: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "symbols",
			Help:      "Symbols with at least one accepted order.",
		}),
	}
	c.reg.MustRegister(
		c.Commands, c.Rejects, c.Trades, c.TradedQty, c.RestingOrders, c.Symbols,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
