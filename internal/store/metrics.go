package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics.
var (
	storeItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "articulos_store_items",
			Help: "Number of items held by the file store",
		},
	)

	storeWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articulos_store_writes_total",
			Help: "Total number of writes of the items file",
		},
		[]string{"result"},
	)
)
