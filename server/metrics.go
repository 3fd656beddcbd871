package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gigagroup_queries_total",
		Help: "Group-by queries served, by outcome.",
	}, []string{"status"})

	insertRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gigagroup_insert_rows_total",
		Help: "Rows ingested through the insert endpoint.",
	})
)
