// Package metrics holds the prometheus collectors shared by provisioning and the registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProvisionResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelsrv_provision_results_total",
			Help: "Provisioning results per artifact by outcome and reason",
		},
		[]string{"entry", "outcome", "reason"},
	)
	DownloadedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modelsrv_provision_downloaded_bytes_total",
			Help: "Bytes written to the artifact directory by downloads",
		},
	)
	DownloadAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelsrv_provision_download_attempts_total",
			Help: "Download attempts per artifact",
		},
		[]string{"entry"},
	)
	ProvisionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modelsrv_provision_duration_seconds",
			Help:    "Duration of a full provisioning run",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	ModelLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelsrv_registry_loads_total",
			Help: "Model loads by result",
		},
		[]string{"model", "result"},
	)
	ModelLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelsrv_registry_load_duration_seconds",
			Help:    "Time spent reading and decoding a model",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	ModelsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelsrv_registry_models_loaded",
			Help: "Number of models currently cached in memory",
		},
	)
)
