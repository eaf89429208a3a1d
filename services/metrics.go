package services

import "github.com/prometheus/client_golang/prometheus"

var (
	importStageDuration *prometheus.HistogramVec
	importRecords       *prometheus.CounterVec
	importFailures      *prometheus.CounterVec
	indexedDocuments    *prometheus.CounterVec
)

func init() {
	importStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ddionrails_import_stage_duration_seconds",
			Help:    "Laufzeit einer Import-Stufe.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
		[]string{"entity"},
	)
	importRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddionrails_import_records_total",
			Help: "Anzahl gelesener Datensätze je Import-Stufe.",
		},
		[]string{"entity"},
	)
	importFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddionrails_import_failures_total",
			Help: "Anzahl fehlgeschlagener Import-Stufen.",
		},
		[]string{"entity"},
	)
	indexedDocuments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddionrails_indexed_documents_total",
			Help: "Anzahl an den Suchindex übergebener Dokumente.",
		},
		[]string{"kind"},
	)
	prometheus.MustRegister(importStageDuration, importRecords, importFailures, indexedDocuments)
}
