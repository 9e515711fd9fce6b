package services

import "github.com/prometheus/client_golang/prometheus"

var (
	stubTransitionsCounter *prometheus.CounterVec
	importedStubsCounter   *prometheus.CounterVec
	duplicatesCounter      prometheus.Counter
	ingestedStudiesCounter *prometheus.CounterVec
	exportArchivesCounter  *prometheus.CounterVec
)

func init() {
	stubTransitionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curation_stub_transitions_total",
			Help: "Total number of applied curation mutations by operation.",
		},
		[]string{"operation"},
	)
	importedStubsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curation_imported_stubs_total",
			Help: "Total number of stub studies imported by import mode.",
		},
		[]string{"mode"},
	)
	duplicatesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "curation_duplicates_flagged_total",
			Help: "Total number of imported stubs flagged as duplicates.",
		},
	)
	ingestedStudiesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curation_ingested_studies_total",
			Help: "Total number of ingestion steps by result status.",
		},
		[]string{"status"},
	)
	exportArchivesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curation_export_archives_total",
			Help: "Total number of export archives uploaded by format and trigger.",
		},
		[]string{"format", "trigger"},
	)
	prometheus.MustRegister(
		stubTransitionsCounter,
		importedStubsCounter,
		duplicatesCounter,
		ingestedStudiesCounter,
		exportArchivesCounter,
	)
}
