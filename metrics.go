package spgo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	handleAcquires = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spgo_handle_acquires_total",
			Help: "Native references taken by the bridge, by object kind",
		},
		[]string{"kind"},
	)

	handleReleases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spgo_handle_releases_total",
			Help: "Native references released by the bridge, by object kind",
		},
		[]string{"kind"},
	)

	handleReleaseErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spgo_handle_release_errors_total",
			Help: "Native release calls that reported an error",
		},
	)

	globalPins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spgo_global_refs_pinned_total",
			Help: "Managed objects pinned with a global reference",
		},
	)

	globalUnpins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spgo_global_refs_unpinned_total",
			Help: "Global references deleted by the bridge",
		},
	)

	globalLeaks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spgo_global_refs_leaked_total",
			Help: "Global references that could not be deleted because no thread could attach",
		},
	)

	pendingEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spgo_pending_loads",
			Help: "Objects waiting in the pending-load queue",
		},
	)

	callbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spgo_callbacks_total",
			Help: "Events handled by the bridge, by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	omittedResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spgo_results_omitted_total",
			Help: "Result items left out because they were not loaded yet",
		},
		[]string{"kind"},
	)

	attachFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spgo_attach_failures_total",
			Help: "Failed attempts to attach a thread to the host runtime",
		},
	)
)
