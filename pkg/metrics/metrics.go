package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "recordstore"

	metricLabelCollection = "collection"
	metricLabelOperation  = "operation"
	metricLabelStatus     = "status"
	metricLabelSource     = "source"
	metricLabelRemote     = "remote"
)

// Metrics is the structure that holds all prometheus metrics
var (
	// OperationCounter counts collection operations
	OperationCounter = newCounterVec(
		"operation_count",
		"Count of collection operations",
		metricLabelCollection, metricLabelOperation, metricLabelStatus,
	)
	// OperationDuration observes the duration of collection operations
	OperationDuration = newSummaryVec(
		"operation_duration_seconds",
		"Seconds spent in a collection operation including the storage round trip",
		metricLabelCollection, metricLabelOperation, metricLabelStatus,
	)
	// IndexPersistFailedCounter counts failed index writes
	IndexPersistFailedCounter = newCounterVec(
		"index_persist_failed_count",
		"Number of failures to write a collection's record index",
		metricLabelCollection,
	)
	// MissingRecordsCounter counts indexed ids without a stored record
	MissingRecordsCounter = newCounterVec(
		"missing_records_count",
		"Number of indexed records that were missing from storage on findAll",
		metricLabelCollection,
	)
	// ServiceRequestCounter count the number of requests for each route
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each route",
		metricLabelOperation, metricLabelStatus, metricLabelSource,
	)
	// ServiceRequestDuration observe the duration of requests for each route
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to unmarshal requests, execute a sync and marshal its reponses",
		metricLabelOperation, metricLabelStatus, metricLabelSource,
	)
	// NumSocketsGauge keep track of the total number of open sockets
	NumSocketsGauge = newGaugeVec(
		"num_sockets_total",
		"Total number of currently open socket connections",
		metricLabelRemote,
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newGaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
