package artifacts

import "github.com/prometheus/client_golang/prometheus"

var (
	retentionRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbchat_artifact_retention_runs_total",
			Help: "Total number of artifact retention runs by status.",
		},
		[]string{"status"},
	)
	retentionObjectsDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dbchat_artifact_retention_objects_deleted_total",
			Help: "Total number of artifacts deleted by retention runs.",
		},
	)
	retentionBytesReclaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dbchat_artifact_retention_bytes_reclaimed_total",
			Help: "Total artifact bytes reclaimed by retention runs.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		retentionRunsTotal,
		retentionObjectsDeletedTotal,
		retentionBytesReclaimed,
	)
}
