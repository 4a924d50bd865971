package introspection

import "github.com/prometheus/client_golang/prometheus"

var (
	structuresPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smach_structures_published_total",
		Help: "Container structure messages published.",
	})
	statusesPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "smach_statuses_published_total",
		Help: "Container status messages published, per server.",
	}, []string{"server"})
	initCommandsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smach_init_commands_received_total",
		Help: "Initial status commands applied to a container.",
	})
)

func init() {
	prometheus.MustRegister(structuresPublished, statusesPublished, initCommandsReceived)
}
