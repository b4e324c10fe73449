package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the stock synchronization path
var (
	EventsPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_sync_events_published_total",
			Help: "Total number of stock change events published to the sync channel",
		},
	)

	PublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_sync_publish_errors_total",
			Help: "Total number of stock change events that could not be published after a committed write",
		},
	)

	EventsReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_sync_events_received_total",
			Help: "Total number of payloads received by the listener loop",
		},
	)

	EventsAppliedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_sync_events_applied_total",
			Help: "Total number of change events applied to the local mirror",
		},
	)

	EventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_sync_events_dropped_total",
			Help: "Total number of malformed payloads dropped by the listener loop",
		},
	)

	ReceiveErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_sync_receive_errors_total",
			Help: "Total number of transient receive errors seen by the listener loop",
		},
	)

	ChannelOverflowTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_sync_channel_overflow_total",
			Help: "Total number of payloads dropped because an in-process subscriber was full",
		},
	)

	ListenerUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_sync_listener_up",
			Help: "1 while the listener loop holds a live subscription, 0 otherwise",
		},
	)

	MirrorProducts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_sync_mirror_products",
			Help: "Number of products currently held in the local mirror",
		},
	)
)

// Register registers all Prometheus metrics
func Register() {
	prometheus.MustRegister(EventsPublishedTotal)
	prometheus.MustRegister(PublishErrorsTotal)
	prometheus.MustRegister(EventsReceivedTotal)
	prometheus.MustRegister(EventsAppliedTotal)
	prometheus.MustRegister(EventsDroppedTotal)
	prometheus.MustRegister(ReceiveErrorsTotal)
	prometheus.MustRegister(ChannelOverflowTotal)
	prometheus.MustRegister(ListenerUp)
	prometheus.MustRegister(MirrorProducts)
}
