package metrics

import "time"

// Event names shared by the components that record metrics.
const (
	QueryHit        = "query_hit"
	QueryMiss       = "query_miss"
	QueryDedup      = "query_dedup"
	QuerySuperseded = "query_superseded"
	QueryAbandoned  = "query_abandoned"
	QueryFailed     = "query_failed"
	QueryFetch      = "query_fetch"

	HydrateConnected    = "hydrate_connected"
	HydrateDisconnected = "hydrate_disconnected"
)

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
