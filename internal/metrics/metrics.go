// Package metrics exposes process counters through expvar.
package metrics

import "expvar"

var (
	PollsDispatched = expvar.NewInt("polls_dispatched")
	PollsApplied    = expvar.NewInt("polls_applied")
	PollsStale      = expvar.NewInt("polls_stale")
	PollErrors      = expvar.NewInt("poll_errors")

	MutationsSent    = expvar.NewInt("mutations_sent")
	MutationFailures = expvar.NewInt("mutation_failures")
	TradesThrottled  = expvar.NewInt("trades_throttled")
)
