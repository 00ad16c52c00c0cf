package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"threadhub/post"
)

// Result labels.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultCanceled = "canceled"
	ResultError    = "error"
)

// Recorder counts feed operations and votes on its own registry.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	votes      *prometheus.CounterVec
}

// NewRecorder creates a Recorder with Go runtime and process collectors
// registered next to the feed metrics.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threadhub",
			Name:      "operations_total",
			Help:      "Feed operations by name and outcome.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "threadhub",
			Name:      "operation_duration_seconds",
			Help:      "Feed operation latency including simulated delay.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threadhub",
			Name:      "votes_total",
			Help:      "Accepted votes by direction.",
		}, []string{"vote"}),
	}

	r.registry.MustRegister(
		r.operations,
		r.duration,
		r.votes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records one finished operation.
func (r *Recorder) Observe(op string, started time.Time, err error) {
	r.operations.WithLabelValues(op, Result(err)).Inc()
	r.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// ObserveVote records an accepted vote.
func (r *Recorder) ObserveVote(v post.Vote) {
	r.votes.WithLabelValues(string(v)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Result maps an operation error onto a result label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, post.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, post.ErrInvalidArgument):
		return ResultInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	}
	return ResultError
}
