// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path", "status"},
	)

	// ActionsTotal counts actions reaching a status, by tool.
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_actions_total",
			Help: "Actions by tool and resulting status",
		},
		[]string{"tool", "status"},
	)

	// QuotaRejectionsTotal counts messages refused by the monthly limit.
	QuotaRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_quota_rejections_total",
			Help: "Messages rejected because the plan limit was reached",
		},
		[]string{"plan"},
	)

	// LLMRequestDuration tracks provider round trips.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_llm_request_duration_seconds",
			Help:    "LLM completion duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"provider", "status"},
	)

	// LLMTokensTotal tracks tokens reported by providers.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"provider", "direction"},
	)

	// MessagesTotal counts stored messages.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_messages_total",
			Help: "Messages stored, by role and status",
		},
		[]string{"role", "status"},
	)

	// WebSocketConnectionsActive tracks open action feed sockets on this instance.
	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_websocket_connections_active",
			Help: "Number of open websocket connections",
		},
	)
)

func RecordAction(tool, status string) {
	ActionsTotal.WithLabelValues(tool, status).Inc()
}

func RecordQuotaRejection(plan string) {
	QuotaRejectionsTotal.WithLabelValues(plan).Inc()
}

// RecordLLMRequest records one provider call with its token usage.
func RecordLLMRequest(provider, status string, duration time.Duration, tokensIn, tokensOut int) {
	LLMRequestDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
	LLMTokensTotal.WithLabelValues(provider, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(provider, "out").Add(float64(tokensOut))
}

func RecordMessage(role, status string) {
	MessagesTotal.WithLabelValues(role, status).Inc()
}

// Middleware times every request. The route pattern is used as the path label
// so ids do not explode cardinality. Errors have not been rendered yet when
// the chain returns, so statusOf maps them to the code the error handler will use.
func Middleware(statusOf func(error) int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		path := c.Route().Path
		RequestDuration.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		return err
	}
}
