package middleware

import (
	"strconv"
	"strings"
	"time"

	"go-variant-inventory/internal/handler"
	"go-variant-inventory/internal/metrics"
	"go-variant-inventory/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ActorHeader carries the caller identity set by the upstream gateway.
const ActorHeader = "X-Actor"

// RequestContext puts the actor and a request-scoped logger into the request.
// It must run after the requestid middleware.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := strings.TrimSpace(c.Get(ActorHeader))
		if actor == "" {
			actor = "system"
		}
		c.Locals(handler.ActorKey, actor)

		log := logger.L.With("actor", actor)
		if id, ok := c.Locals("requestid").(string); ok && id != "" {
			log = log.With("request_id", id)
		}
		c.SetUserContext(logger.Inject(c.UserContext(), log))
		return c.Next()
	}
}

// Metrics records request latency by route pattern.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		metrics.RequestInFlight.Inc()
		defer metrics.RequestInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		metrics.RequestDuration.
			WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
