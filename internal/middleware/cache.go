package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/cache"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/metrics"
)

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

// CacheResponses serves GET responses from the TTL cache, keyed by route
// prefix plus the request's query parameters and authenticated user. Only
// 2xx responses are stored. Non-GET requests pass straight through.
func CacheResponses(store *cache.Cache, prefix string, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}

		params := map[string]string{}
		c.Context().QueryArgs().VisitAll(func(k, v []byte) {
			params[string(k)] = string(v)
		})
		if userID, ok := c.Locals(LocalUserID).(string); ok {
			params["_uid"] = userID
		}
		key := cache.Key(prefix, params)

		if v, ok := store.Get(key); ok {
			if resp, ok := v.(cachedResponse); ok {
				metrics.CacheHits.Inc()
				c.Set("X-Cache", "HIT")
				c.Set(fiber.HeaderContentType, resp.contentType)
				return c.Status(resp.status).Send(resp.body)
			}
		}
		metrics.CacheMisses.Inc()
		c.Set("X-Cache", "MISS")

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status >= 200 && status < 300 {
			body := make([]byte, len(c.Response().Body()))
			copy(body, c.Response().Body())
			store.Set(key, cachedResponse{
				status:      status,
				contentType: string(c.Response().Header.ContentType()),
				body:        body,
			}, ttl)
		}
		return nil
	}
}
