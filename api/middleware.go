package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/parking/internal/domain"
	"github.com/Domenick1991/parking/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "Bearer"
	principalKey        = "principal"
)

// Authenticator turns a bearer token into the caller's principal.
type Authenticator interface {
	Authenticate(token string) (domain.Principal, error)
}

// Authenticate resolves the caller's principal. Requests without an
// Authorization header continue as anonymous; malformed or invalid tokens
// are rejected.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeader)
		if header == "" {
			c.Set(principalKey, domain.Anonymous())
			c.Next()
			return
		}

		fields := strings.Fields(header)
		if len(fields) != 2 || !strings.EqualFold(fields[0], bearerScheme) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error: "invalid authorization header",
				Kind:  domain.KindUnauthenticated,
			})
			return
		}

		principal, err := auth.Authenticate(fields[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error: "invalid or expired token",
				Kind:  domain.KindUnauthenticated,
			})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func principalFrom(c *gin.Context) domain.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(domain.Principal); ok {
			return p
		}
	}
	return domain.Anonymous()
}

// Observe records request counts and latency per matched route.
func Observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}

// RequestLogger writes one line per request. Server errors are logged at
// error level, the metrics scrape at debug.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := routeOf(c)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if last := c.Errors.Last(); last != nil {
			fields = append(fields,
				zap.String("error_kind", string(domain.KindOf(last.Err))),
				zap.Error(last.Err),
			)
		}

		switch {
		case route == "/metrics":
			log.Debug("http_request", fields...)
		case status >= http.StatusInternalServerError:
			log.Error("http_request", fields...)
		default:
			log.Info("http_request", fields...)
		}
	}
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}
