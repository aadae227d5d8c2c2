package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/Domenick1991/parking/internal/metrics"
	"github.com/Domenick1991/parking/internal/service/auth"
	"github.com/Domenick1991/parking/internal/service/booking"
	"github.com/Domenick1991/parking/internal/service/lots"
	"github.com/Domenick1991/parking/internal/service/reporting"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type Dependencies struct {
	Auth     auth.AuthUseCase
	Lots     lots.LotUseCase
	Bookings booking.BookingUseCase
	Reports  reporting.ReportingUseCase
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Checks   map[string]HealthCheck
}

func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log.Named("http")), Observe(deps.Metrics))

	r.GET("/healthz", healthz(deps.Checks))
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	NewAuthHandler(deps.Auth).Register(r.Group("/api/auth"))

	api := r.Group("/api", Authenticate(deps.Auth))
	lotHandler := NewLotHandler(deps.Lots)
	reportHandler := NewReportHandler(deps.Reports)

	lotHandler.Register(api)
	NewBookingHandler(deps.Bookings).Register(api)
	reportHandler.Register(api.Group("/me"))

	admin := api.Group("/admin")
	lotHandler.RegisterAdmin(admin)
	reportHandler.RegisterAdmin(admin)

	return r
}

func healthz(checks map[string]HealthCheck) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		result := gin.H{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": result})
	}
}
