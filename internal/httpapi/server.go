// Package httpapi serves the diary over HTTP as JSON.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/calvinalkan/diary/internal/diary"
)

// Store is the subset of [diary.Store] the API needs.
type Store interface {
	List(ctx context.Context) ([]diary.Entry, error)
	Get(ctx context.Context, key string) (diary.Entry, bool, error)
	Upsert(ctx context.Context, key, title, body string) (diary.Entry, error)
	Delete(ctx context.Context, key string) (bool, error)
}

// Options configures [New].
type Options struct {
	Store Store

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Registry receives HTTP metrics and is served on /metrics. If nil a
	// private registry is created.
	Registry *prometheus.Registry

	// WriteRateLimit caps PUT and DELETE requests per second per client IP.
	// Zero or negative disables the limit.
	WriteRateLimit float64
}

// Server is the diary HTTP server.
type Server struct {
	echo  *echo.Echo
	store Store
	log   *zap.Logger
}

// CustomValidator adapts go-playground/validator to echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs.
func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

func newValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("datekey", func(fl validator.FieldLevel) bool {
		return diary.ValidKey(fl.Field().String())
	})

	return &CustomValidator{validator: v}
}

// New builds the server and its routes. It does not listen.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("httpapi: Options.Store is required")
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()
	e.HTTPErrorHandler = errorHandler(log)

	s := &Server{echo: e, store: opts.Store, log: log}

	err := s.setupMiddleware(reg)
	if err != nil {
		return nil, err
	}

	s.setupRoutes(reg, opts.WriteRateLimit)

	return s, nil
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Serve accepts connections on ln until [Server.Shutdown] is called.
// It returns nil after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))

	s.echo.Listener = ln

	err := s.echo.Start("")
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down")

	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware(reg prometheus.Registerer) error {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
			}

			if v.Error != nil {
				s.log.Error("request failed", append(fields, zap.Error(v.Error))...)
			} else {
				s.log.Info("request", fields...)
			}

			return nil
		},
	}))

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diary_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diary_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	err := reg.Register(requests)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	err = reg.Register(duration)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			requests.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).Inc()
			duration.WithLabelValues(c.Request().Method, c.Path()).Observe(time.Since(start).Seconds())

			return err
		}
	})

	return nil
}

func (s *Server) setupRoutes(reg *prometheus.Registry, writeRate float64) {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	var writeMW []echo.MiddlewareFunc
	if writeRate > 0 {
		writeMW = append(writeMW, middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(writeRate),
				Burst:     max(1, int(writeRate)),
				ExpiresIn: 3 * time.Minute,
			}),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			DenyHandler: func(_ echo.Context, _ string, _ error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests.")
			},
		}))
	}

	h := &diaryHandler{store: s.store, log: s.log}

	api := s.echo.Group("/api")
	api.GET("/diary", h.get)
	api.PUT("/diary", h.put, writeMW...)
	api.DELETE("/diary", h.delete, writeMW...)
}

// errorHandler renders every error as {"error": message}. Anything that is
// not an *echo.HTTPError is logged and reported as a bare 500.
func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code

			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		}

		if code >= http.StatusInternalServerError {
			log.Error("internal server error", zap.Error(err), zap.String("path", c.Request().URL.Path))
		}

		if c.Response().Committed {
			return
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(code)
		} else {
			sendErr = c.JSON(code, errorResponse{Error: msg})
		}

		if sendErr != nil {
			log.Error("send error response", zap.Error(sendErr))
		}
	}
}
