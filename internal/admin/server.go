// Package admin serves the order debug admin page, its JSON API and the event
// webhook.
package admin

import (
	"context"
	stderrs "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/orderdebug"
	"github.com/Station-Manager/orderdebug/internal/metrics"
	"github.com/Station-Manager/orderdebug/internal/oplog"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SourceWebhook labels events that arrived through POST /api/v1/events.
const SourceWebhook = "webhook"

const maxEventBody = "1M"

const (
	errMsgNilDebugger = "Admin server needs a debugger."
	errMsgNilBus      = "Admin server needs an event bus."
	errMsgNoAddr      = "Admin server address is empty."
)

// Debugger is what the admin surface needs from the order debug service.
type Debugger interface {
	Active() bool
	Settings() orderdebug.Settings
	UpdateSettings(ctx context.Context, s orderdebug.Settings) error
	ClearLog() error
	LogContents() (string, error)
	SeenOrders() int
}

// Publisher delivers webhook events to listeners.
type Publisher interface {
	Publish(ctx context.Context, ev orderdebug.Event) int
}

type Server struct {
	echo     *echo.Echo
	debugger Debugger
	bus      Publisher
	logger   oplog.Logger
	addr     string
}

func NewServer(addr string, debugger Debugger, bus Publisher, logger oplog.Logger) (*Server, error) {
	const op errors.Op = "admin.NewServer"
	if debugger == nil {
		return nil, errors.New(op).Msg(errMsgNilDebugger)
	}
	if bus == nil {
		return nil, errors.New(op).Msg(errMsgNilBus)
	}
	if addr == "" {
		return nil, errors.New(op).Msg(errMsgNoAddr)
	}
	if logger == nil {
		logger = oplog.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = newPageRenderer()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	s := &Server{
		echo:     e,
		debugger: debugger,
		bus:      bus,
		logger:   logger,
		addr:     addr,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handlePage)
	s.echo.POST("/settings", s.handleSettingsForm)
	s.echo.POST("/clear", s.handleClearForm)

	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/settings", s.handleGetSettings)
	v1.PUT("/settings", s.handlePutSettings)
	v1.GET("/log", s.handleGetLog)
	v1.DELETE("/log", s.handleDeleteLog)
	v1.POST("/events", s.handleEvent, middleware.BodyLimit(maxEventBody))
}

// Start serves until Shutdown. http.ErrServerClosed is not an error.
func (s *Server) Start() error {
	const op errors.Op = "admin.Server.Start"
	s.logger.InfoWith().Str("addr", s.addr).Msg("Admin server starting.")
	if err := s.echo.Start(s.addr); err != nil && !stderrs.Is(err, http.ErrServerClosed) {
		return errors.New(op).Err(err).Msg("Admin server failed.")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.InfoWith().Msg("Admin server shutting down.")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be mounted or exercised without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func requestLogger(logger oplog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()

			logger.DebugWith().
				Str("method", c.Request().Method).
				Str("uri", c.Request().RequestURI).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("http request")
			return nil
		}
	}
}
