// Package httpserver exposes the current tempo estimate over HTTP. It is the
// UI sink of the analyzer: SetBPM is fire-and-forget, readers poll the JSON
// endpoint. The Prometheus registry is mounted on /metrics.
package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiki442002/go-bpm-analyzer/internal/conf"
	"github.com/kiki442002/go-bpm-analyzer/internal/logging"
)

// bpmResponse is the payload of the BPM endpoint.
type bpmResponse struct {
	BPM  float64 `json:"bpm"`
	Text string  `json:"bpm_text"`
	Band string  `json:"band"`
}

// BandReader reports the active tempo band for the status payload.
type BandReader interface {
	CurrentBand() string
}

// Server is an echo HTTP server publishing the current estimate.
type Server struct {
	settings *conf.Settings
	echo     *echo.Echo
	log      *slog.Logger
	band     BandReader

	current atomic.Pointer[bpmResponse]
}

// New creates a Server. registry may be nil to skip the metrics endpoint,
// band may be nil when no band information is available.
func New(settings *conf.Settings, registry *prometheus.Registry, band BandReader) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		settings: settings,
		echo:     e,
		log:      logging.ForService("httpserver"),
		band:     band,
	}
	s.current.Store(&bpmResponse{Text: "0.00"})

	e.GET("/api/v1/bpm", s.getBPM)
	if registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return s
}

// SetBPM stores the latest smoothed estimate. Implements the UI sink
// contract, no backpressure.
func (s *Server) SetBPM(bpm float64) {
	resp := &bpmResponse{
		BPM:  bpm,
		Text: strconv.FormatFloat(bpm, 'f', 2, 64),
	}
	if s.band != nil {
		resp.Band = s.band.CurrentBand()
	}
	s.current.Store(resp)
}

func (s *Server) getBPM(c echo.Context) error {
	resp := *s.current.Load()
	if s.band != nil {
		resp.Band = s.band.CurrentBand()
	}
	return c.JSON(http.StatusOK, &resp)
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	listen := s.settings.Realtime.HTTP.Listen
	go func() {
		if err := s.echo.Start(listen); err != nil && err != http.ErrServerClosed {
			s.log.Error("HTTP server error", "listen", listen, "error", err)
		}
	}()
	s.log.Info("HTTP server started", "listen", listen)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
