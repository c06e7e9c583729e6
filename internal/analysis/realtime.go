// Package analysis wires the capture, estimation and publishing components
// together for the realtime command.
package analysis

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kiki442002/go-bpm-analyzer/internal/conf"
	"github.com/kiki442002/go-bpm-analyzer/internal/httpserver"
	"github.com/kiki442002/go-bpm-analyzer/internal/logging"
	"github.com/kiki442002/go-bpm-analyzer/internal/mqtt"
	"github.com/kiki442002/go-bpm-analyzer/internal/myaudio"
	"github.com/kiki442002/go-bpm-analyzer/internal/observability/metrics"
	"github.com/kiki442002/go-bpm-analyzer/internal/tempo"
)

const shutdownTimeout = 5 * time.Second

// bandReader adapts the analyzer for the HTTP status payload. The analyzer
// is set after construction because the HTTP server doubles as its UI sink.
type bandReader struct {
	analyzer *tempo.Analyzer
}

func (r *bandReader) CurrentBand() string {
	if r.analyzer == nil {
		return ""
	}
	return r.analyzer.CurrentBand().Key
}

// RealtimeAnalysis starts the tempo estimator on the configured capture
// device and runs until a termination signal arrives.
func RealtimeAnalysis(settings *conf.Settings) error {
	log := logging.ForService("analysis")

	cacheDir, err := conf.PatternCacheDir(settings)
	if err != nil {
		return err
	}
	store := tempo.NewStore(cacheDir)

	registry := prometheus.NewRegistry()
	tempoMetrics, err := metrics.NewTempoMetrics(registry)
	if err != nil {
		return err
	}

	var ui tempo.UISink = tempo.NopSink{}
	var server *httpserver.Server
	reader := &bandReader{}
	if settings.Realtime.HTTP.Enabled {
		server = httpserver.New(settings, registry, reader)
		ui = server
	}

	var peer tempo.SyncPeer = tempo.NopPeer{}
	if settings.Realtime.MQTT.Enabled {
		peer = mqtt.NewPeer(settings)
	}

	streamer := myaudio.NewStreamer(settings)

	analyzer, err := tempo.NewAnalyzer(settings, store, streamer, ui, peer, tempoMetrics)
	if err != nil {
		return err
	}
	reader.analyzer = analyzer

	if server != nil {
		server.Start()
	}

	if err := analyzer.Start(settings.Audio.Device); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("termination signal received", "signal", sig.String())

	stopErr := analyzer.Stop()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn("error shutting down HTTP server", "error", err)
		}
	}

	return stopErr
}
