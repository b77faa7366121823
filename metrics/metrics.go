package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	Utterances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_commander_utterances_total",
			Help: "Recognition cycles by outcome (silence, matched, unmatched)",
		},
		[]string{"outcome"},
	)

	Actions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_commander_actions_total",
			Help: "Executed actions by kind",
		},
		[]string{"action"},
	)

	ActionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_commander_action_failures_total",
			Help: "Actions that returned an error, by kind",
		},
		[]string{"action"},
	)

	PartyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voice_commander_party_duration_seconds",
			Help:    "Wall time of a party run from fork to join",
			Buckets: prometheus.LinearBuckets(2, 2, 10),
		},
	)
)

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("metrics listening")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
