// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package bangumi

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Ngyama/bgm-game-report/internal/logging"
	"github.com/Ngyama/bgm-game-report/internal/metrics"
)

// CircuitBreakerClient wraps Client with a circuit breaker on the
// subject-detail path. Detail fetches already degrade per subject, so when
// the upstream API is down the breaker sheds the remaining calls quickly
// instead of letting every subject wait out a transport timeout. It never
// retries; a shed call degrades exactly like a failed one.
//
// The breaker intentionally does not cover user or collection fetches:
// those are fatal-on-failure operations issued once per report.
type CircuitBreakerClient struct {
	*Client
	cb *gobreaker.CircuitBreaker[*SubjectPayload]
}

// Ensure CircuitBreakerClient implements ClientInterface
var _ ClientInterface = (*CircuitBreakerClient)(nil)

// NewCircuitBreakerClient wraps the given client. The breaker opens after a
// 60% failure rate over at least 10 requests and probes again after 1 minute.
func NewCircuitBreakerClient(client *Client) *CircuitBreakerClient {
	const cbName = "bangumi-subject"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[*SubjectPayload](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3, // probes allowed in half-open state
		Interval:    time.Minute,
		Timeout:     time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &CircuitBreakerClient{Client: client, cb: cb}
}

// GetSubject fetches a subject detail payload through the circuit breaker.
func (c *CircuitBreakerClient) GetSubject(ctx context.Context, id int) (*SubjectPayload, error) {
	return c.cb.Execute(func() (*SubjectPayload, error) {
		return c.Client.GetSubject(ctx, id)
	})
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
