package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/secret-toaster/internal/repository"
)

// TimerListener listens for Redis keyspace notifications on expired timer keys
// and triggers round resolution when a game's round deadline expires. Also
// runs a polling fallback to catch expirations if keyspace notifications are
// unavailable or the notify-keyspace-events config was never set.
type TimerListener struct {
	rdb       *redis.Client
	roundSvc  *RoundService
	roundRepo repository.RoundRepository
}

// NewTimerListener creates a TimerListener.
func NewTimerListener(rdb *redis.Client, roundSvc *RoundService, roundRepo repository.RoundRepository) *TimerListener {
	return &TimerListener{rdb: rdb, roundSvc: roundSvc, roundRepo: roundRepo}
}

// Start begins listening for expired key events and runs a polling fallback.
func (t *TimerListener) Start(ctx context.Context) {
	go t.listenKeyspace(ctx)
	t.pollExpiredRounds(ctx)
}

// listenKeyspace subscribes to Redis keyspace notifications for expired keys.
func (t *TimerListener) listenKeyspace(ctx context.Context) {
	pubsub := t.rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	defer pubsub.Close()

	log.Info().Msg("Timer listener started, listening for expired keys")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			t.handleExpiry(ctx, msg.Payload)
		}
	}
}

// pollExpiredRounds periodically checks for rounds past their deadline and resolves them.
func (t *TimerListener) pollExpiredRounds(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	log.Info().Msg("Round deadline poller started (10s interval)")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Round deadline poller stopped")
			return
		case <-ticker.C:
			t.checkExpiredRounds(ctx)
		}
	}
}

// checkExpiredRounds finds active rounds past their deadline and resolves them.
func (t *TimerListener) checkExpiredRounds(ctx context.Context) {
	rounds, err := t.roundRepo.ListExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list expired rounds")
		return
	}
	if len(rounds) > 0 {
		log.Info().Int("count", len(rounds)).Msg("Poller found expired rounds")
	}
	for _, rd := range rounds {
		log.Info().Str("gameId", rd.GameID).Int("roundNumber", rd.RoundNumber).
			Time("deadline", rd.Deadline).Msg("Poller resolving expired round")
		if err := t.roundSvc.ResolveRound(ctx, rd.GameID); err != nil {
			log.Error().Err(err).Str("gameId", rd.GameID).Msg("Round resolution failed from poller")
		}
	}
}

// handleExpiry processes an expired key. Only acts on game timer keys.
func (t *TimerListener) handleExpiry(ctx context.Context, key string) {
	if !strings.HasPrefix(key, "game:") || !strings.HasSuffix(key, ":timer") {
		return
	}

	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 {
		return
	}
	gameID := parts[1]

	log.Info().Str("gameId", gameID).Msg("Timer expired, triggering round resolution")
	if err := t.roundSvc.ResolveRound(ctx, gameID); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Round resolution failed after timer expiry")
	}
}
