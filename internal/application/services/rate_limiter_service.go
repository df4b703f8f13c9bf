package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parkscope/analysis-api/internal/core/domain/ratelimit"
	"github.com/parkscope/analysis-api/internal/core/ports"
)

// RateLimiterService implements fixed-window admission with an escalating
// block state on top of the shared key-value store. Counter updates are
// read-then-write and deliberately non-atomic: concurrent requests from the
// same client can each observe a stale count and both pass, a soft overcount
// bounded by the degree of concurrency. See the accompanying tests.
type RateLimiterService struct {
	store         ports.KeyValueStore
	alerts        ports.AlertNotifier
	ceiling       int
	window        time.Duration
	blockDuration time.Duration
	keyPrefix     string
	logger        *logrus.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// RateLimiterConfig groups configuration parameters for the rate limiter.
type RateLimiterConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	BlockDuration     time.Duration
	KeyPrefix         string
}

func NewRateLimiterService(store ports.KeyValueStore, alerts ports.AlertNotifier, cfg *RateLimiterConfig, logger *logrus.Logger) *RateLimiterService {
	// Apply defaults
	ceiling := 60
	window := time.Minute
	block := 5 * time.Minute
	prefix := "ratelimit"
	if cfg != nil {
		if cfg.RequestsPerWindow > 0 {
			ceiling = cfg.RequestsPerWindow
		}
		if cfg.Window > 0 {
			window = cfg.Window
		}
		if cfg.BlockDuration > 0 {
			block = cfg.BlockDuration
		}
		if cfg.KeyPrefix != "" {
			prefix = cfg.KeyPrefix
		}
	}
	return &RateLimiterService{
		store:         store,
		alerts:        alerts,
		ceiling:       ceiling,
		window:        window,
		blockDuration: block,
		keyPrefix:     prefix,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *RateLimiterService) counterKey(clientID string, windowStart time.Time) string {
	return fmt.Sprintf("%s:count:%s:%d", s.keyPrefix, clientID, windowStart.Unix())
}

func (s *RateLimiterService) blockKey(clientID string) string {
	return fmt.Sprintf("%s:block:%s", s.keyPrefix, clientID)
}

// Admit evaluates one request against the client's window counter and block
// state. Any store failure fails open: the request is allowed with full
// remaining quota and the degraded mode is logged.
func (s *RateLimiterService) Admit(ctx context.Context, clientID string) (*ratelimit.Decision, error) {
	now := s.now()
	windowStart := now.Truncate(s.window)
	nextReset := windowStart.Add(s.window)

	block, err := s.loadBlock(ctx, clientID)
	if err != nil {
		s.failOpen(clientID, "read block", err)
		return &ratelimit.Decision{Allowed: true, Remaining: s.ceiling, Reset: nextReset}, nil
	}
	if block != nil {
		if !block.Expired(now) {
			return &ratelimit.Decision{Allowed: false, Remaining: 0, Reset: block.UnblockTime}, nil
		}
		// Expired block: self-heal back to the counting state. Racing the
		// store's own TTL expiry is harmless, deletion is idempotent.
		if err := s.store.Delete(ctx, s.blockKey(clientID)); err != nil {
			s.failOpen(clientID, "delete expired block", err)
			return &ratelimit.Decision{Allowed: true, Remaining: s.ceiling, Reset: nextReset}, nil
		}
	}

	count, err := s.loadCount(ctx, clientID, windowStart)
	if err != nil {
		s.failOpen(clientID, "read counter", err)
		return &ratelimit.Decision{Allowed: true, Remaining: s.ceiling, Reset: nextReset}, nil
	}

	if count >= s.ceiling {
		newBlock := &ratelimit.Block{
			ClientID:    clientID,
			BlockedAt:   now,
			UnblockTime: now.Add(s.blockDuration),
			Reason:      ratelimit.ReasonRateLimitExceeded,
		}
		if err := s.storeBlock(ctx, newBlock); err != nil {
			s.failOpen(clientID, "write block", err)
			return &ratelimit.Decision{Allowed: true, Remaining: s.ceiling, Reset: nextReset}, nil
		}
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"client_id":    clientID,
				"unblock_time": newBlock.UnblockTime,
			}).Warn("rate limiter: client blocked")
		}
		s.notifyBlocked(newBlock)
		return &ratelimit.Decision{Allowed: false, Remaining: 0, Reset: newBlock.UnblockTime}, nil
	}

	if err := s.store.Put(ctx, s.counterKey(clientID, windowStart), []byte(strconv.Itoa(count+1)), s.window); err != nil {
		s.failOpen(clientID, "write counter", err)
		return &ratelimit.Decision{Allowed: true, Remaining: s.ceiling, Reset: nextReset}, nil
	}

	return &ratelimit.Decision{Allowed: true, Remaining: s.ceiling - count - 1, Reset: nextReset}, nil
}

func (s *RateLimiterService) loadBlock(ctx context.Context, clientID string) (*ratelimit.Block, error) {
	raw, found, err := s.store.Get(ctx, s.blockKey(clientID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var block ratelimit.Block
	if err := json.Unmarshal(raw, &block); err != nil {
		// An unreadable block record must not lock the client out forever.
		return nil, err
	}
	return &block, nil
}

func (s *RateLimiterService) storeBlock(ctx context.Context, block *ratelimit.Block) error {
	raw, err := json.Marshal(block)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, s.blockKey(block.ClientID), raw, s.blockDuration)
}

func (s *RateLimiterService) loadCount(ctx context.Context, clientID string, windowStart time.Time) (int, error) {
	raw, found, err := s.store.Get(ctx, s.counterKey(clientID, windowStart))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	count, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *RateLimiterService) failOpen(clientID, op string, err error) {
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"client_id": clientID, "op": op}).
			WithError(err).Warn("rate limiter: store unavailable, failing open")
	}
}

func (s *RateLimiterService) notifyBlocked(block *ratelimit.Block) {
	if s.alerts == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.alerts.NotifyClientBlocked(ctx, block); err != nil && s.logger != nil {
			s.logger.WithField("client_id", block.ClientID).WithError(err).Warn("rate limiter: block alert failed")
		}
	}()
}
