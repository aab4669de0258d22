package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Aman3008akn/chitchat/internal/domain"
	"github.com/Aman3008akn/chitchat/internal/storage"
)

const defaultFetchInterval = 30 * time.Second

// Applier projects a UIConfig onto the live presentation layer. Apply must be
// idempotent for a given config.
type Applier interface {
	Apply(cfg domain.UIConfig)
}

// ConfigService polls the remote UI config endpoint, detects changes by the
// (version, lastUpdated) pair, applies them and keeps a last-known-good copy
// in durable storage.
type ConfigService struct {
	logger   *zap.Logger
	kv       storage.KV
	applier  Applier
	endpoint string
	interval time.Duration
	client   *http.Client

	mu        sync.Mutex
	current   *domain.UIConfig
	lastFetch time.Time
	nextSubID int
	subs      map[int]func(domain.UIConfig)
}

func NewConfigService(logger *zap.Logger, kv storage.KV, applier Applier, endpoint string, interval time.Duration) *ConfigService {
	if interval <= 0 {
		interval = defaultFetchInterval
	}
	return &ConfigService{
		logger:   logger,
		kv:       kv,
		applier:  applier,
		endpoint: endpoint,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		subs:     make(map[int]func(domain.UIConfig)),
	}
}

// Subscribe registers a callback invoked with every newly applied config and
// returns its unsubscribe function.
func (s *ConfigService) Subscribe(callback func(domain.UIConfig)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = callback
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// FetchLatestConfig fetches the remote document with a cache-busting query
// parameter. Unchanged documents are ignored; changed ones are held, applied,
// broadcast and cached. On any failure the cached copy is used instead, and
// an error is returned only when no cache exists either.
func (s *ConfigService) FetchLatestConfig(ctx context.Context) (*domain.UIConfig, error) {
	cfg, err := s.fetchRemote(ctx)
	if err != nil {
		s.logger.Warn("ui config fetch failed, falling back to cache", zap.Error(err))
		if cached := s.loadCached(ctx); cached != nil {
			return cached, nil
		}
		return nil, err
	}

	s.mu.Lock()
	changed := s.current == nil ||
		s.current.Version != cfg.Version ||
		s.current.LastUpdated != cfg.LastUpdated
	if changed {
		s.current = cfg
	}
	s.lastFetch = time.Now()
	var callbacks []func(domain.UIConfig)
	if changed {
		for _, cb := range s.subs {
			callbacks = append(callbacks, cb)
		}
	}
	s.mu.Unlock()

	if changed {
		s.logger.Info("new ui config detected, applying",
			zap.String("version", cfg.Version),
			zap.String("last_updated", cfg.LastUpdated))
		s.ApplyConfigInstantly(*cfg)
		for _, cb := range callbacks {
			cb(*cfg)
		}
		s.cache(ctx, cfg)
	}
	return cfg, nil
}

// ApplyConfigInstantly projects the config onto the presentation layer.
func (s *ConfigService) ApplyConfigInstantly(cfg domain.UIConfig) {
	s.applier.Apply(cfg)
}

// StartAutoRefresh fetches once immediately, then on a fixed interval until
// ctx is cancelled. In normal operation ctx is the process context, so the
// ticker runs for the process lifetime.
func (s *ConfigService) StartAutoRefresh(ctx context.Context) {
	go func() {
		if _, err := s.FetchLatestConfig(ctx); err != nil {
			s.logger.Warn("initial ui config fetch failed", zap.Error(err))
		}
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.FetchLatestConfig(ctx); err != nil {
					s.logger.Warn("ui config refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

// ForceRefresh resets the staleness clock and refetches unconditionally.
func (s *ConfigService) ForceRefresh(ctx context.Context) (*domain.UIConfig, error) {
	s.mu.Lock()
	s.lastFetch = time.Time{}
	s.mu.Unlock()
	return s.FetchLatestConfig(ctx)
}

// CurrentConfig returns a copy of the held config, or nil before the first
// successful fetch or cache load.
func (s *ConfigService) CurrentConfig() *domain.UIConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// IsStale reports whether the last fetch is older than the refresh interval.
func (s *ConfigService) IsStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastFetch) > s.interval
}

// Age returns the time since the last successful fetch.
func (s *ConfigService) Age() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastFetch)
}

func (s *ConfigService) fetchRemote(ctx context.Context) (*domain.UIConfig, error) {
	url := fmt.Sprintf("%s?v=%d", s.endpoint, time.Now().UnixMilli())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ui config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ui config fetch: status=%d", resp.StatusCode)
	}

	var cfg domain.UIConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode ui config: %w", err)
	}
	return &cfg, nil
}

// loadCached restores and applies the last-known-good config from durable
// storage. Cache misses and malformed documents yield nil.
func (s *ConfigService) loadCached(ctx context.Context) *domain.UIConfig {
	raw, err := s.kv.Get(ctx, storage.KeyUIConfig)
	if err != nil {
		if err != storage.ErrKeyNotFound {
			s.logger.Warn("load cached ui config failed", zap.Error(err))
		}
		return nil
	}

	var cfg domain.UIConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		s.logger.Warn("cached ui config malformed", zap.Error(err))
		return nil
	}

	s.mu.Lock()
	s.current = &cfg
	s.mu.Unlock()
	s.ApplyConfigInstantly(cfg)
	return &cfg
}

func (s *ConfigService) cache(ctx context.Context, cfg *domain.UIConfig) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		s.logger.Warn("marshal ui config failed", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, storage.KeyUIConfig, raw); err != nil {
		s.logger.Warn("cache ui config failed", zap.Error(err))
		return
	}
	stamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := s.kv.Set(ctx, storage.KeyUIConfigFetched, []byte(stamp)); err != nil {
		s.logger.Warn("cache ui config timestamp failed", zap.Error(err))
	}
}
