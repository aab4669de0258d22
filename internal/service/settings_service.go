package service

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Aman3008akn/chitchat/internal/domain"
	"github.com/Aman3008akn/chitchat/internal/storage"
)

// SettingsService persists user-adjustable preferences as one JSON document.
type SettingsService struct {
	logger *zap.Logger
	kv     storage.KV

	mu       sync.Mutex
	settings domain.Settings
}

func NewSettingsService(logger *zap.Logger, kv storage.KV) *SettingsService {
	return &SettingsService{logger: logger, kv: kv, settings: domain.DefaultSettings()}
}

// Load restores persisted settings over the defaults. Missing or malformed
// documents leave the defaults in place.
func (s *SettingsService) Load(ctx context.Context) {
	raw, err := s.kv.Get(ctx, storage.KeySettings)
	if err != nil {
		if err != storage.ErrKeyNotFound {
			s.logger.Warn("load settings failed", zap.Error(err))
		}
		return
	}

	loaded := domain.DefaultSettings()
	if err := json.Unmarshal(raw, &loaded); err != nil {
		s.logger.Warn("settings document malformed, keeping defaults", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.settings = loaded
	s.mu.Unlock()
}

func (s *SettingsService) Get() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Update applies a partial patch and persists the full document.
func (s *SettingsService) Update(ctx context.Context, patch domain.SettingsPatch) domain.Settings {
	s.mu.Lock()
	if patch.Voice != nil {
		s.settings.Voice = *patch.Voice
	}
	if patch.BackgroundConversations != nil {
		s.settings.BackgroundConversations = *patch.BackgroundConversations
	}
	if patch.Autocomplete != nil {
		s.settings.Autocomplete = *patch.Autocomplete
	}
	if patch.TrendingSearches != nil {
		s.settings.TrendingSearches = *patch.TrendingSearches
	}
	if patch.FollowUpSuggestions != nil {
		s.settings.FollowUpSuggestions = *patch.FollowUpSuggestions
	}
	updated := s.settings
	s.mu.Unlock()

	raw, err := json.Marshal(updated)
	if err != nil {
		s.logger.Warn("marshal settings failed", zap.Error(err))
		return updated
	}
	if err := s.kv.Set(ctx, storage.KeySettings, raw); err != nil {
		s.logger.Warn("persist settings failed", zap.Error(err))
	}
	return updated
}
