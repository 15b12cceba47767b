package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	"github.com/damon-houk/currency-exchange-app/internal/domain/repository"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/middleware"
)

const preferencesKeyPrefix = "user_preferences:"

// PreferencesListener is called after a client's preferences change
type PreferencesListener func(clientID string, prefs entity.UserPreferences)

// PreferencesService handles loading and saving per-client preferences
type PreferencesService struct {
	store  repository.KeyValueStore
	logger logger.Logger

	mutex     sync.Mutex
	listeners map[int]PreferencesListener
	nextID    int
}

// NewPreferencesService creates a new preferences service
func NewPreferencesService(store repository.KeyValueStore, log logger.Logger) *PreferencesService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &PreferencesService{
		store:     store,
		logger:    log,
		listeners: make(map[int]PreferencesListener),
	}
}

// PreferencesKey returns the storage key of a client's preferences
func PreferencesKey(clientID string) string {
	return preferencesKeyPrefix + clientID
}

// GetPreferences returns the client's preferences, or the defaults when none were saved.
// The store is read on every call so that writes from other instances are seen.
func (s *PreferencesService) GetPreferences(ctx context.Context, clientID string) (entity.UserPreferences, error) {
	if clientID == "" {
		return entity.UserPreferences{}, fmt.Errorf("%w: client id is required", entity.ErrInvalidPreferences)
	}

	raw, found, err := s.store.GetItem(ctx, PreferencesKey(clientID))
	if err != nil {
		return entity.UserPreferences{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	if !found {
		return entity.DefaultPreferences(), nil
	}

	// fields missing from the stored document keep their defaults
	stored := entity.DefaultPreferences()
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.warnUnusable(ctx, clientID, "Stored preferences are corrupt, using defaults", err)
		return entity.DefaultPreferences(), nil
	}
	if stored.FavoriteCurrencies == nil {
		stored.FavoriteCurrencies = []string{}
	}
	if err := stored.Validate(); err != nil {
		s.warnUnusable(ctx, clientID, "Stored preferences are invalid, using defaults", err)
		return entity.DefaultPreferences(), nil
	}

	return stored, nil
}

func (s *PreferencesService) warnUnusable(ctx context.Context, clientID, msg string, err error) {
	s.logger.Warn(msg, map[string]interface{}{
		"request_id": middleware.GetRequestID(ctx),
		"client_id":  clientID,
		"error":      err.Error(),
	})
}

// SavePreferences validates and stores the client's preferences, then notifies subscribers
func (s *PreferencesService) SavePreferences(ctx context.Context, clientID string, prefs entity.UserPreferences) (entity.UserPreferences, error) {
	if clientID == "" {
		return entity.UserPreferences{}, fmt.Errorf("%w: client id is required", entity.ErrInvalidPreferences)
	}

	prefs = normalizePreferences(prefs)
	if err := prefs.Validate(); err != nil {
		return entity.UserPreferences{}, err
	}

	data, err := json.Marshal(prefs)
	if err != nil {
		return entity.UserPreferences{}, fmt.Errorf("failed to marshal preferences: %w", err)
	}
	if err := s.store.SetItem(ctx, PreferencesKey(clientID), string(data)); err != nil {
		s.logger.Error("Failed to save preferences", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"client_id":  clientID,
			"error":      err.Error(),
		})
		return entity.UserPreferences{}, fmt.Errorf("failed to save preferences: %w", err)
	}

	s.logger.Info("Preferences saved", map[string]interface{}{
		"request_id": middleware.GetRequestID(ctx),
		"client_id":  clientID,
	})

	s.notify(clientID, prefs)
	return clonePreferences(prefs), nil
}

// ResetPreferences removes the client's stored preferences and restores the defaults
func (s *PreferencesService) ResetPreferences(ctx context.Context, clientID string) (entity.UserPreferences, error) {
	if clientID == "" {
		return entity.UserPreferences{}, fmt.Errorf("%w: client id is required", entity.ErrInvalidPreferences)
	}

	if err := s.store.RemoveItem(ctx, PreferencesKey(clientID)); err != nil {
		return entity.UserPreferences{}, fmt.Errorf("failed to reset preferences: %w", err)
	}

	prefs := entity.DefaultPreferences()
	s.notify(clientID, prefs)
	return clonePreferences(prefs), nil
}

// Subscribe registers listener for preference changes and returns a function that removes it
func (s *PreferencesService) Subscribe(listener PreferencesListener) func() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = listener

	return func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		delete(s.listeners, id)
	}
}

// notify calls the listeners outside the lock
func (s *PreferencesService) notify(clientID string, prefs entity.UserPreferences) {
	s.mutex.Lock()
	listeners := make([]PreferencesListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mutex.Unlock()

	for _, l := range listeners {
		l(clientID, clonePreferences(prefs))
	}
}

func normalizePreferences(prefs entity.UserPreferences) entity.UserPreferences {
	prefs.DefaultFromCurrency = strings.ToUpper(strings.TrimSpace(prefs.DefaultFromCurrency))
	prefs.DefaultToCurrency = strings.ToUpper(strings.TrimSpace(prefs.DefaultToCurrency))
	prefs.Theme = strings.ToLower(strings.TrimSpace(prefs.Theme))
	prefs.ChartPeriod = strings.ToUpper(strings.TrimSpace(prefs.ChartPeriod))

	favorites := make([]string, 0, len(prefs.FavoriteCurrencies))
	for _, code := range prefs.FavoriteCurrencies {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !slices.Contains(favorites, code) {
			favorites = append(favorites, code)
		}
	}
	prefs.FavoriteCurrencies = favorites
	return prefs
}

func clonePreferences(prefs entity.UserPreferences) entity.UserPreferences {
	prefs.FavoriteCurrencies = slices.Clone(prefs.FavoriteCurrencies)
	if prefs.FavoriteCurrencies == nil {
		prefs.FavoriteCurrencies = []string{}
	}
	return prefs
}
