package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// OAuthState дані, прив'язані до state параметра
type OAuthState struct {
	Provider    string `json:"provider"`
	CallbackURL string `json:"callbackUrl"`
}

// StateStore одноразові CSRF state параметри для OAuth flow
type StateStore interface {
	Generate(ctx context.Context, data OAuthState) (string, error)
	Consume(ctx context.Context, state string) (*OAuthState, error)
}

// generateState генерує криптографічно стійкий state
func generateState() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}

func shortState(state string) string {
	if len(state) <= 10 {
		return state
	}
	return state[:10] + "..."
}

// stateEntry представляє запис state в пам'яті
type stateEntry struct {
	data      OAuthState
	expiresAt time.Time
}

// memoryStateStore реалізація StateStore в пам'яті процесу
type memoryStateStore struct {
	states map[string]*stateEntry
	mutex  sync.Mutex
	ttl    time.Duration
	now    func() time.Time
}

const stateCleanupInterval = 5 * time.Minute

// NewMemoryStateStore створює сховище state в пам'яті з фоновим очищенням,
// яке працює поки не скасовано ctx
func NewMemoryStateStore(ctx context.Context, ttl time.Duration) StateStore {
	store := newMemoryStateStore(ttl)
	go store.cleanupRoutine(ctx, stateCleanupInterval)
	return store
}

func newMemoryStateStore(ttl time.Duration) *memoryStateStore {
	return &memoryStateStore{
		states: make(map[string]*stateEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *memoryStateStore) Generate(_ context.Context, data OAuthState) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.states[state] = &stateEntry{
		data:      data,
		expiresAt: s.now().Add(s.ttl),
	}

	logrus.WithFields(logrus.Fields{
		"state":    shortState(state),
		"provider": data.Provider,
	}).Debug("Generated new state parameter")

	return state, nil
}

// Consume повертає дані state і видаляє його
func (s *memoryStateStore) Consume(_ context.Context, state string) (*OAuthState, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.states[state]
	if !exists {
		return nil, ErrInvalidState
	}
	delete(s.states, state)

	if s.now().After(entry.expiresAt) {
		return nil, fmt.Errorf("%w: expired", ErrInvalidState)
	}

	data := entry.data
	return &data, nil
}

// cleanupExpired видаляє застарілі state параметри
func (s *memoryStateStore) cleanupExpired() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	cleaned := 0
	for state, entry := range s.states {
		if now.After(entry.expiresAt) {
			delete(s.states, state)
			cleaned++
		}
	}

	if cleaned > 0 {
		logrus.WithField("cleaned_count", cleaned).Debug("Cleaned up expired state parameters")
	}
	return cleaned
}

// cleanupRoutine періодично очищує застарілі state параметри
func (s *memoryStateStore) cleanupRoutine(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

const stateKeyPrefix = "starter:oauth_state:"

// redisStateStore реалізація StateStore на Redis
type redisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore створює сховище state в Redis (SET EX + GETDEL)
func NewRedisStateStore(client *redis.Client, ttl time.Duration) StateStore {
	return &redisStateStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *redisStateStore) Generate(ctx context.Context, data OAuthState) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}

	if err := s.client.Set(ctx, stateKeyPrefix+state, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"state":    shortState(state),
		"provider": data.Provider,
	}).Debug("Generated new state parameter")

	return state, nil
}

func (s *redisStateStore) Consume(ctx context.Context, state string) (*OAuthState, error) {
	payload, err := s.client.GetDel(ctx, stateKeyPrefix+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var data OAuthState
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("%w: corrupted payload", ErrInvalidState)
	}
	return &data, nil
}

// NewRedisClient підключається до Redis і перевіряє з'єднання
func NewRedisClient(ctx context.Context, addr, password string, db, maxRetries, poolSize int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		DB:         db,
		MaxRetries: maxRetries,
		PoolSize:   poolSize,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}
