package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RevocationList зберігає jti відкликаних сесійних токенів до закінчення їх строку дії
type RevocationList interface {
	Revoke(jti string, until time.Time)
	IsRevoked(jti string) bool
}

// revocationList реалізація RevocationList (in-memory)
type revocationList struct {
	entries map[string]time.Time
	mutex   sync.RWMutex
	now     func() time.Time
}

const revocationCleanupInterval = 10 * time.Minute

// NewRevocationList створює список відкликаних токенів з фоновим очищенням.
// Очищення зупиняється разом з ctx.
func NewRevocationList(ctx context.Context) RevocationList {
	list := newRevocationList()
	go list.cleanupRoutine(ctx, revocationCleanupInterval)
	return list
}

func newRevocationList() *revocationList {
	return &revocationList{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke відкликає токен; запис живе до until
func (l *revocationList) Revoke(jti string, until time.Time) {
	if jti == "" {
		return
	}

	l.mutex.Lock()
	l.entries[jti] = until
	l.mutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"jti":        jti,
		"expires_at": until,
	}).Info("Session token revoked")
}

func (l *revocationList) IsRevoked(jti string) bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	until, ok := l.entries[jti]
	return ok && l.now().Before(until)
}

// cleanupExpired видаляє записи токенів, строк дії яких вже минув
func (l *revocationList) cleanupExpired() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	cleaned := 0
	for jti, until := range l.entries {
		if !now.Before(until) {
			delete(l.entries, jti)
			cleaned++
		}
	}

	if cleaned > 0 {
		logrus.WithField("cleaned_count", cleaned).Debug("Cleaned up expired revocations")
	}
}

// cleanupRoutine періодично очищує список до скасування ctx
func (l *revocationList) cleanupRoutine(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanupExpired()
		}
	}
}
