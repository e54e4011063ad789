package utils

import (
	"context"
	"sync"
	"time"
)

// Session-scoped markers and token revocation share the same storage model:
// prefer redis so multiple instances agree, fall back to per-process maps when
// redis is unconfigured.

type memoryEntry struct {
	expiresAt time.Time
}

var (
	memoryStore   = map[string]memoryEntry{}
	memoryStoreMu sync.Mutex
)

// RevokeToken stores a bearer token until its natural expiration to support
// logout semantics.
func RevokeToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rc.Set(ctx, "jwt:revoked:"+token, "1", ttl).Err()
		return
	}
	memorySet("jwt:revoked:"+token, ttl)
}

// IsTokenRevoked checks whether a token was revoked before natural expiration.
func IsTokenRevoked(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, "jwt:revoked:"+token).Result()
		if err == nil {
			return n > 0
		}
		// Fail open on redis errors to avoid locking everyone out.
		return false
	}
	return memoryHas("jwt:revoked:" + token)
}

// MarkVisit records that a browsing session has seen a post and reports
// whether this was the first time within the ttl. The traffic recorder uses
// this to turn raw views into unique visits.
func MarkVisit(sessionID, postID string, ttl time.Duration) bool {
	key := "visit:" + postID + ":" + sessionID
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		first, err := rc.SetNX(ctx, key, "1", ttl).Result()
		if err == nil {
			return first
		}
	}
	if memoryHas(key) {
		return false
	}
	memorySet(key, ttl)
	return true
}

func memorySet(key string, ttl time.Duration) {
	memoryStoreMu.Lock()
	defer memoryStoreMu.Unlock()
	memoryStore[key] = memoryEntry{expiresAt: time.Now().Add(ttl)}
	// Opportunistic sweep to keep the fallback map bounded.
	now := time.Now()
	for k, e := range memoryStore {
		if now.After(e.expiresAt) {
			delete(memoryStore, k)
		}
	}
}

func memoryHas(key string) bool {
	memoryStoreMu.Lock()
	defer memoryStoreMu.Unlock()
	entry, ok := memoryStore[key]
	if !ok {
		return false
	}
	if time.Now().After(entry.expiresAt) {
		delete(memoryStore, key)
		return false
	}
	return true
}
