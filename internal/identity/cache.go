package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// CachingProvider remembers successful token verifications for a short TTL so
// that repeated requests with one bearer token do not each reach the provider.
// Only the token-to-email mapping is cached; account state is always read fresh.
// An entry never outlives the credential it was made from.
type CachingProvider struct {
	Provider
	cache *lru.LRU[string, Identity]
	now   func() time.Time
}

// NewCachingProvider wraps next with a cache of at most size entries.
func NewCachingProvider(next Provider, size int, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		Provider: next,
		cache:    lru.NewLRU[string, Identity](size, nil, ttl),
		now:      time.Now,
	}
}

func (p *CachingProvider) VerifyCredential(ctx context.Context, token string) (*Identity, error) {
	key := tokenKey(token)
	if id, ok := p.cache.Get(key); ok {
		if id.ValidAt(p.now()) {
			return &id, nil
		}
		p.cache.Remove(key)
	}

	id, err := p.Provider.VerifyCredential(ctx, token)
	if err != nil {
		return nil, err
	}
	if id != nil && id.ValidAt(p.now()) {
		p.cache.Add(key, *id)
	}
	return id, nil
}

// IssueSession forwards to the wrapped provider when it can mint sessions.
func (p *CachingProvider) IssueSession(ctx context.Context, email string) (*SessionTokens, error) {
	issuer, ok := p.Provider.(SessionIssuer)
	if !ok {
		return nil, ErrUnsupported
	}
	return issuer.IssueSession(ctx, email)
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
