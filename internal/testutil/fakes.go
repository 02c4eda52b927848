package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yukikurage/learning-platform-api/internal/identity"
	"github.com/yukikurage/learning-platform-api/internal/storage"
)

// Provider is an in-memory identity.Provider. Bearer tokens have the form
// "token-<email>".
type Provider struct {
	mu            sync.Mutex
	passwords     map[string]string
	PasswordCalls int
	Resets        []string
	Err           error
}

func NewProvider() *Provider {
	return &Provider{passwords: map[string]string{}}
}

// TokenFor returns the bearer token the provider accepts for email.
func TokenFor(email string) string {
	return "token-" + email
}

func (p *Provider) SetPassword(email, password string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passwords[email] = password
}

func (p *Provider) VerifyCredential(_ context.Context, token string) (*identity.Identity, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	email, ok := strings.CutPrefix(token, "token-")
	if !ok || email == "" {
		return nil, identity.ErrInvalidCredential
	}
	return &identity.Identity{Email: email, Subject: email}, nil
}

func (p *Provider) AuthenticateWithPassword(_ context.Context, email, password string) (*identity.SessionTokens, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PasswordCalls++
	if p.Err != nil {
		return nil, p.Err
	}
	if stored, ok := p.passwords[email]; !ok || stored != password {
		return nil, identity.ErrInvalidCredential
	}
	return &identity.SessionTokens{
		AccessToken:  TokenFor(email),
		RefreshToken: "refresh-" + email,
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	}, nil
}

func (p *Provider) Register(_ context.Context, email, password string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	if _, ok := p.passwords[email]; ok {
		return identity.ErrAlreadyRegistered
	}
	p.passwords[email] = password
	return nil
}

func (p *Provider) SendPasswordReset(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Resets = append(p.Resets, email)
	return nil
}

// BlobStore keeps uploaded objects in memory.
type BlobStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

func NewBlobStore() *BlobStore {
	return &BlobStore{Objects: map[string][]byte{}}
}

func (b *BlobStore) Upload(_ context.Context, bucket, path string, data []byte, _ string) (*storage.Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return nil, b.Err
	}
	b.Objects[bucket+"/"+path] = data
	return &storage.Object{
		URL:  fmt.Sprintf("https://blobs.test/%s/%s", bucket, path),
		Path: path,
	}, nil
}

func (b *BlobStore) Delete(_ context.Context, bucket string, paths ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	for _, p := range paths {
		delete(b.Objects, bucket+"/"+p)
	}
	return nil
}

// Has reports whether an object exists.
func (b *BlobStore) Has(bucket, path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.Objects[bucket+"/"+path]
	return ok
}
