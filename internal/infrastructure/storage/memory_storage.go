package storage

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/Z3RO333/formularios/internal/application/trade"
)

// MemoryObject is one stored object
type MemoryObject struct {
	Data        []byte
	ContentType string
}

// MemoryObjectStorage keeps objects in process memory. It backs local
// development and tests; objects are lost on restart.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]MemoryObject
	// BaseURL prefixes generated download URLs
	BaseURL string
}

// NewMemoryObjectStorage creates an empty store
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "memory://attachments"
	}
	return &MemoryObjectStorage{
		objects: make(map[string]MemoryObject),
		BaseURL: baseURL,
	}
}

// Upload stores a copy of data
func (m *MemoryObjectStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageKey] = MemoryObject{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

// GenerateDownloadURL returns BaseURL/key with an expiry query parameter
func (m *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	if expiresIn <= 0 {
		expiresIn = DefaultPresignExpiry
	}
	expiresAt := time.Now().Add(expiresIn)
	u := m.BaseURL + "/" + storageKey + "?" + url.Values{"expires": {strconv.FormatInt(expiresAt.Unix(), 10)}}.Encode()
	return u, expiresAt, nil
}

// DeleteObject removes the object
func (m *MemoryObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, storageKey)
	return nil
}

// Get returns the stored object
func (m *MemoryObjectStorage) Get(storageKey string) (MemoryObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[storageKey]
	return obj, ok
}

// Len returns the number of stored objects
func (m *MemoryObjectStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ trade.ObjectStorageService = (*MemoryObjectStorage)(nil)
