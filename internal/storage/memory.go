package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]string)}
}

func (m *MemoryStore) StoreInbound(_ context.Context, correlationID, retailerID, content string) (string, error) {
	key := fmt.Sprintf("inbound/%s/%s/%s.edi",
		time.Now().UTC().Format("2006/01/02"),
		strings.ToLower(retailerID),
		correlationID,
	)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = content
	return key, nil
}

func (m *MemoryStore) ArchiveProcessed(_ context.Context, key, correlationID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.objects[key]
	if !ok {
		return "", fmt.Errorf("no stored object for key %s", key)
	}
	archiveKey := strings.Replace(key, "inbound/", "processed/", 1)
	m.objects[archiveKey] = content
	return archiveKey, nil
}

func (m *MemoryStore) RetrieveContent(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.objects[key]
	if !ok {
		return "", fmt.Errorf("no stored object for key %s", key)
	}
	return content, nil
}

// Len reports how many objects are held, for tests.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
