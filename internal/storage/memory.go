package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Object is a stored blob and its content type.
type Object struct {
	ContentType string
	Data        []byte
}

// MemoryStorage is an in-memory ObjectStorage for local development and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]Object)}
}

func objectPath(bucket, key string) string {
	return bucket + "/" + key
}

// Put stores a copy of body. A size mismatch is reported as an error, as S3 would.
func (m *MemoryStorage) Put(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, body)
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	if size >= 0 && n != size {
		return fmt.Errorf("put object: read %d bytes, expected %d", n, size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectPath(bucket, key)] = Object{ContentType: contentType, Data: buf.Bytes()}
	return nil
}

// Delete removes bucket/key. Missing keys are ignored.
func (m *MemoryStorage) Delete(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectPath(bucket, key))
	return nil
}

// Get returns the object stored at bucket/key.
func (m *MemoryStorage) Get(bucket, key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objectPath(bucket, key)]
	if !ok {
		return Object{}, ErrObjectNotFound
	}
	return obj, nil
}

// Len returns the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
