package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/google/uuid"
)

var ErrNotPresigned = errors.New("no pending presigned upload for key")

// MemoryStorage keeps objects in memory; used by tests and local development without S3.
// Objects are reachable at baseURL/<key> once the router mounts the files routes.
type MemoryStorage struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
	types   map[string]string
	pending map[string]pendingUpload
}

type pendingUpload struct {
	token       string
	contentType string
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{
		baseURL: baseURL,
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		pending: make(map[string]pendingUpload),
	}
}

func (m *MemoryStorage) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf.Bytes()
	m.types[key] = contentType
	return fmt.Sprintf("%s/%s", m.baseURL, key), nil
}

func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.types, key)
	delete(m.pending, key)
	return nil
}

// PresignUpload reserves key for a single PUT carrying the returned signature
func (m *MemoryStorage) PresignUpload(ctx context.Context, filename, contentType, folder string) (*PresignedURLResponse, error) {
	key := ObjectKey(folder, filename)
	token := uuid.NewString()

	m.mu.Lock()
	m.pending[key] = pendingUpload{token: token, contentType: contentType}
	m.mu.Unlock()

	return &PresignedURLResponse{
		UploadURL: fmt.Sprintf("%s/%s?%s", m.baseURL, key, url.Values{"signature": {token}}.Encode()),
		FileURL:   fmt.Sprintf("%s/%s", m.baseURL, key),
		Key:       key,
	}, nil
}

// PutPresigned completes a presigned upload. The reservation is consumed on success.
func (m *MemoryStorage) PutPresigned(ctx context.Context, key, token string, body io.Reader) (string, error) {
	m.mu.Lock()
	reservation, ok := m.pending[key]
	m.mu.Unlock()
	if !ok || token == "" || reservation.token != token {
		return "", ErrNotPresigned
	}

	fileURL, err := m.Upload(ctx, key, reservation.contentType, body, -1)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	delete(m.pending, key)
	m.mu.Unlock()
	return fileURL, nil
}

// Object returns a stored object and its content type
func (m *MemoryStorage) Object(key string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, m.types[key], ok
}

func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
