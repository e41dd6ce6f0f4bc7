package ftp

import (
	"fmt"
	"io"
	"sync"
)

// MockClient is an in-memory Client for tests and local development.
type MockClient struct {
	mu      sync.Mutex
	baseURL string
	files   map[string][]byte

	UploadErr error
}

func NewMockClient(baseURL string) *MockClient {
	return &MockClient{
		baseURL: baseURL,
		files:   make(map[string][]byte),
	}
}

func (m *MockClient) UploadFile(remotePath string, data io.Reader) error {
	if m.UploadErr != nil {
		return m.UploadErr
	}

	content, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read upload data: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[remotePath] = content
	return nil
}

func (m *MockClient) GenerateURL(remotePath string) string {
	return m.baseURL + "/" + remotePath
}

func (m *MockClient) Close() error {
	return nil
}

// Stored returns the uploaded bytes for a path, for assertions.
func (m *MockClient) Stored(remotePath string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[remotePath]
	return data, ok
}
