package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/devdattatalele/zapmygoal/internal/errs"
	"github.com/devdattatalele/zapmygoal/internal/ftp"
	"github.com/devdattatalele/zapmygoal/internal/retry"
)

// MediaStore persists proof images and returns a public URL for them.
type MediaStore interface {
	SaveProofImage(ctx context.Context, userID, challengeID string, image []byte, mimeType string) (string, error)
}

type ftpMediaStore struct {
	client   ftp.Client
	basePath string
	retry    retry.Policy
}

func NewFTPMediaStore(client ftp.Client, basePath string, policy retry.Policy) MediaStore {
	return &ftpMediaStore{client: client, basePath: basePath, retry: policy}
}

func (s *ftpMediaStore) SaveProofImage(ctx context.Context, userID, challengeID string, image []byte, mimeType string) (string, error) {
	remotePath := path.Join(s.basePath, userID, challengeID, fmt.Sprintf("%d%s", time.Now().UnixNano(), extensionFor(mimeType)))

	err := s.retry.Do(ctx, func() error {
		return s.client.UploadFile(remotePath, bytes.NewReader(image))
	})
	if err != nil {
		return "", fmt.Errorf("%w: proof image upload: %s", errs.ErrExternalService, err)
	}

	return s.client.GenerateURL(remotePath), nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	default:
		return ".jpg"
	}
}

// MediaFetcher downloads an image referenced by a chat message so the
// webhook path can feed the same verification engine as direct uploads.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, mimeType string, err error)
}

type httpMediaFetcher struct {
	client  *http.Client
	maxSize int64
}

func NewHTTPMediaFetcher(timeout time.Duration) MediaFetcher {
	return &httpMediaFetcher{
		client:  &http.Client{Timeout: timeout},
		maxSize: 10 << 20,
	}
}

func (f *httpMediaFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build media request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: media download: %s", errs.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: media download returned status %d", errs.ErrExternalService, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize))
	if err != nil {
		return nil, "", fmt.Errorf("%w: media download read: %s", errs.ErrExternalService, err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	return data, mimeType, nil
}
