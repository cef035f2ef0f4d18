package uploads

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSPresigner issues V4 signed PUT URLs for Cloud Storage.
type GCSPresigner struct {
	client *storage.Client
}

// NewGCSPresigner creates a presigner using application default credentials
// or the given client options.
func NewGCSPresigner(ctx context.Context, opts ...option.ClientOption) (*GCSPresigner, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSPresigner{client: client}, nil
}

// PresignPut implements Presigner.
func (p *GCSPresigner) PresignPut(_ context.Context, bucket, key, contentType string, expires time.Duration) (string, error) {
	return p.client.Bucket(bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     time.Now().Add(expires),
	})
}

// Close closes the storage client.
func (p *GCSPresigner) Close() error {
	return p.client.Close()
}
